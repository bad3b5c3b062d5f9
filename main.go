package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrsingh-rishi/voice-bridge/config"
	"github.com/mrsingh-rishi/voice-bridge/metrics"
	"github.com/mrsingh-rishi/voice-bridge/pipeline"
	"github.com/mrsingh-rishi/voice-bridge/server"
)

const serviceName = "voice-bridge"

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file (optional)")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env if present
	if err := godotenv.Load(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, falling back to environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without secrets)
	logger.Info("Configuration loaded",
		slog.String("listen", cfg.Server.ListenAddress()),
		slog.String("stt_provider", cfg.STT.Provider),
		slog.String("stt_failure_policy", cfg.Pipeline.STTFailurePolicy),
		slog.String("llm_model", cfg.LLM.Model),
		slog.String("tts_provider", cfg.TTS.Provider),
		slog.String("output_format", cfg.Pipeline.OutputFormat),
		slog.Bool("ambient_noise", cfg.STT.AmbientNoise.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := newProviders(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create providers", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer providers.Close()

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	orch, err := pipeline.New(providers.stt, providers.llm, providers.tts, pipelineOptions(cfg), logger, appMetrics)
	if err != nil {
		logger.Error("Failed to create pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server.Version = version
	srv := server.New(orch, server.Config{
		BodyLimit:    cfg.Server.BodyLimit(),
		ReadTimeout:  cfg.Server.GetReadTimeoutDuration(),
		WriteTimeout: cfg.Server.GetWriteTimeoutDuration(),
	}, logger, appMetrics, prometheus.DefaultGatherer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.ListenAddress())
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP server shutdown", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		STTFailurePolicy: pipeline.Policy(cfg.Pipeline.STTFailurePolicy),
		OutputContainer:  outputContainer(cfg.Pipeline.OutputFormat),
		PromptTemplate:   cfg.Pipeline.PromptTemplate,
		VoiceLanguage:    cfg.Pipeline.VoiceLanguage,
		SystemPrompt:     cfg.Pipeline.SystemPrompt,
		MinDuration:      cfg.Pipeline.MinDuration,
		TempDir:          cfg.Pipeline.TempDir,
		STTTimeout:       cfg.STT.GetTimeoutDuration(),
		LLMTimeout:       cfg.LLM.GetTimeoutDuration(),
		TTSTimeout:       cfg.TTS.GetTimeoutDuration(),
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
