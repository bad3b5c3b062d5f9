// Package server exposes the voice pipeline and its individual stages over
// HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrsingh-rishi/voice-bridge/metrics"
	"github.com/mrsingh-rishi/voice-bridge/model"
	"github.com/mrsingh-rishi/voice-bridge/output"
	"github.com/mrsingh-rishi/voice-bridge/pipeline"
)

// Config holds HTTP settings.
type Config struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AccessLog receives one line per request; nil means stdout.
	AccessLog io.Writer
}

// Server is the fiber application plus the orchestrator behind it.
type Server struct {
	app      *fiber.App
	orch     *pipeline.Orchestrator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	started  time.Time
	host     func() HostStats
}

// New wires routes and middleware. m and gatherer may be nil, in which
// case HTTP metrics are not recorded and /metrics serves the default
// registry.
func New(orch *pipeline.Orchestrator, cfg Config, log *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	if log == nil {
		log = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = os.Stdout
	}

	s := &Server{
		orch:     orch,
		logger:   log.With(slog.String("component", "http")),
		metrics:  m,
		gatherer: gatherer,
		started:  time.Now(),
		host:     readHostStats,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "voice-bridge",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
		Output: cfg.AccessLog,
	}))
	s.app.Use(s.observe)

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/v1")
	api.Post("/audio/transcriptions", s.handleTranscriptions)
	api.Post("/chat/completions", s.handleChatCompletions)
	api.Post("/audio/speech", s.handleSpeech)

	s.app.Post("/upload", s.handleRawPCM)
	s.app.Post("/", s.handleRawPCM)
	s.app.Post("/process-audio", s.handleProcessAudio)

	s.app.Get("/", s.handleStatus)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", slog.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if s.metrics != nil {
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		s.metrics.RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
	}
	return err
}

// handleError renders errors that escape a handler, including fiber's own
// routing errors and recovered panics.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := model.KindBadRequest
		if fe.Code >= fiber.StatusInternalServerError {
			kind = model.KindInternal
		}
		return c.Status(fe.Code).JSON(output.ErrorBody{Error: fe.Message, Kind: kind})
	}

	s.requestLogger(c).Error("Unhandled error", slog.String("error", err.Error()))
	return output.Error(c, err)
}

func (s *Server) requestLogger(c *fiber.Ctx) *slog.Logger {
	return s.logger.With(slog.String("request_id", requestID(c)))
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
