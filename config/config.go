package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// STT failure policies.
const (
	PolicySubstitute = "substitute"
	PolicyHalt       = "halt"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	STT      STTConfig      `yaml:"stt"`
	LLM      LLMConfig      `yaml:"llm"`
	TTS      TTSConfig      `yaml:"tts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Address      string `yaml:"address"`
	Port         int    `yaml:"port"`
	BodyLimitMB  int    `yaml:"body_limit_mb"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
}

// PipelineConfig contains orchestrator behaviour
type PipelineConfig struct {
	STTFailurePolicy string  `yaml:"stt_failure_policy"`
	OutputFormat     string  `yaml:"output_format"`
	SystemPrompt     string  `yaml:"system_prompt"`
	PromptTemplate   string  `yaml:"prompt_template"`
	VoiceLanguage    string  `yaml:"voice_language"`
	MinDuration      float64 `yaml:"min_duration"` // seconds
	TempDir          string  `yaml:"temp_dir"`
}

// STTConfig contains transcription provider configuration
type STTConfig struct {
	Provider     string             `yaml:"provider"`
	APIKey       string             `yaml:"api_key"`
	BaseURL      string             `yaml:"base_url"`
	Model        string             `yaml:"model"`
	LanguageCode string             `yaml:"language_code"`
	Timeout      int                `yaml:"timeout"` // seconds
	AmbientNoise AmbientNoiseConfig `yaml:"ambient_noise"`
}

// AmbientNoiseConfig controls noise calibration before recognition
type AmbientNoiseConfig struct {
	Enabled bool    `yaml:"enabled"`
	LeadMS  int     `yaml:"lead_ms"`
	Factor  float64 `yaml:"factor"`
}

// LLMConfig contains reply generator configuration
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout int    `yaml:"timeout"` // seconds
}

// TTSConfig contains speech synthesizer configuration
type TTSConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a configuration that runs with only API keys supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      "0.0.0.0",
			Port:         5000,
			BodyLimitMB:  16,
			ReadTimeout:  60,
			WriteTimeout: 120,
		},
		Pipeline: PipelineConfig{
			STTFailurePolicy: PolicySubstitute,
			OutputFormat:     "wav",
			SystemPrompt:     "You are a helpful assistant.",
			VoiceLanguage:    "en",
			MinDuration:      0.5,
		},
		STT: STTConfig{
			Provider:     "google",
			LanguageCode: "en-US",
			Timeout:      30,
			AmbientNoise: AmbientNoiseConfig{LeadMS: 250, Factor: 1.5},
		},
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 30,
		},
		TTS: TTSConfig{
			Provider: "gtts",
			Timeout:  30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file on top of the defaults, applies
// environment overrides and validates the result. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides secrets and common settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	str("STT_PROVIDER", &c.STT.Provider)
	str("TTS_PROVIDER", &c.TTS.Provider)
	str("STT_FAILURE_POLICY", &c.Pipeline.STTFailurePolicy)
	str("OUTPUT_FORMAT", &c.Pipeline.OutputFormat)
	str("SYSTEM_PROMPT", &c.Pipeline.SystemPrompt)
	str("LOG_LEVEL", &c.Logging.Level)

	// one Google key serves both speech and Gemini unless overridden
	str("GOOGLE_API_KEY", &c.LLM.APIKey)
	str("GEMINI_API_KEY", &c.LLM.APIKey)
	if c.STT.Provider == "google" {
		str("GOOGLE_API_KEY", &c.STT.APIKey)
	}

	if c.STT.Provider == "whisper" {
		str("OPENAI_API_KEY", &c.STT.APIKey)
	}
	if c.TTS.Provider == "openai" {
		str("OPENAI_API_KEY", &c.TTS.APIKey)
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.STT.Validate(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	if err := c.TTS.Validate(); err != nil {
		return fmt.Errorf("tts config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BodyLimitMB < 1 {
		return fmt.Errorf("body_limit_mb must be at least 1, got %d", s.BodyLimitMB)
	}

	if s.ReadTimeout < 1 || s.WriteTimeout < 1 {
		return fmt.Errorf("read_timeout and write_timeout must be at least 1 second")
	}

	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.STTFailurePolicy != PolicySubstitute && p.STTFailurePolicy != PolicyHalt {
		return fmt.Errorf("stt_failure_policy must be 'substitute' or 'halt', got '%s'", p.STTFailurePolicy)
	}

	if p.OutputFormat != "wav" && p.OutputFormat != "mp3" {
		return fmt.Errorf("output_format must be 'wav' or 'mp3', got '%s'", p.OutputFormat)
	}

	if p.MinDuration < 0 {
		return fmt.Errorf("min_duration cannot be negative, got %f", p.MinDuration)
	}

	if p.VoiceLanguage == "" {
		return fmt.Errorf("voice_language cannot be empty")
	}

	return nil
}

// Validate validates transcription configuration
func (s *STTConfig) Validate() error {
	switch s.Provider {
	case "google":
	case "whisper":
		if s.APIKey == "" {
			return fmt.Errorf("api_key is required for the whisper provider")
		}
	default:
		return fmt.Errorf("provider must be 'google' or 'whisper', got '%s'", s.Provider)
	}

	if s.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", s.Timeout)
	}

	if s.AmbientNoise.Enabled && s.AmbientNoise.Factor <= 0 {
		return fmt.Errorf("ambient_noise.factor must be positive, got %f", s.AmbientNoise.Factor)
	}

	return nil
}

// Validate validates reply generator configuration
func (l *LLMConfig) Validate() error {
	if l.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}

	if l.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", l.Timeout)
	}

	return nil
}

// Validate validates speech synthesizer configuration
func (t *TTSConfig) Validate() error {
	switch t.Provider {
	case "gtts":
	case "openai":
		if t.APIKey == "" {
			return fmt.Errorf("api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("provider must be 'gtts' or 'openai', got '%s'", t.Provider)
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// ListenAddress returns host:port for the HTTP listener
func (s *ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// BodyLimit returns the request body limit in bytes
func (s *ServerConfig) BodyLimit() int {
	return s.BodyLimitMB * 1024 * 1024
}

// GetReadTimeoutDuration returns the read timeout as a time.Duration
func (s *ServerConfig) GetReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeoutDuration returns the write timeout as a time.Duration
func (s *ServerConfig) GetWriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (s *STTConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetLeadDuration returns the noise sampling window as a time.Duration
func (a *AmbientNoiseConfig) GetLeadDuration() time.Duration {
	return time.Duration(a.LeadMS) * time.Millisecond
}

// GetTimeoutDuration returns the generation timeout as a time.Duration
func (l *LLMConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

// GetTimeoutDuration returns the synthesis timeout as a time.Duration
func (t *TTSConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}
