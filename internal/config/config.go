// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Sheet   SheetConfig
	Sync    SyncConfig
	Upload  UploadConfig
	Rate    RateLimitConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 2m,
	// extraction requests wait on the vision model)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// GeminiConfig holds vision model settings.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API (required)
	// Supports both GEMINI_API_KEY and GOOGLE_API_KEY for compatibility
	APIKey string `env:"GEMINI_API_KEY" envAlt:"GOOGLE_API_KEY" required:"true"`

	// Model is the vision model used for extraction (default: gemini-3-flash-preview)
	Model string `env:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
}

// SheetConfig holds the spreadsheet endpoints the app syncs against.
type SheetConfig struct {
	// CSVURL is the published CSV export used for history reads (required)
	CSVURL string `env:"SHEET_CSV_URL" required:"true"`

	// ScriptURL is the Apps Script web app endpoint used for appends (required)
	ScriptURL string `env:"SHEET_SCRIPT_URL" required:"true"`

	// Timeout is the per-request timeout for sheet calls (default: 30s)
	Timeout time.Duration `env:"SHEET_TIMEOUT" default:"30s"`
}

// SyncConfig holds orchestrator settings.
type SyncConfig struct {
	// RefreshDelay is how long the success screen shows before the
	// history re-fetch runs (default: 3s)
	RefreshDelay time.Duration `env:"SYNC_REFRESH_DELAY" default:"3s"`

	// HistoryLimit is the maximum records returned for an unfiltered
	// history request (default: 30)
	HistoryLimit int `env:"SYNC_HISTORY_LIMIT" default:"30"`
}

// UploadConfig holds image capture limits.
type UploadConfig struct {
	// MaxImageSize is the maximum decoded size of one image in bytes (default: 10MB)
	MaxImageSize int64 `env:"UPLOAD_MAX_IMAGE_SIZE" default:"10485760"`

	// MaxImages is the maximum images accepted per extraction (default: 6)
	MaxImages int `env:"UPLOAD_MAX_IMAGES" default:"6"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
