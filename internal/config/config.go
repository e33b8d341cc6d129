// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of notification workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory notification queue.
	QueueSize int `koanf:"queue_size"`

	// MaxAttempts is the retry budget for finding a unique partition.
	MaxAttempts int `koanf:"max_attempts"`

	// MinTeamCount is the smallest team count a sort accepts.
	MinTeamCount int `koanf:"min_team_count"`

	// Summary header and timestamp rendering.
	SummaryTitle      string `koanf:"summary_title"`
	SummaryTimeLayout string `koanf:"summary_time_layout"`
	SummaryTimezone   string `koanf:"summary_timezone"`

	// EmailJS sink. Keys are secrets and only come from files or env.
	EmailJSServiceID    string `koanf:"emailjs_service_id"`
	EmailJSTemplateID   string `koanf:"emailjs_template_id"`
	EmailJSPublicKey    string `koanf:"emailjs_public_key"`
	EmailJSPrivateKey   string `koanf:"emailjs_private_key"`
	EmailJSEndpoint     string `koanf:"emailjs_endpoint"`
	EmailJSMessageParam string `koanf:"emailjs_message_param"`

	// NotifyTimeoutMS bounds one request to the sink.
	NotifyTimeoutMS int `koanf:"notify_timeout_ms"`

	// SessionIdleTTLMS evicts sessions untouched for this long; 0 keeps them.
	SessionIdleTTLMS int `koanf:"session_idle_ttl_ms"`

	// ShutdownTimeoutMS bounds graceful shutdown of the server and workers.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           1024,
		MaxAttempts:         50,
		MinTeamCount:        2,
		SummaryTitle:        "Teams drawn",
		SummaryTimeLayout:   "02/01/2006 15:04:05",
		SummaryTimezone:     "Local",
		EmailJSEndpoint:     "https://api.emailjs.com",
		EmailJSMessageParam: "message",
		NotifyTimeoutMS:     10_000,
		SessionIdleTTLMS:    1_800_000,
		ShutdownTimeoutMS:   10_000,
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidConfig)
	case c.MinTeamCount < 1:
		return fmt.Errorf("%w: min_team_count must be at least 1", ErrInvalidConfig)
	case c.NotifyTimeoutMS < 1:
		return fmt.Errorf("%w: notify_timeout_ms must be positive", ErrInvalidConfig)
	case c.ShutdownTimeoutMS < 1:
		return fmt.Errorf("%w: shutdown_timeout_ms must be positive", ErrInvalidConfig)
	case c.SessionIdleTTLMS < 0:
		return fmt.Errorf("%w: session_idle_ttl_ms must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: summary_timezone: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Location resolves SummaryTimezone. Empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.SummaryTimezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.SummaryTimezone)
}

// NotifierEnabled reports whether the EmailJS identifiers are all present.
func (c *Config) NotifierEnabled() bool {
	return c.EmailJSServiceID != "" && c.EmailJSTemplateID != "" && c.EmailJSPublicKey != ""
}

// NotifyTimeout returns NotifyTimeoutMS as a duration.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// SessionIdleTTL returns SessionIdleTTLMS as a duration.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMS) * time.Millisecond
}
