// Package config provides the configuration schema, loader, hot-reload
// watcher and classifier provider registry for fretscribe.
package config

import (
	"time"

	"github.com/MrWong99/fretscribe/internal/terminology/library"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr          = ":8080"
	DefaultMaxBodyBytes        = 32 << 20
	DefaultReloadInterval      = 5 * time.Second
	DefaultConfidenceThreshold = 0.75
	DefaultBoostTarget         = 1.0
	DefaultContextWindow       = 3
	DefaultClassifierTimeout   = 5 * time.Second
	DefaultClassifierMaxTokens = 5
	DefaultTemperature         = 0.1
)

// Config is the root configuration structure for fretscribe.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Library    LibraryConfig    `yaml:"library"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings for serve mode.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP service listens on. Default ":8080".
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Default "info".
	LogLevel LogLevel `yaml:"log_level"`

	// TLS enables HTTPS when set.
	TLS *TLSConfig `yaml:"tls"`

	// MaxBodyBytes caps the size of a posted document. Default 32 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ReloadInterval is how often the config file is polled for changes in
	// serve mode. Default 5s.
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// EngineConfig tunes the enhancement engine.
type EngineConfig struct {
	// ConfidenceThreshold is the confidence at or above which words are
	// never evaluated. Default 0.75.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// BoostTarget is the confidence assigned to confirmed terminology.
	// Default 1.0.
	BoostTarget float64 `yaml:"boost_target"`

	// ContextWindow is the number of words on each side sent with an
	// external classifier query. Nil means the default of 3.
	ContextWindow *int `yaml:"context_window"`
}

// ClassifierConfig configures the external terminology classifier.
type ClassifierConfig struct {
	// Enabled turns the external classifier on. When false, words not
	// resolved locally are treated as non-terminology.
	Enabled bool `yaml:"enabled"`

	// Timeout bounds each request. Default 5s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxTokens caps the generated answer. Default 5.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature. Nil means 0.1.
	Temperature *float64 `yaml:"temperature"`

	// Provider is the primary backend.
	Provider ProviderEntry `yaml:"provider"`

	// Fallbacks are tried in order when the primary fails or its circuit
	// is open.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`

	// CircuitBreaker configures the breaker wrapped around every backend.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig mirrors the tunables of the resilience breaker.
// Zero values keep the breaker defaults.
type CircuitBreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// ProviderEntry is the configuration block of one classifier backend.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific values not covered by the fields above.
	Options map[string]any `yaml:"options"`
}

// DictionaryConfig locates the English word list.
type DictionaryConfig struct {
	// Path is a newline-delimited word file such as /usr/share/dict/words.
	// Empty or unreadable paths fall back to the built-in common-word set.
	Path string `yaml:"path"`
}

// LibraryConfig selects the curated terminology source.
type LibraryConfig struct {
	// Source is "builtin", "file" or "postgres". Default "builtin".
	Source library.Source `yaml:"source"`

	// Path is the YAML collection for the file source.
	Path string `yaml:"path"`

	// PostgresDSN is the connection string for the postgres source.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// TelemetryConfig configures OpenTelemetry resources.
type TelemetryConfig struct {
	// ServiceName is reported in telemetry. Default "fretscribe".
	ServiceName string `yaml:"service_name"`
}

// Options converts the section into [library.Options].
func (l LibraryConfig) Options() library.Options {
	return library.Options{Source: l.Source, Path: l.Path, PostgresDSN: l.PostgresDSN}
}

// Window returns the configured context window or the default.
func (e EngineConfig) Window() int {
	if e.ContextWindow == nil {
		return DefaultContextWindow
	}
	return *e.ContextWindow
}

// SamplingTemperature returns the configured temperature or the default.
func (c ClassifierConfig) SamplingTemperature() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}
