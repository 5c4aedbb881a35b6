package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/fretscribe/internal/terminology/library"
)

// ValidProviderNames lists the classifier backends known to the CLI.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields of cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.ReloadInterval == 0 {
		cfg.Server.ReloadInterval = DefaultReloadInterval
	}
	if cfg.Engine.ConfidenceThreshold == 0 {
		cfg.Engine.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Engine.BoostTarget == 0 {
		cfg.Engine.BoostTarget = DefaultBoostTarget
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = DefaultClassifierTimeout
	}
	if cfg.Classifier.MaxTokens == 0 {
		cfg.Classifier.MaxTokens = DefaultClassifierMaxTokens
	}
	if cfg.Library.Source == "" {
		cfg.Library.Source = library.SourceBuiltin
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "fretscribe"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes %d must not be negative", cfg.Server.MaxBodyBytes))
	}
	if cfg.Server.ReloadInterval < 0 {
		errs = append(errs, fmt.Errorf("server.reload_interval %s must not be negative", cfg.Server.ReloadInterval))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Engine
	eng := cfg.Engine
	if eng.ConfidenceThreshold < 0 || eng.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("engine.confidence_threshold %.2f is out of range [0, 1]", eng.ConfidenceThreshold))
	}
	if eng.BoostTarget < 0 || eng.BoostTarget > 1 {
		errs = append(errs, fmt.Errorf("engine.boost_target %.2f is out of range [0, 1]", eng.BoostTarget))
	}
	if eng.BoostTarget < eng.ConfidenceThreshold {
		errs = append(errs, fmt.Errorf("engine.boost_target %.2f must not be below engine.confidence_threshold %.2f", eng.BoostTarget, eng.ConfidenceThreshold))
	}
	if w := eng.Window(); w < 0 || w > 20 {
		errs = append(errs, fmt.Errorf("engine.context_window %d is out of range [0, 20]", w))
	}

	// Classifier
	cl := cfg.Classifier
	if cl.Timeout < 0 {
		errs = append(errs, fmt.Errorf("classifier.timeout %s must not be negative", cl.Timeout))
	}
	if cl.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("classifier.max_tokens %d must not be negative", cl.MaxTokens))
	}
	if t := cl.SamplingTemperature(); t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("classifier.temperature %.2f is out of range [0, 2]", t))
	}
	if cl.Enabled && cl.Provider.Name == "" {
		errs = append(errs, errors.New("classifier.provider.name is required when classifier.enabled is true"))
	}
	validateProviderName("classifier.provider", cl.Provider.Name)
	for i, fb := range cl.Fallbacks {
		prefix := fmt.Sprintf("classifier.fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		validateProviderName(prefix, fb.Name)
	}
	if cb := cl.CircuitBreaker; cb.MaxFailures < 0 || cb.HalfOpenMax < 0 || cb.ResetTimeout < 0 {
		errs = append(errs, errors.New("classifier.circuit_breaker values must not be negative"))
	}
	if !cl.Enabled && (cl.Provider.Name != "" || len(cl.Fallbacks) > 0) {
		slog.Warn("classifier backends are configured but classifier.enabled is false; they will not be used")
	}

	// Library
	lib := cfg.Library
	if lib.Source != "" && !lib.Source.IsValid() {
		errs = append(errs, fmt.Errorf("library.source %q is invalid; valid values: builtin, file, postgres", lib.Source))
	}
	if lib.Source == library.SourceFile && lib.Path == "" {
		errs = append(errs, errors.New("library.path is required when library.source is file"))
	}
	if lib.Source == library.SourcePostgres && lib.PostgresDSN == "" {
		errs = append(errs, errors.New("library.postgres_dsn is required when library.source is postgres"))
	}

	// Dictionary availability
	if cfg.Dictionary.Path == "" {
		slog.Debug("dictionary.path is empty; the built-in common-word set will be used")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not one of
// [ValidProviderNames].
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or third-party provider",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
