// Package app wires the fretscribe subsystems into a running application.
//
// New loads the terminology library and the English dictionary, builds the
// external classifier chain (primary backend plus fallbacks, each behind a
// circuit breaker) and assembles an [enhance.Evaluator]. The evaluator is
// swapped atomically by [App.Reload] when engine or classifier settings
// change, so in-flight documents finish on the evaluator they started with.
//
// For testing, inject doubles via functional options (WithLibrary,
// WithDictionary, WithProvider). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrWong99/fretscribe/internal/config"
	"github.com/MrWong99/fretscribe/internal/enhance"
	"github.com/MrWong99/fretscribe/internal/health"
	"github.com/MrWong99/fretscribe/internal/observe"
	"github.com/MrWong99/fretscribe/internal/resilience"
	"github.com/MrWong99/fretscribe/internal/terminology/classify"
	"github.com/MrWong99/fretscribe/internal/terminology/dictionary"
	"github.com/MrWong99/fretscribe/internal/terminology/library"
	"github.com/MrWong99/fretscribe/pkg/provider/llm"
	"github.com/MrWong99/fretscribe/pkg/transcription"
)

// ErrClassifierUnavailable is reported by the classifier readiness check
// when every backend's circuit breaker is open.
var ErrClassifierUnavailable = errors.New("app: every classifier backend circuit is open")

// engine is the swappable part of the App: one evaluator and the classifier
// chain it was built with.
type engine struct {
	cfg       *config.Config
	evaluator *enhance.Evaluator
	backends  *resilience.LLMFallback
}

// App owns the enhancement engine and its supporting capabilities.
type App struct {
	registry *config.Registry
	metrics  *observe.Metrics
	logLevel *slog.LevelVar

	lib  library.Library
	dict dictionary.Dictionary

	// provider replaces the registry-built primary backend when set.
	provider llm.Provider

	current atomic.Pointer[engine]

	// reloadMu serialises Reload calls.
	reloadMu sync.Mutex
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithLibrary injects a terminology library instead of opening the one
// named in the config.
func WithLibrary(lib library.Library) Option {
	return func(a *App) { a.lib = lib }
}

// WithDictionary injects a dictionary instead of loading the configured word
// list.
func WithDictionary(d dictionary.Dictionary) Option {
	return func(a *App) { a.dict = d }
}

// WithProvider injects the primary classifier backend instead of creating it
// through the registry. It is only used when the classifier is enabled.
func WithProvider(p llm.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel lets [App.Reload] adjust the process log level.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// New creates an App from cfg. Providers named in the classifier section are
// resolved through reg; reg may be nil when the classifier is disabled or a
// provider is injected with [WithProvider].
//
// Library and dictionary failures degrade to the built-in sets and are never
// fatal. A classifier backend that cannot be constructed is.
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{registry: reg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.lib == nil {
		a.lib = library.Open(ctx, cfg.Library.Options())
	}
	if a.dict == nil {
		a.dict = dictionary.Open(cfg.Dictionary.Path)
	}

	eng, err := a.build(cfg)
	if err != nil {
		return nil, err
	}
	a.current.Store(eng)
	return a, nil
}

// Evaluator returns the evaluator currently in use.
func (a *App) Evaluator() *enhance.Evaluator { return a.current.Load().evaluator }

// Config returns the configuration the current evaluator was built from.
func (a *App) Config() *config.Config { return a.current.Load().cfg }

// Library returns the loaded terminology library.
func (a *App) Library() library.Library { return a.lib }

// Dictionary returns the loaded dictionary.
func (a *App) Dictionary() dictionary.Dictionary { return a.dict }

// Backends returns the names of the classifier backends in fallback order,
// or nil when the classifier is disabled.
func (a *App) Backends() []string {
	if b := a.current.Load().backends; b != nil {
		return b.Backends()
	}
	return nil
}

// Enhance runs the current evaluator over doc. See [enhance.Evaluator.Enhance].
func (a *App) Enhance(ctx context.Context, doc *transcription.Document) (*transcription.Document, *enhance.Report) {
	return a.Evaluator().Enhance(ctx, doc)
}

// Reload applies a changed configuration. It matches the signature of the
// [config.Watcher] callback. Log level changes take effect immediately;
// engine or classifier changes rebuild the evaluator; anything else is
// logged as requiring a restart. A rebuild failure keeps the old evaluator.
func (a *App) Reload(old, new *config.Config) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	d := config.Diff(old, new)
	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(SlogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	for _, section := range d.RestartRequired {
		slog.Warn("config change requires restart to take effect", "section", section)
	}
	if !d.EngineChanged && !d.ClassifierChanged {
		return
	}

	eng, err := a.build(new)
	if err != nil {
		slog.Error("config reload failed; keeping previous engine", "err", err)
		return
	}
	a.current.Store(eng)
	slog.Info("engine reloaded",
		"engine_changed", d.EngineChanged,
		"classifier_changed", d.ClassifierChanged,
		"classifier_enabled", eng.backends != nil,
	)
}

// Checkers returns the readiness probes for this App. The library check is
// required; the classifier check only degrades readiness because the engine
// keeps working without it.
func (a *App) Checkers() []health.Checker {
	return []health.Checker{
		{
			Name: "library",
			Check: func(context.Context) error {
				if a.lib.Stats().TotalTerms == 0 {
					return fmt.Errorf("app: terminology library is empty")
				}
				return nil
			},
		},
		{
			Name:     "classifier",
			Optional: true,
			Check: func(context.Context) error {
				b := a.current.Load().backends
				if b == nil || b.Healthy() {
					return nil
				}
				return ErrClassifierUnavailable
			},
		},
	}
}

// build assembles an engine from cfg.
func (a *App) build(cfg *config.Config) (*engine, error) {
	backends, err := a.buildBackends(cfg.Classifier)
	if err != nil {
		return nil, err
	}

	opts := []enhance.Option{
		enhance.WithThreshold(cfg.Engine.ConfidenceThreshold),
		enhance.WithBoostTarget(cfg.Engine.BoostTarget),
		enhance.WithContextWindow(cfg.Engine.Window()),
		enhance.WithMetrics(a.metrics),
	}
	if backends != nil {
		model := classify.NewModel(backends,
			classify.WithTimeout(cfg.Classifier.Timeout),
			classify.WithTemperature(cfg.Classifier.SamplingTemperature()),
			classify.WithMaxTokens(cfg.Classifier.MaxTokens),
			classify.WithModelMetrics(a.metrics),
		)
		opts = append(opts, enhance.WithModel(model))
	}

	return &engine{
		cfg:       cfg,
		evaluator: enhance.New(a.lib, a.dict, opts...),
		backends:  backends,
	}, nil
}

// buildBackends creates the classifier fallback chain, or returns nil when
// the classifier is disabled.
func (a *App) buildBackends(cc config.ClassifierConfig) (*resilience.LLMFallback, error) {
	if !cc.Enabled {
		return nil, nil
	}

	fbCfg := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:   cc.CircuitBreaker.MaxFailures,
			ResetTimeout:  cc.CircuitBreaker.ResetTimeout,
			HalfOpenMax:   cc.CircuitBreaker.HalfOpenMax,
			OnStateChange: a.onBreakerStateChange,
		},
	}

	primary := a.provider
	if primary == nil {
		p, err := a.createLLM(cc.Provider)
		if err != nil {
			return nil, fmt.Errorf("app: classifier provider: %w", err)
		}
		primary = p
	}
	fb := resilience.NewLLMFallback(primary, backendName(cc.Provider, primary), fbCfg)

	for i, entry := range cc.Fallbacks {
		p, err := a.createLLM(entry)
		if err != nil {
			return nil, fmt.Errorf("app: classifier fallback %d: %w", i, err)
		}
		fb.AddFallback(backendName(entry, p), p)
	}
	return fb, nil
}

func (a *App) createLLM(entry config.ProviderEntry) (llm.Provider, error) {
	if a.registry == nil {
		return nil, fmt.Errorf("%w: %q (no registry)", config.ErrProviderNotRegistered, entry.Name)
	}
	return a.registry.CreateLLM(entry)
}

func (a *App) onBreakerStateChange(name string, from, to resilience.State) {
	a.metrics.RecordCircuitTransition(context.Background(), name, from.String(), to.String())
	slog.Warn("classifier circuit breaker changed state", "backend", name, "from", from, "to", to)
}

// backendName labels a backend for logs, metrics and breaker state. The
// model is included so two entries of the same provider stay distinct.
func backendName(entry config.ProviderEntry, p llm.Provider) string {
	name := entry.Name
	if name == "" {
		name = "classifier"
	}
	if m := p.Model(); m != "" {
		return name + "/" + m
	}
	return name
}

// SlogLevel converts a configured log level to its slog counterpart.
func SlogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
