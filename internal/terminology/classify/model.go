package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/fretscribe/internal/observe"
	"github.com/MrWong99/fretscribe/internal/resilience"
	"github.com/MrWong99/fretscribe/pkg/provider/llm"
)

const (
	DefaultTimeout     = 5 * time.Second
	defaultTemperature = 0.1
	defaultMaxTokens   = 5
)

// systemPrompt instructs the model to answer with a single word.
const systemPrompt = `You are an expert guitar teacher reviewing a speech transcription of a guitar lesson.

Decide whether the given word, as used in its context, is guitar or music terminology: a technique, a chord or note name, a piece of equipment, a musical concept, or a counting or rhythm vocalisation.

Answer with exactly one word: YES or NO.`

// ModelOption configures a [Model].
type ModelOption func(*Model)

// WithTimeout bounds each request. Default: 5s.
func WithTimeout(d time.Duration) ModelOption {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTemperature overrides the sampling temperature. Default: 0.1.
func WithTemperature(t float64) ModelOption {
	return func(m *Model) { m.temperature = t }
}

// WithMaxTokens overrides the output token limit. Default: 5.
func WithMaxTokens(n int) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.maxTokens = n
		}
	}
}

// WithModelMetrics records request outcomes on mt instead of
// [observe.DefaultMetrics].
func WithModelMetrics(mt *observe.Metrics) ModelOption {
	return func(m *Model) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// Model is the external yes/no terminology classifier. Each query is one
// bounded [llm.Provider.Complete] call; failures are never retried here.
// Breakers and backend fallback live in the provider, normally a
// [resilience.LLMFallback].
//
// Model is stateless apart from its configuration and safe for concurrent
// use.
type Model struct {
	provider    llm.Provider
	timeout     time.Duration
	temperature float64
	maxTokens   int
	metrics     *observe.Metrics
}

// NewModel returns a [Model] backed by provider.
func NewModel(provider llm.Provider, opts ...ModelOption) *Model {
	m := &Model{
		provider:    provider,
		timeout:     DefaultTimeout,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		metrics:     observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Name returns the model identifier of the underlying provider.
func (m *Model) Name() string { return m.provider.Model() }

// Classify asks whether word is terminology given the surrounding raw
// tokens. Any failure yields false with a failed status and the cause.
func (m *Model) Classify(ctx context.Context, word string, window []string) (bool, ModelStatus, error) {
	ctx, span := observe.StartSpan(ctx, "classify.model",
		trace.WithAttributes(attribute.String("word", word)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	resp, err := m.provider.Complete(ctx, m.request(word, window))
	elapsed := time.Since(start)

	var (
		isTerm bool
		status ModelStatus
	)
	switch {
	case err != nil:
		status = statusOf(err)
		err = fmt.Errorf("classify: model %s: %w", m.Name(), err)
	case resp == nil:
		status = StatusUnparseable
		err = fmt.Errorf("classify: model %s: empty response", m.Name())
	default:
		var ok bool
		isTerm, ok = parseAnswer(resp.Content)
		status = StatusOK
		if !ok {
			status = StatusUnparseable
			err = fmt.Errorf("classify: model %s: unparseable answer %q", m.Name(), resp.Content)
		}
	}

	m.metrics.RecordClassifierRequest(ctx, m.Name(), string(status), elapsed)
	span.SetAttributes(attribute.String("status", string(status)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(status))
		observe.Logger(ctx).Warn("classifier request failed",
			"word", word,
			"model", m.Name(),
			"status", status,
			"duration", elapsed,
			"err", err,
		)
	}
	return isTerm, status, err
}

func (m *Model) request(word string, window []string) llm.CompletionRequest {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Word: %q\n", word)
	if len(window) > 0 {
		fmt.Fprintf(&sb, "Context: %q\n", strings.Join(window, " "))
	}
	sb.WriteString("Is this word guitar terminology?")

	return llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		Temperature:  m.temperature,
		MaxTokens:    m.maxTokens,
	}
}

// parseAnswer accepts only answers whose trimmed, upper-cased text starts
// with YES or NO.
func parseAnswer(content string) (isTerm, ok bool) {
	a := strings.ToUpper(strings.TrimSpace(content))
	switch {
	case strings.HasPrefix(a, "YES"):
		return true, true
	case strings.HasPrefix(a, "NO"):
		return false, true
	default:
		return false, false
	}
}

func statusOf(err error) ModelStatus {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut
	case errors.Is(err, resilience.ErrCircuitOpen):
		return StatusCircuitOpen
	default:
		return StatusTransportError
	}
}
