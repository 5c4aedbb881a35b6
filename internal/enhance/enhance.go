// Package enhance raises the confidence of guitar terminology in word-level
// transcription documents.
//
// An [Evaluator] runs one document at a time through four steps:
//
//  1. extract the word observations from the document,
//  2. detect multi-word musical patterns over all words and boost the
//     low-confidence words they cover,
//  3. classify every remaining low-confidence word on its own,
//  4. write the boosts back into both word representations and attach a
//     [Report].
//
// Enhancement is best effort. It never returns an error; an unexpected
// internal failure yields the input document unchanged.
//
// The Evaluator holds only read-only configuration and shared read-only
// capabilities. Every call to [Evaluator.Enhance] builds its own classifier
// and cache, so one Evaluator may serve concurrent documents.
package enhance

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/fretscribe/internal/observe"
	"github.com/MrWong99/fretscribe/internal/terminology/classify"
	"github.com/MrWong99/fretscribe/internal/terminology/dictionary"
	"github.com/MrWong99/fretscribe/internal/terminology/library"
	"github.com/MrWong99/fretscribe/internal/terminology/normalize"
	"github.com/MrWong99/fretscribe/internal/terminology/pattern"
	"github.com/MrWong99/fretscribe/pkg/transcription"
)

const (
	// Version is reported as evaluator_version.
	Version = "2.1.0"

	// MetadataKey is the top-level document key holding the [Report].
	MetadataKey = "guitar_terminology_evaluation"

	DefaultThreshold     = 0.75
	DefaultBoostTarget   = 1.0
	DefaultContextWindow = 3
)

// ReasonTerminology is the boost reason for individually classified words.
const ReasonTerminology = "guitar_terminology"

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithModel enables the external classifier.
func WithModel(m *classify.Model) Option {
	return func(e *Evaluator) { e.model = m }
}

// WithThreshold sets the confidence below which words are evaluated.
// Default: 0.75.
func WithThreshold(t float64) Option {
	return func(e *Evaluator) { e.threshold = t }
}

// WithBoostTarget sets the confidence assigned to confirmed terminology.
// Default: 1.0.
func WithBoostTarget(t float64) Option {
	return func(e *Evaluator) { e.boostTarget = t }
}

// WithContextWindow sets how many neighbouring words on each side are sent
// with an external classifier query. Default: 3.
func WithContextWindow(n int) Option {
	return func(e *Evaluator) {
		if n >= 0 {
			e.window = n
		}
	}
}

// WithMetrics records run metrics on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Evaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator enhances transcription documents.
type Evaluator struct {
	lib      library.Library
	filter   *dictionary.Filter
	detector *pattern.Detector
	model    *classify.Model

	threshold   float64
	boostTarget float64
	window      int

	metrics *observe.Metrics
	now     func() time.Time
}

// New returns an [Evaluator] over the given library and dictionary. Nil
// capabilities use their built-in fallbacks.
func New(lib library.Library, dict dictionary.Dictionary, opts ...Option) *Evaluator {
	if lib == nil {
		lib = library.NewBuiltin()
	}
	e := &Evaluator{
		lib:         lib,
		filter:      dictionary.NewFilter(dict),
		threshold:   DefaultThreshold,
		boostTarget: DefaultBoostTarget,
		window:      DefaultContextWindow,
		metrics:     observe.DefaultMetrics(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.detector = pattern.NewDetector(e.boostTarget)
	return e
}

// Enhance returns an enhanced copy of doc and the run report. doc itself is
// never modified. If the run panics, Enhance logs the failure and returns
// doc with a nil report.
func (e *Evaluator) Enhance(ctx context.Context, doc *transcription.Document) (out *transcription.Document, rep *Report) {
	defer func() {
		if r := recover(); r != nil {
			observe.Logger(ctx).Error("enhance: run failed, returning original document",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out, rep = doc, nil
		}
	}()

	runID := uuid.NewString()
	ctx = observe.WithRunID(ctx, runID)
	ctx, span := observe.StartSpan(ctx, "enhance.document")
	defer span.End()

	e.metrics.ActiveRuns.Add(ctx, 1)
	defer e.metrics.ActiveRuns.Add(ctx, -1)

	start := e.now()
	out = doc.Clone()
	rep = e.run(ctx, out, runID, start)
	rep.DurationSeconds = e.now().Sub(start).Seconds()
	out.SetMetadata(MetadataKey, rep)

	e.metrics.EnhanceDuration.Record(ctx, rep.DurationSeconds)
	span.SetAttributes(
		attribute.String("run_id", rep.RunID),
		attribute.Int("words.total", rep.TotalWords),
		attribute.Int("words.evaluated", rep.WordsEvaluated),
		attribute.Int("words.boosted", rep.BoostedPattern+rep.BoostedTerminology),
	)
	observe.Logger(ctx).Info("enhancement complete",
		"total_words", rep.TotalWords,
		"evaluated", rep.WordsEvaluated,
		"boosted_pattern", rep.BoostedPattern,
		"boosted_terminology", rep.BoostedTerminology,
		"patterns", rep.PatternsFound,
		"classifier_calls", rep.Classifier.Calls,
		"duration", time.Duration(rep.DurationSeconds*float64(time.Second)),
	)
	return out, rep
}

func (e *Evaluator) run(ctx context.Context, doc *transcription.Document, runID string, start time.Time) *Report {
	rep := newReport(runID, start, e.threshold, e.boostTarget)
	rep.Library = e.lib.Stats()
	rep.Dictionary = DictionaryReport{Type: e.filter.Dictionary().Name()}

	var copts []classify.Option
	if e.model != nil {
		copts = append(copts, classify.WithModel(e.model))
	}
	cl := classify.New(e.lib, e.filter, copts...)
	defer func() { rep.Classifier = classifierReport(cl) }()

	obs := transcription.Extract(doc)
	rep.TotalWords = len(obs)
	if len(obs) == 0 {
		return rep
	}
	words := transcription.Words(obs)

	rep.Patterns = e.detectPatterns(ctx, words)
	rep.PatternsFound = len(rep.Patterns)
	claimed := pattern.Index(rep.Patterns)

	updates := make(map[int]update)
	for i, o := range obs {
		if o.Confidence >= e.threshold {
			continue
		}
		rep.WordsEvaluated++

		u := update{original: o.OriginalConfidence, normalized: normalize.Lookup(o.Word)}
		enh := Enhancement{
			Index:              i,
			Word:               o.Word,
			NormalizedForm:     u.normalized,
			OriginalConfidence: o.OriginalConfidence,
		}

		if pi, ok := claimed[i]; ok {
			p := &rep.Patterns[pi]
			u.reason, u.pattern = p.Reason, p
			enh.BoostReason, enh.PatternType, enh.PatternIndex = p.Reason, p.Type, &pi
		} else {
			res := cl.Classify(ctx, o.Word, e.contextWindow(words, i))
			if res.Origin == classify.SourceDictionary {
				rep.DictionaryFiltered++
			}
			if res.IsTerm {
				u.reason = ReasonTerminology
				enh.BoostReason = ReasonTerminology
			}
		}

		if u.reason != "" && e.boostTarget > o.Confidence {
			u.boosted, u.confidence = true, e.boostTarget
			enh.NewConfidence = e.boostTarget
			rep.addBoost(enh)
			e.metrics.RecordBoost(ctx, u.reason)
		} else {
			rep.Unchanged++
		}
		updates[i] = u
	}

	rewrite(ctx, doc, len(obs), updates)

	e.metrics.WordsEvaluated.Add(ctx, int64(rep.WordsEvaluated))
	e.metrics.DictionaryFiltered.Add(ctx, int64(rep.DictionaryFiltered))
	return rep
}

func (e *Evaluator) detectPatterns(ctx context.Context, words []string) []pattern.Pattern {
	_, span := observe.StartSpan(ctx, "enhance.patterns",
		trace.WithAttributes(attribute.Int("words", len(words))),
	)
	defer span.End()

	ps := e.detector.Detect(words)
	for _, p := range ps {
		e.metrics.RecordPattern(ctx, string(p.Type))
	}
	if ps == nil {
		ps = []pattern.Pattern{}
	}
	span.SetAttributes(attribute.Int("patterns", len(ps)))
	return ps
}

// contextWindow returns the raw words within e.window positions of i,
// including the word itself.
func (e *Evaluator) contextWindow(words []string, i int) []string {
	lo := max(0, i-e.window)
	hi := min(len(words), i+e.window+1)
	return words[lo:hi]
}

func classifierReport(cl *classify.Classifier) ClassifierReport {
	st := cl.Stats()
	return ClassifierReport{
		Enabled:     cl.Enabled(),
		Model:       cl.ModelName(),
		Calls:       st.Calls,
		Positives:   st.Positives,
		Failures:    st.Failures,
		CacheHits:   st.CacheHits,
		LibraryHits: st.LibraryHits,
		BasicHits:   st.BasicHits,
		CacheSize:   cl.CacheSize(),
	}
}
