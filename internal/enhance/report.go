package enhance

import (
	"time"

	"github.com/MrWong99/fretscribe/internal/terminology/library"
	"github.com/MrWong99/fretscribe/internal/terminology/pattern"
)

// Report summarises one enhancement run. It is attached to the output
// document under [MetadataKey].
type Report struct {
	EvaluatorVersion    string    `json:"evaluator_version"`
	RunID               string    `json:"run_id"`
	EvaluatedAt         time.Time `json:"evaluated_at"`
	DurationSeconds     float64   `json:"duration_seconds"`
	ConfidenceThreshold float64   `json:"confidence_threshold"`
	BoostTarget         float64   `json:"boost_target"`

	// TotalWords is the number of extracted observations.
	TotalWords int `json:"total_words"`

	// WordsEvaluated counts observations below the threshold.
	WordsEvaluated int `json:"words_evaluated"`

	BoostedTerminology int            `json:"boosted_terminology"`
	BoostedPattern     int            `json:"boosted_pattern"`
	BoostedByReason    map[string]int `json:"boosted_by_reason"`

	// Unchanged counts evaluated observations that were not boosted.
	Unchanged int `json:"unchanged"`

	DictionaryFiltered int               `json:"dictionary_filtered"`
	PatternsFound      int               `json:"patterns_found"`
	Patterns           []pattern.Pattern `json:"patterns"`

	Classifier   ClassifierReport `json:"classifier"`
	Library      library.Stats    `json:"library"`
	Dictionary   DictionaryReport `json:"dictionary"`
	Enhancements []Enhancement    `json:"enhancements"`
}

// ClassifierReport carries classifier usage for one run.
type ClassifierReport struct {
	Enabled     bool   `json:"enabled"`
	Model       string `json:"model,omitempty"`
	Calls       int    `json:"calls"`
	Positives   int    `json:"positives"`
	Failures    int    `json:"failures"`
	CacheHits   int    `json:"cache_hits"`
	LibraryHits int    `json:"library_hits"`
	BasicHits   int    `json:"basic_hits"`
	CacheSize   int    `json:"cache_size"`
}

// DictionaryReport names the dictionary capability in use.
type DictionaryReport struct {
	Type string `json:"type"`
}

// Enhancement records one boosted observation.
type Enhancement struct {
	Index              int          `json:"index"`
	Word               string       `json:"word"`
	NormalizedForm     string       `json:"normalized_form"`
	OriginalConfidence float64      `json:"original_confidence"`
	NewConfidence      float64      `json:"new_confidence"`
	BoostReason        string       `json:"boost_reason"`
	PatternType        pattern.Type `json:"pattern_type,omitempty"`

	// PatternIndex is the position in [Report.Patterns], or nil for
	// individually classified words.
	PatternIndex *int `json:"pattern_index,omitempty"`
}

func newReport(runID string, at time.Time, threshold, target float64) *Report {
	return &Report{
		EvaluatorVersion:    Version,
		RunID:               runID,
		EvaluatedAt:         at.UTC(),
		ConfidenceThreshold: threshold,
		BoostTarget:         target,
		BoostedByReason:     map[string]int{},
		Patterns:            []pattern.Pattern{},
		Enhancements:        []Enhancement{},
	}
}

func (r *Report) addBoost(e Enhancement) {
	if e.PatternIndex != nil {
		r.BoostedPattern++
	} else {
		r.BoostedTerminology++
	}
	r.BoostedByReason[e.BoostReason]++
	r.Enhancements = append(r.Enhancements, e)
}
