package enhance

import (
	"context"

	"github.com/MrWong99/fretscribe/internal/observe"
	"github.com/MrWong99/fretscribe/internal/terminology/pattern"
	"github.com/MrWong99/fretscribe/pkg/transcription"
)

// Per-word fields added to evaluated entries.
const (
	FieldNormalizedForm     = "normalized_form"
	FieldBoosted            = "guitar_term_boosted"
	FieldBoostReason        = "boost_reason"
	FieldPatternType        = "pattern_type"
	FieldPatternDescription = "pattern_description"
)

// update is the write-back for one evaluated observation.
type update struct {
	original   float64
	normalized string

	boosted    bool
	confidence float64
	reason     string
	pattern    *pattern.Pattern
}

func (u update) apply(entry map[string]any) {
	if _, ok := entry[transcription.FieldOriginalConfidence]; !ok {
		entry[transcription.FieldOriginalConfidence] = u.original
	}
	entry[FieldNormalizedForm] = u.normalized
	if !u.boosted {
		return
	}
	transcription.SetConfidence(entry, u.confidence)
	entry[FieldBoosted] = true
	entry[FieldBoostReason] = u.reason
	if u.pattern != nil {
		entry[FieldPatternType] = string(u.pattern.Type)
		entry[FieldPatternDescription] = u.pattern.Description
	}
}

// rewrite writes updates into both word representations of doc. Each
// representation is walked in lock-step with the observation sequence; on a
// length mismatch entries are written up to the shorter length.
func rewrite(ctx context.Context, doc *transcription.Document, n int, updates map[int]update) {
	targets := []struct {
		name    string
		entries []map[string]any
	}{
		{transcription.KeyWordSegments, doc.WordSegments()},
		{transcription.KeySegments, doc.SegmentWords()},
	}
	for _, t := range targets {
		if len(t.entries) == 0 {
			continue
		}
		limit := len(t.entries)
		if limit != n {
			observe.Logger(ctx).Warn("word list length mismatch, writing shared prefix",
				"list", t.name,
				"entries", len(t.entries),
				"observations", n,
			)
			limit = min(limit, n)
		}
		for i, u := range updates {
			if i < limit {
				u.apply(t.entries[i])
			}
		}
	}
}
