package transcription

import (
	"encoding/json"
	"strconv"
)

// Per-word field names.
const (
	FieldWord               = "word"
	FieldStart              = "start"
	FieldEnd                = "end"
	FieldScore              = "score"
	FieldConfidence         = "confidence"
	FieldOriginalConfidence = "original_confidence"
)

// Observation is one transcribed word with timing and confidence.
type Observation struct {
	// Word is the raw token text as produced by the transcriber.
	Word string

	// Start and End are the token timestamps in seconds.
	Start float64
	End   float64

	// Confidence is the current confidence in [0, 1].
	Confidence float64

	// OriginalConfidence is the confidence before any enhancement. It is
	// captured once at extraction and never overwritten.
	OriginalConfidence float64
}

// Extract reads the document's words into an ordered observation sequence.
//
// The flat "word_segments" list is preferred; when it is absent or empty the
// nested "segments[].words[]" list is used instead. Missing collections yield
// nil. Missing per-entry fields default to "" or 0. Extract never mutates d.
func Extract(d *Document) []Observation {
	entries := d.WordSegments()
	if len(entries) == 0 {
		entries = d.SegmentWords()
	}
	if len(entries) == 0 {
		return nil
	}

	obs := make([]Observation, len(entries))
	for i, e := range entries {
		word, _ := e[FieldWord].(string)
		conf, _ := ConfidenceOf(e)
		orig := conf
		if v, ok := number(e[FieldOriginalConfidence]); ok {
			orig = v
		}
		start, _ := number(e[FieldStart])
		end, _ := number(e[FieldEnd])
		obs[i] = Observation{
			Word:               word,
			Start:              start,
			End:                end,
			Confidence:         conf,
			OriginalConfidence: orig,
		}
	}
	return obs
}

// Words returns the raw token texts of obs.
func Words(obs []Observation) []string {
	out := make([]string, len(obs))
	for i, o := range obs {
		out[i] = o.Word
	}
	return out
}

// ConfidenceOf returns the confidence stored in entry under "score" or, if
// absent, "confidence". ok is false when neither holds a number.
func ConfidenceOf(entry map[string]any) (float64, bool) {
	if v, ok := number(entry[FieldScore]); ok {
		return v, true
	}
	return number(entry[FieldConfidence])
}

// SetConfidence writes v to every confidence field present in entry. When
// neither "score" nor "confidence" exists, "confidence" is created.
func SetConfidence(entry map[string]any, v float64) {
	wrote := false
	for _, k := range []string{FieldScore, FieldConfidence} {
		if _, ok := entry[k]; ok {
			entry[k] = v
			wrote = true
		}
	}
	if !wrote {
		entry[FieldConfidence] = v
	}
}

// number converts a decoded JSON scalar into a float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
