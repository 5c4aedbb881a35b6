// Package pattern detects multi-word musical constructs in a transcribed
// token sequence.
//
// The [Detector] scans left to right. At each unclaimed index it tries the
// pattern families in a fixed priority, most specific first:
//
//  1. compound chord notation ("4 chord", "minor 7 chord", "flat 9")
//  2. sequential counting ("1 2 3 4", "one two and three four")
//  3. instruction vocabularies: rhythm vocalisations, strumming, note/chord
//     sequences, fingerpicking, timing/metronome, effect sounds
//
// The first family that matches wins, its index range is claimed, and the
// scan resumes after it. Claimed ranges never overlap.
//
// Every family is a pure function over the token slice and the claimed set,
// so each one can be tested on its own. The Detector itself holds no mutable
// state and is safe for concurrent use.
package pattern

import (
	"fmt"
	"strings"

	"github.com/MrWong99/fretscribe/internal/terminology/normalize"
)

// Type tags a detected pattern.
type Type string

const (
	TypeCompound           Type = "compound_musical_term"
	TypeMusicalCountIn     Type = "musical_count_in"
	TypeFourCount          Type = "four_count"
	TypeSequentialCounting Type = "sequential_counting"
	TypeCountStart         Type = "count_start"
	TypeRhythmVocalization Type = "rhythm_vocalization"
	TypeStrumming          Type = "strumming_pattern"
	TypeNoteSequence       Type = "note_sequence"
	TypeFingerpicking      Type = "fingerpicking_pattern"
	TypeTimingInstruction  Type = "timing_instruction"
	TypeEffectSounds       Type = "effect_sounds"
)

// Boost reasons written to boosted tokens, one per family.
const (
	ReasonCompound      = "compound_musical_term"
	ReasonCounting      = "musical_counting_pattern"
	ReasonRhythm        = "rhythm_pattern"
	ReasonStrumming     = "strumming_pattern"
	ReasonNoteSequence  = "note_sequence_pattern"
	ReasonFingerpicking = "fingerpicking_pattern"
	ReasonTiming        = "timing_pattern"
	ReasonEffect        = "effect_sound_pattern"
)

// Pattern is a contiguous, non-overlapping multi-token musical construct.
// Patterns are immutable once detected.
type Pattern struct {
	// Type is the pattern tag.
	Type Type `json:"pattern_type"`

	// Words are the raw token texts covered by the pattern, in order.
	Words []string `json:"words"`

	// StartIndex and EndIndex delimit the covered tokens (inclusive).
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`

	// ConfidenceBoost is the confidence assigned to covered tokens.
	ConfidenceBoost float64 `json:"confidence_boost"`

	// Description is a human-readable summary.
	Description string `json:"description"`

	// Reason is the boost reason written to covered tokens.
	Reason string `json:"boost_reason"`
}

// Len returns the number of tokens covered.
func (p Pattern) Len() int { return p.EndIndex - p.StartIndex + 1 }

// Covers reports whether token index i lies inside the pattern.
func (p Pattern) Covers(i int) bool { return i >= p.StartIndex && i <= p.EndIndex }

// token pairs the raw text with its lookup form.
type token struct {
	raw  string
	norm string
}

// match is what a family returns on success.
type match struct {
	typ    Type
	reason string
	start  int
	end    int
	desc   string
}

// family is one pattern detector. It inspects tokens starting at i and may
// only extend over indices that are not yet claimed.
type family func(toks []token, i int, claimed []bool) (match, bool)

// Detector finds musical patterns in a token sequence.
type Detector struct {
	boost    float64
	families []family
}

// NewDetector returns a [Detector] that assigns boost to every pattern.
func NewDetector(boost float64) *Detector {
	return &Detector{
		boost: boost,
		families: []family{
			matchCompound,
			matchCounting,
			rhythm.match,
			strumming.match,
			noteSequence.match,
			fingerpicking.match,
			timing.match,
			effects.match,
		},
	}
}

// Detect scans words and returns the detected patterns in scan order.
func (d *Detector) Detect(words []string) []Pattern {
	toks := make([]token, len(words))
	for i, w := range words {
		toks[i] = token{raw: w, norm: normalize.Lookup(w)}
	}

	claimed := make([]bool, len(toks))
	var out []Pattern
	for i := 0; i < len(toks); {
		if claimed[i] || toks[i].norm == "" {
			i++
			continue
		}
		m, ok := d.first(toks, i, claimed)
		if !ok {
			i++
			continue
		}
		for j := m.start; j <= m.end; j++ {
			claimed[j] = true
		}
		out = append(out, d.pattern(toks, m))
		i = m.end + 1
	}
	return out
}

func (d *Detector) first(toks []token, i int, claimed []bool) (match, bool) {
	for _, f := range d.families {
		if m, ok := f(toks, i, claimed); ok {
			return m, true
		}
	}
	return match{}, false
}

func (d *Detector) pattern(toks []token, m match) Pattern {
	words := make([]string, 0, m.end-m.start+1)
	for j := m.start; j <= m.end; j++ {
		words = append(words, toks[j].raw)
	}
	return Pattern{
		Type:            m.typ,
		Words:           words,
		StartIndex:      m.start,
		EndIndex:        m.end,
		ConfidenceBoost: d.boost,
		Description:     m.desc,
		Reason:          m.reason,
	}
}

// Index maps every covered token index to the position of its pattern in
// patterns. Indices not covered are absent.
func Index(patterns []Pattern) map[int]int {
	idx := make(map[int]int)
	for pi, p := range patterns {
		for j := p.StartIndex; j <= p.EndIndex; j++ {
			idx[j] = pi
		}
	}
	return idx
}

// free reports whether index j exists and is not claimed.
func free(toks []token, claimed []bool, j int) bool {
	return j >= 0 && j < len(toks) && !claimed[j]
}

func span(toks []token, start, end int) string {
	parts := make([]string, 0, end-start+1)
	for j := start; j <= end; j++ {
		parts = append(parts, toks[j].raw)
	}
	return strings.Join(parts, " ")
}

func describe(label string, toks []token, start, end int) string {
	return fmt.Sprintf("%s: %s", label, span(toks, start, end))
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func in(s map[string]struct{}, w string) bool {
	_, ok := s[w]
	return ok
}
