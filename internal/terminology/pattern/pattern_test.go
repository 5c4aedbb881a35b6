package pattern_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/fretscribe/internal/terminology/pattern"
)

type span struct {
	typ        pattern.Type
	start, end int
}

func spans(ps []pattern.Pattern) []span {
	out := make([]span, 0, len(ps))
	for _, p := range ps {
		out = append(out, span{p.Type, p.StartIndex, p.EndIndex})
	}
	return out
}

func TestDetect_FourCount(t *testing.T) {
	t.Parallel()

	d := pattern.NewDetector(1.0)
	got := d.Detect([]string{"1", "2", "3", "4"})
	if len(got) != 1 {
		t.Fatalf("Detect returned %d patterns, want 1: %+v", len(got), got)
	}
	p := got[0]
	if p.Type != pattern.TypeFourCount {
		t.Errorf("Type = %q, want %q", p.Type, pattern.TypeFourCount)
	}
	if p.StartIndex != 0 || p.EndIndex != 3 || p.Len() != 4 {
		t.Errorf("range = [%d,%d], want [0,3]", p.StartIndex, p.EndIndex)
	}
	if p.ConfidenceBoost != 1.0 {
		t.Errorf("ConfidenceBoost = %v, want 1.0", p.ConfidenceBoost)
	}
	if p.Reason != pattern.ReasonCounting {
		t.Errorf("Reason = %q, want %q", p.Reason, pattern.ReasonCounting)
	}
}

func TestDetect_RomanNumeralChord(t *testing.T) {
	t.Parallel()

	got := pattern.NewDetector(1.0).Detect([]string{"4", "chord"})
	want := []span{{pattern.TypeCompound, 0, 1}}
	if !slices.Equal(spans(got), want) {
		t.Fatalf("Detect = %+v, want %+v", spans(got), want)
	}
	if got[0].Reason != pattern.ReasonCompound {
		t.Errorf("Reason = %q", got[0].Reason)
	}
	if !slices.Equal(got[0].Words, []string{"4", "chord"}) {
		t.Errorf("Words = %v", got[0].Words)
	}
}

func TestDetect_Families(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		words []string
		want  []span
	}{
		{"quality extension chord", []string{"minor", "7", "chord"}, []span{{pattern.TypeCompound, 0, 2}}},
		{"accidental extension", []string{"flat", "9", "voicing"}, []span{{pattern.TypeCompound, 0, 1}}},
		{"degree word", []string{"the", "seven", "chord"}, []span{{pattern.TypeCompound, 1, 2}}},
		{"add extension", []string{"major", "add9"}, []span{{pattern.TypeCompound, 0, 1}}},
		{"add quality chord", []string{"add", "9", "chord"}, []span{{pattern.TypeCompound, 0, 2}}},
		{"add quality", []string{"add", "11"}, []span{{pattern.TypeCompound, 0, 1}}},

		{"count-in words", []string{"one", "two", "three", "four", "five"}, []span{{pattern.TypeMusicalCountIn, 0, 4}}},
		{"count-in with jump", []string{"1", "3", "5", "7"}, []span{{pattern.TypeMusicalCountIn, 0, 3}}},
		{"fillers covered", []string{"1", "and", "2", "and", "3"}, []span{{pattern.TypeSequentialCounting, 0, 4}}},
		{"sequential", []string{"count", "3", "4", "5"}, []span{{pattern.TypeSequentialCounting, 1, 3}}},
		{"trailing filler excluded", []string{"2", "3", "4", "and"}, []span{{pattern.TypeSequentialCounting, 0, 2}}},
		{"descending is not a count", []string{"5", "4", "3"}, nil},
		{"count start", []string{"1", "2", "go"}, []span{{pattern.TypeCountStart, 0, 1}}},
		{"count start later starter", []string{"1", "2", "we", "are", "ready"}, []span{{pattern.TypeCountStart, 0, 1}}},
		{"pair without starter", []string{"1", "2", "apples"}, nil},
		{"years are not counts", []string{"in", "2019", "2020", "2021"}, nil},
		{"twenty is the largest count", []string{"18", "19", "20", "21"}, []span{{pattern.TypeSequentialCounting, 0, 2}}},
		{
			"count reaches ten tokens ahead",
			[]string{"1", "2", "um", "um", "um", "um", "um", "um", "um", "3", "4", "5"},
			[]span{{pattern.TypeFourCount, 0, 10}},
		},
		{"count start five tokens ahead", []string{"1", "2", "we", "will", "soon", "get", "ready"}, []span{{pattern.TypeCountStart, 0, 1}}},
		{"count start six tokens ahead", []string{"1", "2", "we", "will", "very", "soon", "get", "ready"}, nil},

		{"strumming", []string{"down", "down", "up", "and", "up"}, []span{{pattern.TypeStrumming, 0, 4}}},
		{"strumming trailing connector", []string{"down", "up", "down", "and", "then"}, []span{{pattern.TypeStrumming, 0, 2}}},
		{"strumming too short", []string{"down", "up", "now"}, nil},
		{"chord names", []string{"C", "G", "Am", "F"}, []span{{pattern.TypeNoteSequence, 0, 3}}},
		{"sharps and slash chords", []string{"F#m", "to", "D/F#", "to", "E7"}, []span{{pattern.TypeNoteSequence, 0, 4}}},
		{"solfege", []string{"do", "re", "mi"}, []span{{pattern.TypeNoteSequence, 0, 2}}},
		{"everyday words are not notes", []string{"so", "do", "a", "lesson"}, nil},
		{"everyday words inside notes", []string{"a", "E", "am"}, []span{{pattern.TypeNoteSequence, 0, 2}}},
		{"fingerpicking", []string{"p", "i", "m", "a"}, []span{{pattern.TypeFingerpicking, 0, 3}}},
		{"fingerpicking names", []string{"thumb", "index", "middle"}, []span{{pattern.TypeFingerpicking, 0, 2}}},
		{"rhythm", []string{"da", "da", "dum"}, []span{{pattern.TypeRhythmVocalization, 0, 2}}},
		{"timing", []string{"tick", "tock", "tick"}, []span{{pattern.TypeTimingInstruction, 0, 2}}},
		{"effects pair", []string{"wah", "wah"}, []span{{pattern.TypeEffectSounds, 0, 1}}},
		{"single effect", []string{"wah"}, nil},

		{"plain sentence", []string{"I", "play", "a", "song", "for", "you"}, nil},
		{"empty", nil, nil},
	}

	d := pattern.NewDetector(1.0)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := spans(d.Detect(tc.words))
			if !slices.Equal(got, tc.want) {
				t.Errorf("Detect(%v) = %+v, want %+v", tc.words, got, tc.want)
			}
		})
	}
}

func TestDetect_NonOverlappingScanOrder(t *testing.T) {
	t.Parallel()

	words := []string{"1", "2", "3", "4", "chord", "then", "down", "up", "down", "C", "G", "D"}
	got := pattern.NewDetector(0.9).Detect(words)

	want := []span{
		{pattern.TypeFourCount, 0, 3},
		{pattern.TypeStrumming, 6, 8},
		{pattern.TypeNoteSequence, 9, 11},
	}
	if !slices.Equal(spans(got), want) {
		t.Fatalf("Detect = %+v, want %+v", spans(got), want)
	}

	for i := 1; i < len(got); i++ {
		if got[i].StartIndex <= got[i-1].EndIndex {
			t.Errorf("pattern %d [%d,%d] overlaps previous [%d,%d]",
				i, got[i].StartIndex, got[i].EndIndex, got[i-1].StartIndex, got[i-1].EndIndex)
		}
	}
	for _, p := range got {
		if p.ConfidenceBoost != 0.9 {
			t.Errorf("%s boost = %v, want 0.9", p.Type, p.ConfidenceBoost)
		}
	}
}

func TestDetect_RawWordsPreserved(t *testing.T) {
	t.Parallel()

	got := pattern.NewDetector(1.0).Detect([]string{"Down,", "down", "UP!"})
	if len(got) != 1 || got[0].Type != pattern.TypeStrumming {
		t.Fatalf("Detect = %+v", got)
	}
	if !slices.Equal(got[0].Words, []string{"Down,", "down", "UP!"}) {
		t.Errorf("Words = %v, want raw token text", got[0].Words)
	}
	if got[0].Description == "" {
		t.Error("Description is empty")
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	ps := pattern.NewDetector(1.0).Detect([]string{"x", "4", "chord", "y", "wah", "wah"})
	idx := pattern.Index(ps)

	want := map[int]int{1: 0, 2: 0, 4: 1, 5: 1}
	if len(idx) != len(want) {
		t.Fatalf("Index = %v, want %v", idx, want)
	}
	for k, v := range want {
		if idx[k] != v {
			t.Errorf("Index[%d] = %d, want %d", k, idx[k], v)
		}
	}
	if !ps[0].Covers(2) || ps[0].Covers(3) {
		t.Error("Covers disagrees with range")
	}
}
