package dictionary

import (
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/fretscribe/internal/terminology/normalize"
)

// contractionSuffixes maps the part after the apostrophe to its candidate
// expansions. A contraction is common when any candidate works.
var contractionSuffixes = map[string][]string{
	"s":  {"is", "has"},
	"re": {"are"},
	"ll": {"will"},
	"d":  {"would", "had"},
	"ve": {"have"},
	"t":  {"not"},
	"m":  {"am"},
}

// irregularNegations cover n't forms whose base does not survive dropping
// the trailing "n".
var irregularNegations = map[string][]string{
	"can't":   {"can", "not"},
	"won't":   {"will", "not"},
	"shan't":  {"shall", "not"},
	"ain't":   {"am", "not"},
	"y'all":   {"you", "all"},
	"let's":   {"let", "us"},
	"o'clock": {"of", "the", "clock"},
}

// compoundTerms are hyphen/underscore compounds that are guitar vocabulary
// even though every part is an ordinary English word.
var compoundTerms = toSet(
	"hammer-on", "hammer-ons", "hammer-off", "pull-off", "pull-offs", "pull-on",
	"palm-mute", "palm-muted", "palm-muting", "finger-picking", "finger-style",
	"flat-picking", "cross-picking", "hybrid-picking", "tremolo-picking",
	"alternate-picking", "economy-picking", "sweep-picking", "double-stop",
	"double-stops", "power-chord", "power-chords", "barre-chord", "open-chord",
	"drop-d", "half-step", "whole-step", "slide-up", "slide-down",
	"pinch-harmonic", "pinch-harmonics", "walk-up", "walk-down", "tap-on",
	"call-and-response", "twelve-bar", "12-bar", "one-four-five", "up-stroke",
	"down-stroke", "chord-progression", "pick-up", "chicken-picking",
	"string-skipping", "legato-run", "whammy-bar", "dive-bomb",
)

// Filter decides whether a token is ordinary English. It is the
// CommonWordFilter of the classification chain: tokens it accepts are never
// sent to the external classifier.
//
// Filter is read-only after construction and safe for concurrent use when
// its [Dictionary] is.
type Filter struct {
	dict Dictionary
}

// NewFilter returns a [Filter] backed by dict. A nil dict uses [Fallback].
func NewFilter(dict Dictionary) *Filter {
	if dict == nil {
		dict = Fallback{}
	}
	return &Filter{dict: dict}
}

// Dictionary returns the capability the filter consults.
func (f *Filter) Dictionary() Dictionary { return f.dict }

// IsCommon reports whether word is ordinary English. The checks run in order:
// very short tokens, contractions, hyphen/underscore compounds, and finally a
// plain dictionary lookup.
func (f *Filter) IsCommon(word string) bool {
	w := normalize.Lookup(word)
	n := utf8.RuneCountInString(w)
	if n < 2 {
		return true
	}

	if strings.Contains(w, "'") && n > 2 {
		return f.isCommonContraction(w)
	}

	if strings.ContainsAny(w, "-_") && n > 3 {
		return f.isCommonCompound(w)
	}

	return f.known(w)
}

// IsCompoundTerm reports whether word is one of the known guitar compounds,
// with "_" treated like "-".
func IsCompoundTerm(word string) bool {
	w := strings.ReplaceAll(normalize.Lookup(word), "_", "-")
	_, ok := compoundTerms[w]
	return ok
}

func (f *Filter) isCommonContraction(w string) bool {
	if parts, ok := irregularNegations[w]; ok {
		return f.allKnown(parts...)
	}

	base, suffix, _ := strings.Cut(w, "'")
	expansions, ok := contractionSuffixes[suffix]
	if !ok {
		// Possessives and other unknown suffixes fall back to the base.
		return base != "" && f.known(base)
	}

	if suffix == "t" {
		base = strings.TrimSuffix(base, "n")
	}
	if base == "" {
		return false
	}
	for _, exp := range expansions {
		if f.allKnown(base, exp) {
			return true
		}
	}
	return false
}

func (f *Filter) isCommonCompound(w string) bool {
	if IsCompoundTerm(w) {
		return false
	}

	raw := strings.FieldsFunc(w, func(r rune) bool { return r == '-' || r == '_' })
	parts := raw[:0]
	for _, p := range raw {
		if utf8.RuneCountInString(p) > 1 {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return false
	}
	return f.allKnown(parts...)
}

func (f *Filter) allKnown(words ...string) bool {
	for _, w := range words {
		if !f.known(w) {
			return false
		}
	}
	return true
}

func (f *Filter) known(w string) bool {
	return f.dict.IsKnownWord(w)
}
