package pattern

import "regexp"

var (
	// chordNumbers are scale-degree references that precede "chord".
	chordNumbers = set(
		"i", "ii", "iii", "iv", "v", "vi", "vii",
		"1", "2", "3", "4", "5", "6", "7",
		"one", "two", "three", "four", "five", "six", "seven",
	)

	chordQualities = set(
		"major", "minor", "maj", "min", "dominant", "dom", "add",
		"diminished", "dim", "augmented", "aug", "sus", "suspended",
		"half-diminished",
	)

	accidentals = set("flat", "sharp", "natural")

	extensions = set(
		"2", "4", "5", "6", "7", "9", "11", "13",
		"two", "four", "five", "six", "seven", "nine", "eleven", "thirteen",
		"second", "fourth", "fifth", "sixth", "seventh", "ninth", "eleventh", "thirteenth",
		"2nd", "4th", "5th", "6th", "7th", "9th", "11th", "13th",
	)

	addExtension = regexp.MustCompile(`^add(2|4|9|11|13)$`)
)

func isExtension(w string) bool {
	return in(extensions, w) || addExtension.MatchString(w)
}

// matchCompound recognises two- and three-token chord notation:
// "<degree> chord", "<quality> <extension> [chord]" and
// "<accidental> <extension> [chord]".
func matchCompound(toks []token, i int, claimed []bool) (match, bool) {
	if !free(toks, claimed, i+1) {
		return match{}, false
	}
	first, second := toks[i].norm, toks[i+1].norm

	if in(chordNumbers, first) && second == "chord" {
		return match{
			typ:    TypeCompound,
			reason: ReasonCompound,
			start:  i,
			end:    i + 1,
			desc:   describe("Chord degree reference", toks, i, i+1),
		}, true
	}

	var label string
	switch {
	case in(chordQualities, first) && isExtension(second):
		label = "Chord quality with extension"
	case in(accidentals, first) && isExtension(second):
		label = "Altered chord extension"
	default:
		return match{}, false
	}

	end := i + 1
	if free(toks, claimed, i+2) && toks[i+2].norm == "chord" {
		end = i + 2
	}
	return match{
		typ:    TypeCompound,
		reason: ReasonCompound,
		start:  i,
		end:    end,
		desc:   describe(label, toks, i, end),
	}, true
}
