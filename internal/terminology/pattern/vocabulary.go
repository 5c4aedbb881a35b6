package pattern

import "regexp"

// connectors may join members of a vocabulary run. They are covered when
// they sit between members but never extend a run on their own.
var connectors = set("and", "then", "&", "-", "to")

// vocabulary is an instruction-word family: a run must open with a starter
// and continues over members, ignoring connectors.
type vocabulary struct {
	typ      Type
	reason   string
	label    string
	starters map[string]struct{}
	members  map[string]struct{}
	// accept replaces the set lookups when non-nil.
	accept func(w string) bool
	// anchor, when non-nil, must hold for at least one token of the run.
	anchor func(w string) bool
	minRun int
}

func (v vocabulary) isStarter(w string) bool {
	if v.accept != nil {
		return v.accept(w)
	}
	return in(v.starters, w)
}

func (v vocabulary) isMember(w string) bool {
	if v.accept != nil {
		return v.accept(w)
	}
	return in(v.starters, w) || in(v.members, w)
}

func (v vocabulary) match(toks []token, i int, claimed []bool) (match, bool) {
	if !v.isStarter(toks[i].norm) {
		return match{}, false
	}

	run, end := 1, i
	anchored := v.anchor == nil || v.anchor(toks[i].norm)
	for j := i + 1; free(toks, claimed, j); j++ {
		w := toks[j].norm
		if v.isMember(w) {
			run++
			end = j
			anchored = anchored || v.anchor(w)
			continue
		}
		if in(connectors, w) {
			continue
		}
		break
	}
	if run < v.minRun || !anchored {
		return match{}, false
	}
	return match{
		typ:    v.typ,
		reason: v.reason,
		start:  i,
		end:    end,
		desc:   describe(v.label, toks, i, end),
	}, true
}

var rhythm = vocabulary{
	typ:    TypeRhythmVocalization,
	reason: ReasonRhythm,
	label:  "Rhythm vocalization",
	starters: set(
		"da", "dah", "dum", "dun", "ta", "tah", "ka", "ki",
		"doo", "du", "ba", "bum", "bop", "boom", "dig", "ga", "gah",
		"chka", "tika", "taka",
	),
	members: set("ti", "ah", "uh"),
	minRun:  3,
}

var strumming = vocabulary{
	typ:    TypeStrumming,
	reason: ReasonStrumming,
	label:  "Strumming pattern",
	starters: set(
		"down", "up", "downstroke", "downstrokes", "upstroke", "upstrokes",
		"strum", "strums", "d", "u",
	),
	members: set("mute", "muted", "chuck", "chk", "miss", "rest", "scratch", "slap", "hit"),
	minRun:  3,
}

var noteSequence = vocabulary{
	typ:    TypeNoteSequence,
	reason: ReasonNoteSequence,
	label:  "Note sequence",
	accept: isNoteOrChord,
	anchor: isDistinctNote,
	minRun: 3,
}

var fingerpicking = vocabulary{
	typ:    TypeFingerpicking,
	reason: ReasonFingerpicking,
	label:  "Fingerpicking pattern",
	starters: set(
		"p", "i", "m", "a", "thumb", "index", "middle", "ring", "pinky",
		"pluck", "pinch",
	),
	members: set("plucks", "finger", "fingers", "pick"),
	minRun:  3,
}

var timing = vocabulary{
	typ:    TypeTimingInstruction,
	reason: ReasonTiming,
	label:  "Timing instruction",
	starters: set(
		"click", "clicks", "tick", "tock", "beat", "beats", "bpm", "metronome",
		"tempo", "downbeat", "upbeat", "offbeat", "measure", "measures", "bar", "bars",
	),
	members: set("rest", "hold", "pause"),
	minRun:  3,
}

var effects = vocabulary{
	typ:    TypeEffectSounds,
	reason: ReasonEffect,
	label:  "Effect sounds",
	starters: set(
		"wah", "waah", "wa", "twang", "zing", "chug", "chugga", "djent",
		"brrr", "neow", "vroom", "squeal", "screech", "bwow", "wub",
	),
	minRun: 2,
}

var (
	solfege = set("do", "re", "mi", "fa", "sol", "so", "la", "ti", "si")

	// everydayNotes satisfy the note grammar but are common English words.
	everydayNotes = set("a", "am", "ab", "do", "so")

	// noteName is a letter a-g with an optional accidental, an optional
	// quality or extension suffix and an optional slash bass note.
	noteName = regexp.MustCompile(
		`^[a-g](?:#|b|sharp|flat)?` +
			`(?:maj|min|m|dim|aug|sus|add|dom)?` +
			`(?:2|4|5|6|7|9|11|13)?` +
			`(?:sus2|sus4|add9|add11)?` +
			`(?:/[a-g](?:#|b)?)?$`,
	)
)

// isNoteOrChord reports whether w is a note name, chord symbol or solfège
// syllable.
func isNoteOrChord(w string) bool {
	return in(solfege, w) || noteName.MatchString(w)
}

// isDistinctNote reports whether w is a note token that is not also an
// everyday word. A note sequence needs at least one.
func isDistinctNote(w string) bool {
	return isNoteOrChord(w) && !in(everydayNotes, w)
}
