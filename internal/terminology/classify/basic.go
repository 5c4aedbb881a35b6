package classify

// basicTerms are accepted even when the configured library lacks them. The
// set is consulted before the common-word filter because several of these
// are also ordinary English.
var basicTerms = map[string]struct{}{
	"guitar": {}, "guitars": {}, "bass": {}, "string": {}, "strings": {},
	"chord": {}, "chords": {}, "fret": {}, "frets": {}, "capo": {},
	"pick": {}, "picking": {}, "strum": {}, "strumming": {}, "riff": {},
	"scale": {}, "scales": {}, "note": {}, "notes": {}, "tab": {},
	"tuning": {}, "amp": {}, "pedal": {}, "neck": {}, "bridge": {},
	"nut": {}, "saddle": {}, "pickup": {}, "pickups": {}, "solo": {},
	"lick": {}, "licks": {}, "bend": {}, "slide": {}, "vibrato": {},
	"barre": {}, "octave": {}, "interval": {}, "tempo": {}, "rhythm": {},
	"melody": {}, "harmony": {}, "acoustic": {}, "electric": {},
}

func isBasicTerm(normalized string) bool {
	_, ok := basicTerms[normalized]
	return ok
}
