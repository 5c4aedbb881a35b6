package library

// builtinTerms is the core vocabulary available without a curated
// collection.
var builtinTerms = []string{
	"chord", "chords", "fret", "frets", "fretboard", "capo", "pick", "plectrum",
	"strum", "strumming", "riff", "riffs", "scale", "scales", "arpeggio",
	"arpeggios", "barre", "hammer-on", "pull-off", "bend", "vibrato", "slide",
	"legato", "tremolo", "harmonics", "fingerpicking", "fingerstyle", "tablature",
	"tab", "pentatonic", "tuning", "tuner", "distortion", "overdrive", "amp",
}

// Builtin is the fallback [Library] holding only builtinTerms.
type Builtin struct {
	set *termSet
}

var _ Library = (*Builtin)(nil)

// NewBuiltin returns the built-in fallback library.
func NewBuiltin() *Builtin {
	s := newTermSet()
	for _, t := range builtinTerms {
		s.add("", t)
	}
	return &Builtin{set: s}
}

// IsTerm implements [Library].
func (b *Builtin) IsTerm(normalized string) bool { return b.set.has(normalized) }

// Stats implements [Library].
func (b *Builtin) Stats() Stats {
	return Stats{TotalTerms: len(b.set.terms), Type: string(SourceBuiltin)}
}
