package classify

// Source names the classification stage that produced a [Result].
type Source string

const (
	SourceCache      Source = "cache"
	SourceLibrary    Source = "library"
	SourceBasicTerm  Source = "basic_term"
	SourceDictionary Source = "dictionary"
	SourceModel      Source = "model"
	SourceDisabled   Source = "disabled"
)

// ModelStatus is the outcome of an external classifier attempt.
type ModelStatus string

const (
	// StatusNone means no external attempt was made.
	StatusNone           ModelStatus = "none"
	StatusOK             ModelStatus = "ok"
	StatusTimedOut       ModelStatus = "timed_out"
	StatusTransportError ModelStatus = "transport_error"
	StatusUnparseable    ModelStatus = "unparseable"
	StatusCircuitOpen    ModelStatus = "circuit_open"
)

// Failed reports whether s is a failed external attempt.
func (s ModelStatus) Failed() bool {
	switch s {
	case StatusTimedOut, StatusTransportError, StatusUnparseable, StatusCircuitOpen:
		return true
	}
	return false
}

// Result is the outcome of one [Classifier.Classify] call. Failures are part
// of the value: IsTerm is false and ModelStatus says why.
type Result struct {
	// IsTerm reports whether the word is guitar terminology.
	IsTerm bool

	// UsedExternal is true when an external classifier request was issued
	// during this call, whatever its outcome.
	UsedExternal bool

	// Source is the stage that decided.
	Source Source

	// Origin is the stage that first produced the outcome. It equals Source
	// except on cache hits, where it names the stage that filled the entry.
	// Entries stored with [Cache.Put] report SourceCache.
	Origin Source

	// ModelStatus is StatusNone unless Source is SourceModel.
	ModelStatus ModelStatus

	// Err is the underlying failure for failed external attempts.
	Err error
}
