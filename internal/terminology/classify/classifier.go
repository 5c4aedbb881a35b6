// Package classify decides whether a single transcribed word is guitar
// terminology.
//
// A [Classifier] consults, in order: the run [Cache], the curated
// [library.Library], a small built-in basic term set, the
// [dictionary.Filter] (common English is rejected without an external call),
// and finally the optional external [Model]. The first stage that decides
// wins. Outcomes are cached under the word's cache-key form, except when
// the external model is disabled.
//
// A Classifier and its Cache belong to one enhancement run and are not safe
// for concurrent use. The library, filter and model they wrap are.
package classify

import (
	"context"

	"github.com/MrWong99/fretscribe/internal/terminology/dictionary"
	"github.com/MrWong99/fretscribe/internal/terminology/library"
	"github.com/MrWong99/fretscribe/internal/terminology/normalize"
)

// Stats counts classifier activity over a run.
type Stats struct {
	// Calls is the number of external classifier requests issued.
	Calls int

	// Positives is the number of external requests answered YES.
	Positives int

	// Failures is the number of external requests that timed out, errored,
	// hit an open circuit or returned an unparseable answer.
	Failures int

	CacheHits          int
	LibraryHits        int
	BasicHits          int
	DictionaryFiltered int

	// Disabled counts words that would have been sent to the external
	// classifier had one been configured.
	Disabled int
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithModel enables the external classifier stage.
func WithModel(m *Model) Option {
	return func(c *Classifier) { c.model = m }
}

// WithCache makes the classifier share cache instead of allocating its own.
func WithCache(cache *Cache) Option {
	return func(c *Classifier) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// Classifier runs the classification chain for one run.
type Classifier struct {
	lib    library.Library
	filter *dictionary.Filter
	model  *Model
	cache  *Cache
	stats  Stats
}

// New returns a [Classifier] over lib and filter. A nil lib uses
// [library.NewBuiltin]; a nil filter uses the fallback dictionary.
func New(lib library.Library, filter *dictionary.Filter, opts ...Option) *Classifier {
	if lib == nil {
		lib = library.NewBuiltin()
	}
	if filter == nil {
		filter = dictionary.NewFilter(nil)
	}
	c := &Classifier{lib: lib, filter: filter, cache: NewCache()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify decides whether word is terminology. window holds the raw
// neighbouring tokens passed to the external model. Classify never fails;
// external errors are reported in the returned [Result].
func (c *Classifier) Classify(ctx context.Context, word string, window []string) Result {
	if e, ok := c.cache.lookup(word); ok {
		c.stats.CacheHits++
		return Result{IsTerm: e.isTerm, Source: SourceCache, Origin: e.origin, ModelStatus: StatusNone}
	}

	lookup := normalize.Lookup(word)
	switch {
	case lookup != "" && c.lib.IsTerm(lookup):
		c.stats.LibraryHits++
		return c.settle(word, Result{IsTerm: true, Source: SourceLibrary, ModelStatus: StatusNone})
	case isBasicTerm(lookup):
		c.stats.BasicHits++
		return c.settle(word, Result{IsTerm: true, Source: SourceBasicTerm, ModelStatus: StatusNone})
	case c.filter.IsCommon(word):
		c.stats.DictionaryFiltered++
		return c.settle(word, Result{Source: SourceDictionary, ModelStatus: StatusNone})
	}

	if c.model == nil {
		c.stats.Disabled++
		return Result{Source: SourceDisabled, Origin: SourceDisabled, ModelStatus: StatusNone}
	}

	c.stats.Calls++
	isTerm, status, err := c.model.Classify(ctx, word, window)
	switch {
	case status.Failed():
		c.stats.Failures++
	case isTerm:
		c.stats.Positives++
	}
	return c.settle(word, Result{
		IsTerm:       isTerm,
		UsedExternal: true,
		Source:       SourceModel,
		ModelStatus:  status,
		Err:          err,
	})
}

func (c *Classifier) settle(word string, r Result) Result {
	r.Origin = r.Source
	c.cache.put(word, r.IsTerm, r.Source)
	return r
}

// Enabled reports whether the external model stage is configured.
func (c *Classifier) Enabled() bool { return c.model != nil }

// ModelName returns the external model identifier, or "" when disabled.
func (c *Classifier) ModelName() string {
	if c.model == nil {
		return ""
	}
	return c.model.Name()
}

// Stats returns the counters accumulated so far.
func (c *Classifier) Stats() Stats { return c.stats }

// CacheSize returns the number of cached words.
func (c *Classifier) CacheSize() int { return c.cache.Len() }
