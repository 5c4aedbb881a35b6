// Package library provides the curated guitar terminology collection the
// classifier consults before anything else.
//
// A [Library] answers exact-match queries on lookup-normalised tokens; there
// is no partial or fuzzy matching. Three implementations exist:
//
//   - [Builtin]: a small built-in set of core terms, used whenever the
//     curated collection is unavailable.
//   - [File]: a YAML collection grouped by category.
//   - [Postgres]: a collection stored in a PostgreSQL table, read once into
//     memory at construction.
//
// [Open] selects an implementation from configuration and degrades to
// [Builtin] on any load failure. All implementations are read-only after
// construction and safe for concurrent use.
package library

import (
	"context"
	"log/slog"

	"github.com/MrWong99/fretscribe/internal/terminology/normalize"
)

// Stats describes a library for reporting purposes.
type Stats struct {
	// TotalTerms is the number of distinct normalised terms.
	TotalTerms int `json:"total_terms"`

	// Type identifies the implementation: "builtin", "file" or "postgres".
	Type string `json:"type"`

	// Categories is the number of term categories, 0 when uncategorised.
	Categories int `json:"categories"`
}

// Library is the terminology-library capability.
type Library interface {
	// IsTerm reports whether normalized (a [normalize.Lookup] form) is a
	// curated term.
	IsTerm(normalized string) bool

	// Stats returns reporting statistics.
	Stats() Stats
}

// Source selects a [Library] implementation.
type Source string

const (
	SourceBuiltin  Source = "builtin"
	SourceFile     Source = "file"
	SourcePostgres Source = "postgres"
)

// IsValid reports whether s is a recognised source.
func (s Source) IsValid() bool {
	switch s {
	case SourceBuiltin, SourceFile, SourcePostgres:
		return true
	}
	return false
}

// Options configures [Open].
type Options struct {
	// Source selects the implementation. Empty means [SourceBuiltin].
	Source Source

	// Path is the YAML collection path for [SourceFile].
	Path string

	// PostgresDSN is the connection string for [SourcePostgres].
	PostgresDSN string
}

// Open constructs the library selected by opts. It never fails: when the
// selected source cannot be loaded the error is logged and [Builtin] is
// returned.
func Open(ctx context.Context, opts Options) Library {
	switch opts.Source {
	case SourceFile:
		lib, err := LoadFile(opts.Path)
		if err != nil {
			slog.Warn("library: curated collection unavailable; using built-in terms", "source", opts.Source, "path", opts.Path, "err", err)
			return NewBuiltin()
		}
		slog.Info("library loaded", "source", opts.Source, "terms", lib.Stats().TotalTerms)
		return lib

	case SourcePostgres:
		lib, err := LoadPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			slog.Warn("library: curated collection unavailable; using built-in terms", "source", opts.Source, "err", err)
			return NewBuiltin()
		}
		slog.Info("library loaded", "source", opts.Source, "terms", lib.Stats().TotalTerms)
		return lib
	}
	return NewBuiltin()
}

// termSet is the shared in-memory representation of a categorised
// collection.
type termSet struct {
	terms      map[string]struct{}
	categories map[string]int
}

func newTermSet() *termSet {
	return &termSet{
		terms:      make(map[string]struct{}),
		categories: make(map[string]int),
	}
}

func (s *termSet) add(category, term string) {
	t := normalize.Lookup(term)
	if t == "" {
		return
	}
	s.terms[t] = struct{}{}
	if category != "" {
		s.categories[category]++
	}
}

func (s *termSet) has(normalized string) bool {
	_, ok := s.terms[normalized]
	return ok
}
