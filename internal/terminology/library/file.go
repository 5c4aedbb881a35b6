package library

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CollectionFile is the YAML layout of a curated term collection.
//
// Example:
//
//	name: "guitar-core"
//	categories:
//	  techniques: [hammer-on, pull-off, palm-mute]
//	  chords: [maj7, sus4, add9]
type CollectionFile struct {
	// Name is a human-readable collection name.
	Name string `yaml:"name"`

	// Categories maps a category name to its terms.
	Categories map[string][]string `yaml:"categories"`
}

// File is a [Library] loaded from a YAML [CollectionFile].
type File struct {
	name       string
	set        *termSet
	categories map[string][]string
}

var _ Library = (*File)(nil)

// LoadFile reads and parses a YAML collection from disk.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("library: collection path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("library: open collection %q: %w", path, err)
	}
	defer f.Close()

	lib, err := ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("library: parse collection %q: %w", path, err)
	}
	return lib, nil
}

// ReadFile parses a YAML collection from r. Unknown keys are rejected to
// catch typos. A collection without any terms is an error.
func ReadFile(r io.Reader) (*File, error) {
	var cf CollectionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("library: decode collection yaml: %w", err)
	}

	s := newTermSet()
	for category, terms := range cf.Categories {
		for _, t := range terms {
			s.add(category, t)
		}
	}
	if len(s.terms) == 0 {
		return nil, fmt.Errorf("library: collection %q contains no terms", cf.Name)
	}
	return &File{name: cf.Name, set: s, categories: cf.Categories}, nil
}

// Name returns the collection name.
func (f *File) Name() string { return f.name }

// Categories returns the terms as written in the collection, grouped by
// category. The result must not be modified.
func (f *File) Categories() map[string][]string { return f.categories }

// IsTerm implements [Library].
func (f *File) IsTerm(normalized string) bool { return f.set.has(normalized) }

// Stats implements [Library].
func (f *File) Stats() Stats {
	return Stats{
		TotalTerms: len(f.set.terms),
		Type:       string(SourceFile),
		Categories: len(f.set.categories),
	}
}
