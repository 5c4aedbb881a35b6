// Package dictionary provides the English dictionary capability used to
// eliminate ordinary words before the external classifier is consulted, and
// the [Filter] that applies it with contraction and compound-word handling.
//
// Two [Dictionary] implementations exist: [WordList], backed by a
// newline-delimited word file, and [Fallback], a fixed minimal set of common
// English words. [Open] picks one at construction time; callers never need to
// know which one they got.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Dictionary answers whether a word is ordinary English.
//
// Implementations must be safe for concurrent use; both implementations in
// this package are read-only after construction.
type Dictionary interface {
	// IsKnownWord reports whether word (already lower-cased) is a dictionary
	// word.
	IsKnownWord(word string) bool

	// Name identifies the implementation for reporting ("wordlist" or
	// "fallback").
	Name() string
}

// WordList is a [Dictionary] backed by an in-memory word set.
type WordList struct {
	words map[string]struct{}
}

// Compile-time interface assertions.
var (
	_ Dictionary = (*WordList)(nil)
	_ Dictionary = Fallback{}
)

// NewWordList builds a [WordList] from the given words. Words are
// lower-cased and trimmed; empty entries are ignored.
func NewWordList(words ...string) *WordList {
	wl := &WordList{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		wl.add(w)
	}
	return wl
}

// LoadWordList reads a newline-delimited word file such as
// /usr/share/dict/words. Blank lines and lines starting with '#' are skipped.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	wl, err := ReadWordList(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary: read %q: %w", path, err)
	}
	return wl, nil
}

// ReadWordList reads a newline-delimited word list from r.
func ReadWordList(r io.Reader) (*WordList, error) {
	wl := &WordList{words: make(map[string]struct{}, 1<<16)}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		wl.add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return wl, nil
}

func (wl *WordList) add(w string) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "" {
		return
	}
	wl.words[w] = struct{}{}
}

// IsKnownWord implements [Dictionary].
func (wl *WordList) IsKnownWord(word string) bool {
	_, ok := wl.words[strings.ToLower(word)]
	return ok
}

// Name implements [Dictionary].
func (wl *WordList) Name() string { return "wordlist" }

// Len returns the number of words in the list.
func (wl *WordList) Len() int { return len(wl.words) }

// Fallback is the [Dictionary] used when no word file is available. It knows
// a fixed set of very common English words.
type Fallback struct{}

// IsKnownWord implements [Dictionary].
func (Fallback) IsKnownWord(word string) bool {
	_, ok := commonWords[strings.ToLower(word)]
	return ok
}

// Name implements [Dictionary].
func (Fallback) Name() string { return "fallback" }

// Open returns a [WordList] loaded from path, or [Fallback] when path is empty
// or the file cannot be read. It never fails.
func Open(path string) Dictionary {
	if path == "" {
		slog.Warn("dictionary: no word list configured; using fallback common-word set")
		return Fallback{}
	}
	wl, err := LoadWordList(path)
	if err != nil {
		slog.Warn("dictionary: word list unavailable; using fallback common-word set", "path", path, "err", err)
		return Fallback{}
	}
	slog.Info("dictionary loaded", "path", path, "words", wl.Len())
	return wl
}
