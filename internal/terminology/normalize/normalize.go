// Package normalize provides the two token normalisations used by the
// terminology engine.
//
// [Lookup] is used for dictionary, library and pattern matching. It strips
// punctuation that carries no musical meaning but keeps the characters that
// do: "-" and "_" (hammer-on, chord_progression), "'" (contractions), "#" and
// "+" (C#, C+).
//
// [CacheKey] only folds case and trims whitespace so that the raw token sent
// to the external classifier is never distorted by the lookup stripping.
//
// Both functions are total and safe for concurrent use.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// lookupStripper removes clearly non-musical punctuation.
var lookupStripper = strings.NewReplacer(
	".", "", ",", "", ":", "", ";", "",
	"\"", "", "“", "", "”", "",
	"!", "", "?", "",
	"(", "", ")", "", "[", "", "]", "", "{", "", "}", "", "<", "", ">", "",
)

// apostrophes folds typographic apostrophes to ASCII.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Lookup returns the lookup form of word: NFC-composed, apostrophes folded,
// lower-cased, trimmed and stripped of non-musical punctuation.
func Lookup(word string) string {
	if word == "" {
		return ""
	}
	s := norm.NFC.String(word)
	s = apostrophes.Replace(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = lookupStripper.Replace(s)
	return strings.TrimSpace(s)
}

// CacheKey returns the cache-key form of word: lower-cased and trimmed, with
// every other character preserved verbatim.
func CacheKey(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(word))
}
