// Package transcription models the word-level transcription documents that
// fretscribe consumes and produces.
//
// A document is the JSON tree emitted by the upstream transcriber. It may
// carry a flat "word_segments" list, a nested "segments[].words[]" list, or
// both; when both are present they describe the same tokens in the same
// order. The tree is kept as generic JSON values so that fields fretscribe
// does not understand survive a round trip untouched. Numbers are decoded as
// [json.Number] so untouched values re-encode byte-for-byte.
package transcription

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Well-known document keys.
const (
	KeyWordSegments = "word_segments"
	KeySegments     = "segments"
	KeyWords        = "words"
)

// Document is a decoded transcription tree. The zero value is an empty
// document with no words.
type Document struct {
	root map[string]any
}

// NewDocument wraps an already-decoded JSON object. A nil root yields an
// empty document.
func NewDocument(root map[string]any) *Document {
	if root == nil {
		root = make(map[string]any)
	}
	return &Document{root: root}
}

// Decode reads a single JSON object from r.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("transcription: decode document: %w", err)
	}
	return NewDocument(root), nil
}

// Parse decodes a JSON object from data.
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Root returns the underlying JSON object. Mutating it mutates the document.
func (d *Document) Root() map[string]any {
	if d.root == nil {
		d.root = make(map[string]any)
	}
	return d.root
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return NewDocument(nil)
	}
	c, _ := deepCopy(d.root).(map[string]any)
	return NewDocument(c)
}

// MarshalJSON implements [json.Marshaler].
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Root())
}

// WordSegments returns the entries of the top-level "word_segments" list.
// Entries that are not JSON objects are skipped. Returns nil when the list is
// absent or malformed.
func (d *Document) WordSegments() []map[string]any {
	list, _ := d.Root()[KeyWordSegments].([]any)
	return objects(list)
}

// SegmentWords returns the "words" entries of every element of "segments",
// flattened in document order.
func (d *Document) SegmentWords() []map[string]any {
	segments, _ := d.Root()[KeySegments].([]any)
	var out []map[string]any
	for _, s := range segments {
		seg, ok := s.(map[string]any)
		if !ok {
			continue
		}
		words, _ := seg[KeyWords].([]any)
		out = append(out, objects(words)...)
	}
	return out
}

// SetMetadata stores v under key at the top level of the document.
func (d *Document) SetMetadata(key string, v any) {
	d.Root()[key] = v
}

// Metadata returns the value stored at key, if any.
func (d *Document) Metadata(key string) (any, bool) {
	v, ok := d.Root()[key]
	return v, ok
}

func objects(list []any) []map[string]any {
	if len(list) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = deepCopy(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = deepCopy(vv)
		}
		return s
	default:
		return t
	}
}
