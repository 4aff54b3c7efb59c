// Package props models the flat-looking, dotted-path-addressable property
// bag a document exposes: declared frontmatter properties merged with
// synthetic file metadata under the reserved "file" key.
package props

import (
	"strings"
	"time"
)

// ReservedKey is the bag key holding file-derived properties. A declared
// property with the same name never shadows it.
const ReservedKey = "file"

// Meta carries the file-derived properties synthesized for every document.
type Meta struct {
	Name  string
	Path  string
	CTime time.Time
	MTime time.Time
	Size  int64
	Tags  []string
}

// Bag is a document's property mapping. Values are canonical (see Normalize):
// numbers are float64, timestamps are RFC 3339 strings, sequences are []any.
type Bag map[string]any

// New builds a Bag from declared properties and file metadata. Declared
// values are normalized; the reserved "file" entry always wins a collision.
func New(declared map[string]any, meta Meta) Bag {
	bag := make(Bag, len(declared)+1)
	for k, v := range declared {
		bag[k] = Normalize(v)
	}

	tags := make([]any, len(meta.Tags))
	for i, t := range meta.Tags {
		tags[i] = t
	}

	bag[ReservedKey] = map[string]any{
		"name":  meta.Name,
		"path":  meta.Path,
		"ctime": meta.CTime.UTC().Format(time.RFC3339),
		"mtime": meta.MTime.UTC().Format(time.RFC3339),
		"size":  float64(meta.Size),
		"tags":  tags,
	}

	return bag
}

// Reconstruct wraps an already-canonical mapping (e.g. decoded from the bag
// cache) without re-normalizing it.
func Reconstruct(m map[string]any) Bag { return Bag(m) }

// Lookup resolves a dotted property path. It returns (nil, false) when any
// intermediate segment is absent or not a mapping; it never panics. Paths
// are matched verbatim, with no case normalization.
func (b Bag) Lookup(path string) (any, bool) {
	if b == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var cur any = map[string]any(b)
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Tags returns the synthetic tag list.
func (b Bag) Tags() []string {
	v, ok := b.Lookup(ReservedKey + ".tags")
	if !ok {
		return nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(seq))
	for _, e := range seq {
		if s, ok := e.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// Declared returns the bag without the reserved file entry, for callers that
// need only user-declared properties.
func (b Bag) Declared() map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		if k == ReservedKey {
			continue
		}
		out[k] = v
	}
	return out
}
