package document

import (
	"fmt"
	"path"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Document is an immutable view of one vault note: an opaque path handle,
// a display name and the property bag extracted from it.
type Document struct {
	path string
	name string
	bag  props.Bag
}

// New validates and creates a Document. The path is the vault-relative
// identity; it must be non-empty, slash-separated and not escape the vault.
func New(p string, bag props.Bag) (Document, error) {
	if p == "" {
		return Document{}, fmt.Errorf("document path is required")
	}
	if strings.Contains(p, "\\") {
		return Document{}, fmt.Errorf("document path must be slash-separated")
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return Document{}, fmt.Errorf("document path %q escapes the vault", p)
	}

	return Document{
		path: clean,
		name: baseName(clean),
		bag:  bag,
	}, nil
}

// Reconstruct creates a Document without validation (cache hydration).
func Reconstruct(p, name string, bag props.Bag) Document {
	return Document{path: p, name: name, bag: bag}
}

// Path returns the vault-relative identity.
func (d *Document) Path() string { return d.path }

// Name returns the display name (file name without extension).
func (d *Document) Name() string { return d.name }

// Bag returns the property bag.
func (d *Document) Bag() props.Bag { return d.bag }

// Property resolves a dotted property path against the bag.
func (d *Document) Property(p string) (any, bool) { return d.bag.Lookup(p) }

// baseName strips the directory and the .md extension.
func baseName(p string) string {
	b := path.Base(p)
	return strings.TrimSuffix(b, path.Ext(b))
}
