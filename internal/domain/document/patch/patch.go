// Package patch models the frontmatter write set a drop resolution produces:
// one value per property path, applied to a document in a single merge-write.
package patch

// Patch is an ordered set of property updates. An empty patch means
// "nothing to write".
type Patch struct {
	paths  []string
	values map[string]any
}

// New creates an empty Patch.
func New() *Patch {
	return &Patch{values: make(map[string]any)}
}

// Set records an update for a property path, replacing any earlier value
// for the same path while keeping its original position.
func (p *Patch) Set(path string, value any) {
	if path == "" {
		return
	}
	if _, ok := p.values[path]; !ok {
		p.paths = append(p.paths, path)
	}
	p.values[path] = value
}

// Paths returns the updated property paths in insertion order.
func (p *Patch) Paths() []string {
	if p == nil {
		return nil
	}
	return p.paths
}

// Value returns the update recorded for a path.
func (p *Patch) Value(path string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[path]
	return v, ok
}

// Len returns the number of updated paths.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.paths)
}

// IsEmpty reports whether the patch writes nothing.
func (p *Patch) IsEmpty() bool { return p.Len() == 0 }
