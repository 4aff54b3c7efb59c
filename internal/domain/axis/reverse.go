package axis

import (
	"sort"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// ReverseMap indexes, per bucket label, the distinct raw values observed
// under it in first-seen order. Distinctness is judged by the canonical
// string form, the same identity the grouping pipeline uses for labels.
type ReverseMap struct {
	values map[string][]any
	seen   map[string]map[string]struct{}
}

// NewReverseMap creates an empty ReverseMap.
func NewReverseMap() *ReverseMap {
	return &ReverseMap{
		values: make(map[string][]any),
		seen:   make(map[string]map[string]struct{}),
	}
}

// Add records a raw value under a label. Duplicate raw values already
// recorded for that label are silently ignored.
func (m *ReverseMap) Add(label string, raw any) {
	key := props.String(raw)
	set, ok := m.seen[label]
	if !ok {
		set = make(map[string]struct{})
		m.seen[label] = set
	}
	if _, dup := set[key]; dup {
		return
	}
	set[key] = struct{}{}
	m.values[label] = append(m.values[label], raw)
}

// Values returns the raw values recorded for a label, in first-seen order.
// Unknown labels yield nil (a previously-unseen bucket).
func (m *ReverseMap) Values(label string) []any {
	if m == nil {
		return nil
	}
	return m.values[label]
}

// Labels returns all labels with at least one value, in canonical order.
func (m *ReverseMap) Labels() []string {
	if m == nil {
		return nil
	}
	labels := make([]string, 0, len(m.values))
	for l := range m.values {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return props.Compare(labels[i], labels[j]) < 0
	})
	return labels
}

// Len returns the number of labels.
func (m *ReverseMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// BuildReverse groups raw values by their transformed label. A transform
// runtime failure falls back to the raw value itself, matching the grouping
// pipeline's per-value isolation.
func BuildReverse(raws []any, t Transform) *ReverseMap {
	m := NewReverseMap()
	for _, raw := range raws {
		label, _ := t.Label(raw)
		m.Add(label, raw)
	}
	return m
}
