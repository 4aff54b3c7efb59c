// Package board models a parsed board configuration: the source specifier,
// one or two grouping axes with optional transforms and explicit bucket
// domains, filters, sort and presentation hints. A Spec is parsed once per
// query invocation and never mutated afterward.
package board

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/axis"
)

// Axis is one grouping dimension of a board spec.
type Axis struct {
	path      string
	label     string
	values    []string
	exact     bool
	readonly  bool
	transform string
}

// Path returns the dotted property path the axis groups by.
func (a Axis) Path() string { return a.path }

// Label returns the configured display label, which may be empty.
func (a Axis) Label() string { return a.label }

// DisplayName returns the label, falling back to the path.
func (a Axis) DisplayName() string {
	if a.label != "" {
		return a.label
	}
	return a.path
}

// Values returns the explicit bucket domain, nil when discovered at query
// time.
func (a Axis) Values() []string { return a.values }

// Exact reports whether the domain declaration carried the exact keyword.
func (a Axis) Exact() bool { return a.exact }

// Readonly reports whether drops onto this axis must not write.
func (a Axis) Readonly() bool { return a.readonly }

// Transform returns the transform expression source, empty for identity.
func (a Axis) Transform() string { return a.transform }

// Defined reports whether the axis has a property path configured.
func (a Axis) Defined() bool { return a.path != "" }

// Sort orders the result document list by a dotted property path.
type Sort struct {
	by   string
	desc bool
}

// By returns the sort property path.
func (s Sort) By() string { return s.by }

// Desc reports descending order.
func (s Sort) Desc() bool { return s.desc }

// IsZero reports an unconfigured sort.
func (s Sort) IsZero() bool { return s.by == "" }

// Spec is a validated board configuration.
type Spec struct {
	source         string
	x              Axis
	y              Axis
	where          string
	filter         string
	cardStyle      string
	display        []string
	sort           Sort
	title          string
	theme          string
	hideUnassigned bool
}

// expression keys whose values continue onto following lines while brace
// nesting stays unbalanced.
var multilineKeys = map[string]bool{
	"x-transform": true,
	"y-transform": true,
	"filter":      true,
}

// ParseSpec parses the textual board-config block. Keys are matched
// case-insensitively, values are taken verbatim, unknown keys and lines
// without a colon are ignored. Missing source, or missing both axes, is a
// configuration error.
func ParseSpec(src string) (Spec, error) {
	var s Spec

	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		sep := strings.Index(line, ":")
		if sep < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:sep]))
		value := strings.TrimSpace(line[sep+1:])

		if multilineKeys[key] {
			depth := braceDelta(value)
			for depth > 0 && i+1 < len(lines) {
				i++
				value += "\n" + lines[i]
				depth += braceDelta(lines[i])
			}
			value = strings.TrimSpace(value)
		}

		s.apply(key, value)
	}

	if s.source == "" {
		return Spec{}, domain.NewConfigFieldError("source", "required")
	}
	if !s.x.Defined() && !s.y.Defined() {
		return Spec{}, domain.NewConfigFieldError("x-axis", "at least one axis is required")
	}
	return s, nil
}

// apply assigns one parsed key/value pair, resolving key synonyms.
func (s *Spec) apply(key, value string) {
	switch key {
	case "source", "from":
		s.source = value
	case "x", "x-axis":
		s.x.path = value
	case "y", "y-axis":
		s.y.path = value
	case "x-values":
		s.x.values, s.x.exact = axis.ExpandValues(value)
	case "y-values":
		s.y.values, s.y.exact = axis.ExpandValues(value)
	case "x-label":
		s.x.label = value
	case "y-label":
		s.y.label = value
	case "x-readonly":
		s.x.readonly = parseBool(value)
	case "y-readonly":
		s.y.readonly = parseBool(value)
	case "readonly":
		b := parseBool(value)
		s.x.readonly = b
		s.y.readonly = b
	case "x-transform":
		s.x.transform = value
	case "y-transform":
		s.y.transform = value
	case "filter":
		s.filter = value
	case "card-style":
		s.cardStyle = value
	case "display":
		s.display = splitPaths(value)
	case "sort":
		s.sort = parseSort(value)
	case "where":
		s.where = value
	case "title":
		s.title = value
	case "theme":
		s.theme = value
	case "hide-unassigned":
		s.hideUnassigned = parseBool(value)
	}
}

// Source returns the source specifier (folder, #tag or all).
func (s Spec) Source() string { return s.source }

// X returns the x axis.
func (s Spec) X() Axis { return s.x }

// Y returns the y axis.
func (s Spec) Y() Axis { return s.y }

// Where returns the per-document filter string.
func (s Spec) Where() string { return s.where }

// Filter returns the whole-set predicate expression source.
func (s Spec) Filter() string { return s.filter }

// CardStyle returns the per-document styling expression source.
func (s Spec) CardStyle() string { return s.cardStyle }

// Display returns extra property paths shown on cards.
func (s Spec) Display() []string { return s.display }

// Sort returns the sort spec.
func (s Spec) Sort() Sort { return s.sort }

// Title returns the board title.
func (s Spec) Title() string { return s.title }

// Theme returns the theme hint.
func (s Spec) Theme() string { return s.theme }

// HideUnassigned reports whether documents outside every bucket are hidden.
func (s Spec) HideUnassigned() bool { return s.hideUnassigned }

func braceDelta(s string) int {
	d := 0
	for _, r := range s {
		switch r {
		case '{':
			d++
		case '}':
			d--
		}
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
	return err == nil && b
}

// splitPaths splits a comma-separated path list, trimming whitespace and
// dropping empty segments.
func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseSort reads "<path> [asc|desc]", defaulting to ascending.
func parseSort(s string) Sort {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Sort{}
	}
	srt := Sort{by: fields[0]}
	if len(fields) > 1 && strings.EqualFold(fields[1], "desc") {
		srt.desc = true
	}
	return srt
}
