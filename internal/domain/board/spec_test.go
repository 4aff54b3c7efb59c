package board

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/boardex/internal/domain"
)

func TestParseSpec_FullBlock(t *testing.T) {
	src := `
title: Effort board
source: projects/active
x: status
x-label: Stage
x-values: Backlog, Doing, Done
y: effort
y-values: [0..20, Step 5] exact
y-transform: floor(value / 5) * 5
y-readonly: true
where: Status != "Archived"
filter: filter(documents, {.properties.effort != nil})
card-style: value.priority == "high" ? "red" : ""
display: owner, due
sort: due desc
theme: dark
hide-unassigned: true
`

	s, err := ParseSpec(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Source() != "projects/active" {
		t.Errorf("Source() = %q", s.Source())
	}
	if s.Title() != "Effort board" {
		t.Errorf("Title() = %q", s.Title())
	}
	if s.X().Path() != "status" || s.X().DisplayName() != "Stage" {
		t.Errorf("x axis = %q label %q", s.X().Path(), s.X().Label())
	}
	if want := []string{"Backlog", "Doing", "Done"}; !reflect.DeepEqual(s.X().Values(), want) {
		t.Errorf("X().Values() = %v, want %v", s.X().Values(), want)
	}
	if s.X().Exact() || s.X().Readonly() {
		t.Error("x axis must be non-exact and writable")
	}
	if want := []string{"0", "5", "10", "15", "20"}; !reflect.DeepEqual(s.Y().Values(), want) {
		t.Errorf("Y().Values() = %v, want %v", s.Y().Values(), want)
	}
	if !s.Y().Exact() {
		t.Error("Y().Exact() = false, want true")
	}
	if !s.Y().Readonly() {
		t.Error("Y().Readonly() = false, want true")
	}
	if s.Y().Transform() != "floor(value / 5) * 5" {
		t.Errorf("Y().Transform() = %q", s.Y().Transform())
	}
	if s.Where() != `Status != "Archived"` {
		t.Errorf("Where() = %q", s.Where())
	}
	if s.Filter() != "filter(documents, {.properties.effort != nil})" {
		t.Errorf("Filter() = %q", s.Filter())
	}
	if s.CardStyle() != `value.priority == "high" ? "red" : ""` {
		t.Errorf("CardStyle() = %q", s.CardStyle())
	}
	if want := []string{"owner", "due"}; !reflect.DeepEqual(s.Display(), want) {
		t.Errorf("Display() = %v, want %v", s.Display(), want)
	}
	if s.Sort().By() != "due" || !s.Sort().Desc() {
		t.Errorf("Sort() = {%q desc=%v}", s.Sort().By(), s.Sort().Desc())
	}
	if s.Theme() != "dark" {
		t.Errorf("Theme() = %q", s.Theme())
	}
	if !s.HideUnassigned() {
		t.Error("HideUnassigned() = false, want true")
	}
}

func TestParseSpec_KeySynonyms(t *testing.T) {
	s, err := ParseSpec("from: all\nx-axis: status\ny-axis: owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Source() != "all" {
		t.Errorf("Source() = %q", s.Source())
	}
	if s.X().Path() != "status" || s.Y().Path() != "owner" {
		t.Errorf("axes = %q / %q", s.X().Path(), s.Y().Path())
	}
}

func TestParseSpec_CaseInsensitiveKeys(t *testing.T) {
	s, err := ParseSpec("SOURCE: all\nX-Axis: status\nHide-Unassigned: true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Source() != "all" || s.X().Path() != "status" || !s.HideUnassigned() {
		t.Error("keys must match case-insensitively")
	}
}

func TestParseSpec_MultilineTransform(t *testing.T) {
	src := "source: all\nx: effort\nx-transform: let bucket = {\n  low: 0,\n  high: 10,\n}; value > 5 ? bucket.high : bucket.low"

	s, err := ParseSpec(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "let bucket = {\n  low: 0,\n  high: 10,\n}; value > 5 ? bucket.high : bucket.low"
	if s.X().Transform() != want {
		t.Errorf("X().Transform() = %q, want %q", s.X().Transform(), want)
	}
}

func TestParseSpec_MissingSource(t *testing.T) {
	_, err := ParseSpec("x: status")
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestParseSpec_MissingBothAxes(t *testing.T) {
	_, err := ParseSpec("source: all\ntitle: No axes")
	if err == nil {
		t.Fatal("expected error for missing axes")
	}
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestParseSpec_SingleAxisSuffices(t *testing.T) {
	if _, err := ParseSpec("source: all\nx: status"); err != nil {
		t.Errorf("x only: %v", err)
	}
	if _, err := ParseSpec("source: all\ny: owner"); err != nil {
		t.Errorf("y only: %v", err)
	}
}

func TestParseSpec_ReadonlyAppliesToBothAxes(t *testing.T) {
	s, err := ParseSpec("source: all\nx: status\ny: owner\nreadonly: true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.X().Readonly() || !s.Y().Readonly() {
		t.Error("bare readonly must mark both axes")
	}
}

func TestParseSpec_IgnoresUnknownAndMalformedLines(t *testing.T) {
	src := "source: all\nbogus-key: whatever\nthis line has no separator\nx: status"

	s, err := ParseSpec(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.X().Path() != "status" {
		t.Errorf("X().Path() = %q", s.X().Path())
	}
}

func TestParseSpec_TagSourceValueKeptVerbatim(t *testing.T) {
	s, err := ParseSpec("source: #project/alpha\nx: status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Source() != "#project/alpha" {
		t.Errorf("Source() = %q", s.Source())
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name string
		src  string
		by   string
		desc bool
	}{
		{"path only", "due", "due", false},
		{"asc", "due asc", "due", false},
		{"desc", "due desc", "due", true},
		{"desc uppercase", "due DESC", "due", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srt := parseSort(tt.src)
			if srt.By() != tt.by || srt.Desc() != tt.desc {
				t.Errorf("parseSort(%q) = {%q %v}", tt.src, srt.By(), srt.Desc())
			}
			if (tt.by == "") != srt.IsZero() {
				t.Errorf("IsZero() = %v", srt.IsZero())
			}
		})
	}
}
