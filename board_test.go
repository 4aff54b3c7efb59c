package boardex

import (
	"strings"
	"testing"
)

func TestBoard_Config(t *testing.T) {
	b := NewBoard("tasks").
		X("status").
		XValues("todo", "doing", "done").
		Y("assignee").
		Title("Sprint")

	got := b.Config()
	want := strings.Join([]string{
		"source: tasks",
		"x-axis: status",
		"x-values: todo, doing, done",
		"y-axis: assignee",
		"title: Sprint",
	}, "\n")
	if got != want {
		t.Errorf("config =\n%s\nwant\n%s", got, want)
	}
}

func TestBoard_SpecRoundTrip(t *testing.T) {
	b := NewBoard("projects/active").
		X("points").
		XTransform("floor(value / 10) * 10").
		XLabel("Size").
		Y("status").
		YValues("exact [1..3]").
		YReadonly().
		Where("status != \"archived\"").
		Filter("filter(documents, {.points > 0})").
		SortBy("priority", true).
		CardStyle("status == \"done\" ? \"dim\" : \"\"").
		Display("assignee", "due").
		Theme("dark").
		HideUnassigned()

	spec, err := b.spec()
	if err != nil {
		t.Fatalf("spec: %v", err)
	}

	if spec.Source() != "projects/active" {
		t.Errorf("source = %q", spec.Source())
	}
	if spec.X().Path() != "points" || spec.X().Transform() != "floor(value / 10) * 10" {
		t.Errorf("x axis = %q / %q", spec.X().Path(), spec.X().Transform())
	}
	if spec.X().DisplayName() != "Size" {
		t.Errorf("x label = %q", spec.X().DisplayName())
	}
	if !spec.Y().Exact() || !spec.Y().Readonly() {
		t.Errorf("y axis exact=%v readonly=%v", spec.Y().Exact(), spec.Y().Readonly())
	}
	if got := spec.Y().Values(); len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Errorf("y values = %v", got)
	}
	if spec.Where() != "status != \"archived\"" {
		t.Errorf("where = %q", spec.Where())
	}
	if spec.Filter() == "" {
		t.Error("whole-set filter lost")
	}
	if spec.Sort().By() != "priority" || !spec.Sort().Desc() {
		t.Errorf("sort = %q desc=%v", spec.Sort().By(), spec.Sort().Desc())
	}
	if got := spec.Display(); len(got) != 2 || got[0] != "assignee" {
		t.Errorf("display = %v", got)
	}
	if !spec.HideUnassigned() {
		t.Error("hide-unassigned lost")
	}
	if spec.Theme() != "dark" {
		t.Errorf("theme = %q", spec.Theme())
	}
}

func TestBoard_Readonly_CoversBothAxes(t *testing.T) {
	spec, err := NewBoard("tasks").X("status").Y("assignee").Readonly().spec()
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if !spec.X().Readonly() || !spec.Y().Readonly() {
		t.Errorf("readonly x=%v y=%v", spec.X().Readonly(), spec.Y().Readonly())
	}
}

func TestBoard_NoAxis_Invalid(t *testing.T) {
	_, err := NewBoard("tasks").spec()
	if err == nil {
		t.Fatal("expected error for a board without axes")
	}
}
