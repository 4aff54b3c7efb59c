package axis

import (
	"reflect"
	"testing"
)

func TestExpandValues_RangeWithStep(t *testing.T) {
	values, exact := ExpandValues("[0..100, Step 10]")

	want := []string{"0", "10", "20", "30", "40", "50", "60", "70", "80", "90", "100"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
	if exact {
		t.Error("exact = true, want false")
	}
}

func TestExpandValues_RangeDefaultStep(t *testing.T) {
	values, _ := ExpandValues("[1..5]")

	want := []string{"1", "2", "3", "4", "5"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_DescendingRange(t *testing.T) {
	values, _ := ExpandValues("[100..0, Step 25]")

	want := []string{"100", "75", "50", "25", "0"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_FractionalStep(t *testing.T) {
	values, _ := ExpandValues("[0.0..1.0, Step 0.2]")

	// 0.2 is not exactly representable; the endpoint tolerance and the
	// 9-digit rounding must still produce clean labels including "1".
	want := []string{"0", "0.2", "0.4", "0.6", "0.8", "1"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_ExactKeyword(t *testing.T) {
	values, exact := ExpandValues("[0..10] exact")

	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
	if !exact {
		t.Error("exact = false, want true")
	}
}

func TestExpandValues_ExactCaseInsensitiveAnywhere(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"upper prefix", "EXACT [1..3]"},
		{"mixed suffix", "[1..3] Exact"},
		{"inside list", "a, eXaCt, b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, exact := ExpandValues(tt.src); !exact {
				t.Errorf("ExpandValues(%q) exact = false, want true", tt.src)
			}
		})
	}
}

func TestExpandValues_ExactRequiresWordBoundary(t *testing.T) {
	values, exact := ExpandValues("exactly, inexact")

	if exact {
		t.Error("exact = true, want false")
	}
	want := []string{"exactly", "inexact"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_NonPositiveStepCollapses(t *testing.T) {
	values, _ := ExpandValues("[5..1, Step 0]")

	want := []string{"5"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_NegativeEndpoints(t *testing.T) {
	values, _ := ExpandValues("[-2..2, Step 2]")

	want := []string{"-2", "0", "2"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_CommaListFallback(t *testing.T) {
	values, exact := ExpandValues("Todo,  In Progress ,Done")

	want := []string{"Todo", "In Progress", "Done"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
	if exact {
		t.Error("exact = true, want false")
	}
}

func TestExpandValues_DropsEmptyEntries(t *testing.T) {
	values, _ := ExpandValues("a,,b, ,c")

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_MalformedRangeFallsBackToList(t *testing.T) {
	// Brackets without a parseable range are treated as a plain entry.
	values, _ := ExpandValues("[1..]")

	want := []string{"[1..]"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExpandValues_Empty(t *testing.T) {
	values, exact := ExpandValues("   ")

	if values != nil {
		t.Errorf("values = %v, want nil", values)
	}
	if exact {
		t.Error("exact = true, want false")
	}
}

func TestExpandValues_OnlyExactKeyword(t *testing.T) {
	values, exact := ExpandValues("exact")

	if values != nil {
		t.Errorf("values = %v, want nil", values)
	}
	if !exact {
		t.Error("exact = false, want true")
	}
}
