package light

import (
	"math"
	"reflect"
	"testing"
)

func floatsNear(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestNewSectionSpreadsGradients(t *testing.T) {
	s := NewSection(5, 6, 7, 8)
	if want := []float64{0, 0.25, 0.5, 0.75}; !floatsNear(s.Gradients, want) {
		t.Errorf("Gradients = %v, want %v", s.Gradients, want)
	}
	if got := s.PositionsInGradientRange(0.25, 0.5); !reflect.DeepEqual(got, []int{6, 7}) {
		t.Errorf("PositionsInGradientRange = %v, want [6 7]", got)
	}
	if got := s.PositionsWithGradient(0.75); !reflect.DeepEqual(got, []int{8}) {
		t.Errorf("PositionsWithGradient = %v, want [8]", got)
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		from, to int
		want     []int
	}{
		{0, 3, []int{0, 1, 2}},
		{3, 0, []int{2, 1, 0}},
		{4, 4, nil},
	}
	for _, tt := range tests {
		if got := Range(tt.from, tt.to).Positions; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Range(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReversed(t *testing.T) {
	s := Range(0, 4)
	r := s.Reversed()

	if !reflect.DeepEqual(r.Positions, s.Positions) {
		t.Errorf("positions changed: %v", r.Positions)
	}
	if want := []float64{0.75, 0.5, 0.25, 0}; !floatsNear(r.Gradients, want) {
		t.Errorf("Gradients = %v, want %v", r.Gradients, want)
	}
	if s.Gradients[0] != 0 {
		t.Error("Reversed modified the original")
	}
}

func TestMergeAndAppend(t *testing.T) {
	a, b := Range(0, 2), Range(10, 12)

	m := a.MergedWith(b)
	if !reflect.DeepEqual(m.Positions, []int{0, 1, 10, 11}) {
		t.Errorf("merged positions = %v", m.Positions)
	}
	if !floatsNear(m.Gradients, []float64{0, 0.5, 0, 0.5}) {
		t.Errorf("merged gradients = %v", m.Gradients)
	}

	app := a.AppendedWith(b)
	if !floatsNear(app.Gradients, []float64{0, 0.25, 0.5, 0.75}) {
		t.Errorf("appended gradients = %v", app.Gradients)
	}

	all := MergeAll(a, b, Range(20, 21))
	if all.Len() != 5 {
		t.Errorf("MergeAll len = %d, want 5", all.Len())
	}
}

func TestSlice(t *testing.T) {
	s := Range(10, 20)

	inner := s.Slice(2, -2)
	if !reflect.DeepEqual(inner.Positions, []int{12, 13, 14, 15, 16, 17}) {
		t.Errorf("Slice(2, -2) = %v", inner.Positions)
	}
	if inner.Gradients[1] == s.Gradients[3] {
		t.Error("Slice kept the parent gradients")
	}
	if got := s.Slice(-3, 0).Positions; !reflect.DeepEqual(got, []int{17, 18, 19}) {
		t.Errorf("Slice(-3, 0) = %v", got)
	}
	if got := s.Slice(8, 3).Len(); got != 0 {
		t.Errorf("inverted Slice len = %d, want 0", got)
	}
}
