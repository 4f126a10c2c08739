package learning

import (
	"math"
	"testing"
)

func TestNewSparseVector(t *testing.T) {
	sv := NewSparseVector(5, map[int]float64{4: 2, 1: 3, 2: 0, 9: 1, -1: 1})

	if sv.NonZero() != 2 {
		t.Fatalf("expected 2 non-zero components, got %d", sv.NonZero())
	}
	if sv.Indices[0] != 1 || sv.Indices[1] != 4 {
		t.Errorf("indices not ascending: %v", sv.Indices)
	}
	if sv.At(1) != 3 || sv.At(4) != 2 || sv.At(0) != 0 {
		t.Errorf("unexpected values: %v", sv.Dense())
	}
}

func TestSparseVectorNormalize(t *testing.T) {
	sv := NewSparseVector(3, map[int]float64{0: 3, 2: 4})
	sv.normalize()

	if math.Abs(sv.L2Norm()-1) > 1e-12 {
		t.Errorf("expected unit norm, got %f", sv.L2Norm())
	}
	if math.Abs(sv.At(0)-0.6) > 1e-12 || math.Abs(sv.At(2)-0.8) > 1e-12 {
		t.Errorf("unexpected components: %v", sv.Dense())
	}

	zero := NewSparseVector(3, nil)
	zero.normalize()
	if !zero.IsZero() {
		t.Error("zero vector should stay zero")
	}
}

func TestSparseVectorDot(t *testing.T) {
	sv := NewSparseVector(4, map[int]float64{1: 2, 3: 0.5})
	if got := sv.Dot([]float64{10, 1, 10, 4}); got != 4 {
		t.Errorf("Dot = %f, expected 4", got)
	}
}
