package learning

import (
	"fmt"
	"math"
	"sort"
)

// SparseVector is a fixed-dimension vector that stores only non-zero
// components. Indices are strictly ascending and Values is parallel to it.
type SparseVector struct {
	Dim     int       `json:"dim"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// NewSparseVector builds a vector of the given dimension from an
// index→weight map. Zero weights and out-of-range indices are dropped.
func NewSparseVector(dim int, weights map[int]float64) SparseVector {
	sv := SparseVector{Dim: dim}
	if len(weights) == 0 {
		return sv
	}

	sv.Indices = make([]int, 0, len(weights))
	for idx, w := range weights {
		if w != 0 && idx >= 0 && idx < dim {
			sv.Indices = append(sv.Indices, idx)
		}
	}
	sort.Ints(sv.Indices)

	sv.Values = make([]float64, len(sv.Indices))
	for i, idx := range sv.Indices {
		sv.Values[i] = weights[idx]
	}
	return sv
}

// NonZero returns the number of stored components
func (sv SparseVector) NonZero() int {
	return len(sv.Indices)
}

// IsZero reports whether every component is zero
func (sv SparseVector) IsZero() bool {
	return len(sv.Indices) == 0
}

// At returns the weight at index i
func (sv SparseVector) At(i int) float64 {
	pos := sort.SearchInts(sv.Indices, i)
	if pos < len(sv.Indices) && sv.Indices[pos] == i {
		return sv.Values[pos]
	}
	return 0
}

// L2Norm returns the Euclidean norm
func (sv SparseVector) L2Norm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// normalize divides every component by the Euclidean norm in place.
// A zero vector is left untouched.
func (sv SparseVector) normalize() {
	norm := sv.L2Norm()
	if norm == 0 {
		return
	}
	for i := range sv.Values {
		sv.Values[i] /= norm
	}
}

// Dot returns the dot product with a dense vector of the same dimension
func (sv SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range sv.Indices {
		sum += sv.Values[i] * dense[idx]
	}
	return sum
}

// Dense expands the vector into a slice of length Dim
func (sv SparseVector) Dense() []float64 {
	out := make([]float64, sv.Dim)
	for i, idx := range sv.Indices {
		out[idx] = sv.Values[i]
	}
	return out
}

// validate checks the structural invariants: parallel slices, strictly
// ascending indices in [0, Dim) and finite non-negative weights
func (sv SparseVector) validate() error {
	if len(sv.Indices) != len(sv.Values) {
		return fmt.Errorf("%d indices but %d values", len(sv.Indices), len(sv.Values))
	}
	prev := -1
	for i, idx := range sv.Indices {
		if idx < 0 || idx >= sv.Dim {
			return fmt.Errorf("index %d out of range [0, %d)", idx, sv.Dim)
		}
		if idx <= prev {
			return fmt.Errorf("indices not strictly ascending at position %d", i)
		}
		prev = idx
		v := sv.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("weight %v at index %d is not finite and non-negative", v, idx)
		}
	}
	return nil
}
