package provider

import "testing"

func TestNewEagerRejectsShapeMismatch(t *testing.T) {
	data := [][]complex128{
		{1, 2, 3},
		{4, 5}, // wrong length
	}
	if _, err := NewEager([]int{3}, data, false); err == nil {
		t.Fatal("expected a ShapeError for mismatched row length")
	}
}

func TestEagerGetAndMean(t *testing.T) {
	data := [][]complex128{
		{1, 3},
		{3, 5},
	}
	p, err := NewEager([]int{2}, data, false)
	if err != nil {
		t.Fatalf("NewEager: %v", err)
	}
	if p.Count() != 2 {
		t.Errorf("Count() = %d, want 2", p.Count())
	}
	row, err := p.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if row[0] != 1 || row[1] != 3 {
		t.Errorf("Get(0) = %v, want [1 3]", row)
	}
	if _, err := p.Get(2); err == nil {
		t.Error("expected LookupError for out-of-range index")
	}

	mean := p.Mean()
	if mean[0] != 2 || mean[1] != 4 {
		t.Errorf("Mean() = %v, want [2 4]", mean)
	}
}

func TestLazyIsComplexPeeksFirstSnapshot(t *testing.T) {
	get := func(i int) ([]complex128, error) {
		return []complex128{complex(1, 2)}, nil
	}
	p := NewLazy([]int{1}, 4, get, nil)
	if !p.IsComplex() {
		t.Error("expected IsComplex() to detect a non-zero imaginary part")
	}
}

func TestLazyIsComplexHonorsExplicitOverride(t *testing.T) {
	get := func(i int) ([]complex128, error) {
		return []complex128{complex(1, 2)}, nil
	}
	forced := false
	p := NewLazy([]int{1}, 4, get, &forced)
	if p.IsComplex() {
		t.Error("explicit isComplex=false override should not be overridden by peeking")
	}
}

func TestLazyGetValidatesShape(t *testing.T) {
	get := func(i int) ([]complex128, error) {
		return []complex128{1, 2, 3}, nil // wrong length for shape [2]
	}
	p := NewLazy([]int{2}, 1, get, nil)
	if _, err := p.Get(0); err == nil {
		t.Error("expected ShapeError for mismatched snapshot length")
	}
}
