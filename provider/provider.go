// Package provider abstracts the snapshot source SPOD reads from
// (component C1): either an eager array already resident in memory, or
// a lazy callback that materializes one snapshot at a time.
package provider

import "github.com/gospod/spod/internal/spoderr"

// Provider yields time-ordered, spatially-indexed snapshots of a
// physical field. Shape is fixed for the lifetime of a Provider; a
// snapshot returned with a different shape than the first is a fatal
// ShapeError.
type Provider interface {
	// Shape returns the spatial shape S = (s1, ..., sd) snapshots are
	// returned in.
	Shape() []int

	// Count returns the total snapshot count N_t.
	Count() int

	// Get returns snapshot i, flattened in column-major (first-index
	// fastest) order to length Nx = prod(S).
	Get(i int) ([]complex128, error)

	// IsComplex reports whether snapshots carry a non-zero imaginary
	// part, determining one- vs two-sided spectrum handling.
	IsComplex() bool
}

// Eager wraps a dense, time-major array that already holds all N_t
// snapshots.
type Eager struct {
	shape     []int
	data      [][]complex128 // data[t] is the flattened snapshot at time t
	isComplex bool
}

// NewEager builds an Eager provider from pre-flattened snapshots. Every
// row of data must have the same length, equal to prod(shape).
func NewEager(shape []int, data [][]complex128, isComplex bool) (*Eager, error) {
	nx := 1
	for _, s := range shape {
		nx *= s
	}
	for i, row := range data {
		if len(row) != nx {
			return nil, spoderr.NewShapeError("snapshot %d has length %d, expected %d", i, len(row), nx)
		}
	}
	return &Eager{shape: shape, data: data, isComplex: isComplex}, nil
}

func (e *Eager) Shape() []int { return e.shape }
func (e *Eager) Count() int   { return len(e.data) }

func (e *Eager) Get(i int) ([]complex128, error) {
	if i < 0 || i >= len(e.data) {
		return nil, spoderr.NewLookupError("snapshot index %d out of range [0,%d)", i, len(e.data))
	}
	return e.data[i], nil
}

func (e *Eager) IsComplex() bool { return e.isComplex }

// Mean returns the per-point temporal mean across all N_t snapshots,
// the default mean for an Eager provider (spec.md §4.2 rule 5).
func (e *Eager) Mean() []complex128 {
	if len(e.data) == 0 {
		return nil
	}
	nx := len(e.data[0])
	mean := make([]complex128, nx)
	for _, row := range e.data {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := complex(float64(len(e.data)), 0)
	for j := range mean {
		mean[j] /= n
	}
	return mean
}

// GetFunc is the signature of a lazy snapshot callback: returns the
// flattened snapshot at index i.
type GetFunc func(i int) ([]complex128, error)

// Lazy wraps a function-handle snapshot source that materializes one
// snapshot at a time (spec.md §9, "function-handle snapshot provider").
// Count must be supplied by the caller (the count argument of
// NewLazy); it cannot be discovered by probing, and Get rejects any
// index at or beyond it.
type Lazy struct {
	shape       []int
	count       int
	get         GetFunc
	isComplex   bool
	complexKnown bool
}

// NewLazy builds a Lazy provider. If isComplex is nil, IsComplex peeks
// at snapshot 0 to decide sidedness (spec.md §4.1).
func NewLazy(shape []int, count int, get GetFunc, isComplex *bool) *Lazy {
	l := &Lazy{shape: shape, count: count, get: get}
	if isComplex != nil {
		l.isComplex = *isComplex
		l.complexKnown = true
	}
	return l
}

func (l *Lazy) Shape() []int { return l.shape }
func (l *Lazy) Count() int   { return l.count }

func (l *Lazy) Get(i int) ([]complex128, error) {
	if i < 0 || i >= l.count {
		return nil, spoderr.NewLookupError("snapshot index %d out of range [0,%d)", i, l.count)
	}
	row, err := l.get(i)
	if err != nil {
		return nil, err
	}
	nx := 1
	for _, s := range l.shape {
		nx *= s
	}
	if len(row) != nx {
		return nil, spoderr.NewShapeError("snapshot %d has length %d, expected %d", i, len(row), nx)
	}
	return row, nil
}

func (l *Lazy) IsComplex() bool {
	if l.complexKnown {
		return l.isComplex
	}
	row, err := l.get(0)
	if err != nil {
		return false
	}
	for _, v := range row {
		if imag(v) != 0 {
			return true
		}
	}
	return false
}
