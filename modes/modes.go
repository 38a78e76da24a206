// Package modes implements the Mode Accessor (component C8): it
// returns the j-th SPOD mode at frequency i, either from an in-memory
// tensor or by lazy disk read, replacing the "anonymous mode-returning
// closure" of the source with a concrete accessor object (spec.md §9).
package modes

import (
	"github.com/gospod/spod/internal/spoderr"
	"github.com/gospod/spod/store"
)

// Accessor returns SPOD mode j at frequency i, flattened in
// column-major order to length Nx = prod(Shape()).
type Accessor interface {
	Mode(i, j int) ([]complex128, error)
	Shape() []int
}

// MemAccessor borrows a handle to the in-memory modes tensor: one
// *store.Matrix (Nx x N_blks) per frequency.
type MemAccessor struct {
	shape []int
	freqs []*store.Matrix
}

// NewMemAccessor wraps a per-frequency slice of mode matrices.
func NewMemAccessor(shape []int, freqs []*store.Matrix) *MemAccessor {
	return &MemAccessor{shape: shape, freqs: freqs}
}

func (a *MemAccessor) Shape() []int { return a.shape }

func (a *MemAccessor) Mode(i, j int) ([]complex128, error) {
	if i < 0 || i >= len(a.freqs) {
		return nil, spoderr.NewLookupError("frequency index %d out of range [0,%d)", i, len(a.freqs))
	}
	m := a.freqs[i]
	if m == nil {
		return nil, spoderr.NewLookupError("frequency %d has no stored modes", i)
	}
	if j < 0 || j >= m.NBlks {
		return nil, spoderr.NewLookupError("mode index %d out of range [0,%d)", j, m.NBlks)
	}
	out := make([]complex128, m.Nx)
	for x := 0; x < m.Nx; x++ {
		out[x] = m.At(x, j)
	}
	return out, nil
}

// StoreAccessor borrows the block-store directory: it opens the mode
// file for frequency i lazily and returns the j-th sub-array along the
// last axis, never holding both a memory tensor and a store handle at
// once (spec.md §3, "Ownership").
type StoreAccessor struct {
	ms *store.ModeStore
}

// NewStoreAccessor wraps an already-open mode store.
func NewStoreAccessor(ms *store.ModeStore) *StoreAccessor {
	return &StoreAccessor{ms: ms}
}

func (a *StoreAccessor) Shape() []int { return a.ms.Shape() }

func (a *StoreAccessor) Mode(i, j int) ([]complex128, error) {
	return a.ms.Mode(i, j)
}
