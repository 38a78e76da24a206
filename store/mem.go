package store

import "github.com/gospod/spod/internal/spoderr"

// MemStore is the in-memory Block Store variant: a dense rank-3 tensor
// Qhat[N_f, Nx, N_blks] (spec.md §4.6).
type MemStore struct {
	nf, nx, nblks int
	data          []complex128 // layout: data[f*nx*nblks + x*nblks + b]
}

// NewMemStore allocates a dense block tensor of shape nf x nx x nblks.
func NewMemStore(nf, nx, nblks int) *MemStore {
	return &MemStore{nf: nf, nx: nx, nblks: nblks, data: make([]complex128, nf*nx*nblks)}
}

func (s *MemStore) Put(blockIndex int, blk Block) error {
	if blockIndex < 0 || blockIndex >= s.nblks {
		return spoderr.NewIOError(nil, "block index %d out of range [0,%d)", blockIndex, s.nblks)
	}
	if blk.Nf != s.nf || blk.Nx != s.nx {
		return spoderr.NewIOError(nil, "block shape (%d,%d) does not match store shape (%d,%d)", blk.Nf, blk.Nx, s.nf, s.nx)
	}
	for f := 0; f < s.nf; f++ {
		base := f*s.nx*s.nblks + blockIndex
		row := blk.Data[f]
		for x := 0; x < s.nx; x++ {
			s.data[base+x*s.nblks] = row[x]
		}
	}
	return nil
}

func (s *MemStore) ReadFrequency(freqIndex int) (*Matrix, error) {
	if freqIndex < 0 || freqIndex >= s.nf {
		return nil, spoderr.NewLookupError("frequency index %d out of range [0,%d)", freqIndex, s.nf)
	}
	m := &Matrix{Nx: s.nx, NBlks: s.nblks, Data: make([]complex128, s.nx*s.nblks)}
	start := freqIndex * s.nx * s.nblks
	copy(m.Data, s.data[start:start+s.nx*s.nblks])
	return m, nil
}

func (s *MemStore) ListFrequencies() []int {
	all := make([]int, s.nf)
	for i := range all {
		all[i] = i
	}
	return all
}

func (s *MemStore) Close() error { return nil }
