package store

import "testing"

// TestSQLiteStoreMatchesMemStore is the store equivalence harness: the
// same sequence of blocks, written to both a MemStore and a
// SQLiteStore, must read back identically at every retained frequency.
func TestSQLiteStoreMatchesMemStore(t *testing.T) {
	nf, nx, nblks := 4, 3, 5
	mem := NewMemStore(nf, nx, nblks)
	ss, err := NewSQLiteStore(t.TempDir(), nf, nx, nblks, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer ss.Close()

	blocks := make([]Block, nblks)
	for b := 0; b < nblks; b++ {
		blk := Block{Nf: nf, Nx: nx, Data: make([][]complex128, nf)}
		for f := 0; f < nf; f++ {
			row := make([]complex128, nx)
			for x := 0; x < nx; x++ {
				row[x] = complex(float64(f*1000+x*10+b), float64(-b))
			}
			blk.Data[f] = row
		}
		blocks[b] = blk
	}

	for b, blk := range blocks {
		if err := mem.Put(b, blk); err != nil {
			t.Fatalf("mem.Put(%d): %v", b, err)
		}
		if err := ss.Put(b, blk); err != nil {
			t.Fatalf("ss.Put(%d): %v", b, err)
		}
	}

	for f := 0; f < nf; f++ {
		memM, err := mem.ReadFrequency(f)
		if err != nil {
			t.Fatalf("mem.ReadFrequency(%d): %v", f, err)
		}
		sqlM, err := ss.ReadFrequency(f)
		if err != nil {
			t.Fatalf("ss.ReadFrequency(%d): %v", f, err)
		}
		for x := 0; x < nx; x++ {
			for b := 0; b < nblks; b++ {
				if memM.At(x, b) != sqlM.At(x, b) {
					t.Errorf("f=%d x=%d b=%d: mem=%v sql=%v", f, x, b, memM.At(x, b), sqlM.At(x, b))
				}
			}
		}
	}
}

// TestSQLiteStoreSaveFreqsZerosUnretained checks the sparse-persistence
// contract: a frequency outside save_freqs is never written and reads
// back as an exact all-zero matrix.
func TestSQLiteStoreSaveFreqsZerosUnretained(t *testing.T) {
	nf, nx, nblks := 3, 2, 2
	saveFreqs := map[int]bool{0: true, 2: true} // frequency 1 is dropped
	st, err := NewSQLiteStore(t.TempDir(), nf, nx, nblks, saveFreqs)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	for b := 0; b < nblks; b++ {
		blk := Block{Nf: nf, Nx: nx, Data: make([][]complex128, nf)}
		for f := 0; f < nf; f++ {
			row := make([]complex128, nx)
			for x := 0; x < nx; x++ {
				row[x] = complex(1, 1)
			}
			blk.Data[f] = row
		}
		if err := st.Put(b, blk); err != nil {
			t.Fatalf("Put(%d): %v", b, err)
		}
	}

	m, err := st.ReadFrequency(1)
	if err != nil {
		t.Fatalf("ReadFrequency(1): %v", err)
	}
	for _, v := range m.Data {
		if v != 0 {
			t.Errorf("unretained frequency should read back all-zero, got %v", v)
		}
	}

	retained, err := st.ReadFrequency(0)
	if err != nil {
		t.Fatalf("ReadFrequency(0): %v", err)
	}
	for _, v := range retained.Data {
		if v != complex(1, 1) {
			t.Errorf("retained frequency should round-trip, got %v", v)
		}
	}

	freqs := st.ListFrequencies()
	if len(freqs) != 2 {
		t.Errorf("ListFrequencies() returned %d entries, want 2 (only save_freqs)", len(freqs))
	}
}

func TestSQLiteStoreDiskUsage(t *testing.T) {
	st, err := NewSQLiteStore(t.TempDir(), 2, 2, 2, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	size, err := st.DiskUsage()
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if size <= 0 {
		t.Errorf("DiskUsage() = %d, want > 0 for a created database file", size)
	}
}
