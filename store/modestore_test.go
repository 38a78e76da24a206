package store

import "testing"

func TestModeStorePutAndReadRoundTrips(t *testing.T) {
	shape := []int{4, 2}
	dir := t.TempDir()
	ms, err := NewModeStore(dir, shape)
	if err != nil {
		t.Fatalf("NewModeStore: %v", err)
	}
	defer ms.Close()

	nx, nblks, nSave := 8, 5, 3
	m := &Matrix{Nx: nx, NBlks: nblks, Data: make([]complex128, nx*nblks)}
	for x := 0; x < nx; x++ {
		for b := 0; b < nblks; b++ {
			m.Set(x, b, complex(float64(x), float64(b)))
		}
	}

	if err := ms.PutModes(0, m, nSave); err != nil {
		t.Fatalf("PutModes: %v", err)
	}

	for j := 0; j < nSave; j++ {
		got, err := ms.Mode(0, j)
		if err != nil {
			t.Fatalf("Mode(0, %d): %v", j, err)
		}
		if len(got) != nx {
			t.Fatalf("Mode(0, %d) length = %d, want %d", j, len(got), nx)
		}
		for x := 0; x < nx; x++ {
			if want := complex(float64(x), float64(j)); got[x] != want {
				t.Errorf("Mode(0,%d)[%d] = %v, want %v", j, x, got[x], want)
			}
		}
	}

	if _, err := ms.Mode(0, nSave); err == nil {
		t.Error("expected a LookupError for a mode beyond n_save")
	}
	if _, err := ms.Mode(1, 0); err == nil {
		t.Error("expected a LookupError for a frequency that was never saved")
	}
}

func TestOpenModeStoreRecoversShape(t *testing.T) {
	shape := []int{3, 3, 2}
	dir := t.TempDir()
	ms, err := NewModeStore(dir, shape)
	if err != nil {
		t.Fatalf("NewModeStore: %v", err)
	}
	ms.Close()

	reopened, err := OpenModeStore(dir)
	if err != nil {
		t.Fatalf("OpenModeStore: %v", err)
	}
	defer reopened.Close()

	got := reopened.Shape()
	if len(got) != len(shape) {
		t.Fatalf("Shape() = %v, want %v", got, shape)
	}
	for i := range shape {
		if got[i] != shape[i] {
			t.Errorf("Shape()[%d] = %d, want %d", i, got[i], shape[i])
		}
	}
}
