package modes

import (
	"testing"

	"github.com/gospod/spod/store"
)

func TestMemAccessorMode(t *testing.T) {
	nx, nblks := 4, 2
	m := &store.Matrix{Nx: nx, NBlks: nblks, Data: make([]complex128, nx*nblks)}
	for x := 0; x < nx; x++ {
		m.Set(x, 1, complex(float64(x), 0))
	}
	a := NewMemAccessor([]int{4}, []*store.Matrix{nil, m})

	got, err := a.Mode(1, 1)
	if err != nil {
		t.Fatalf("Mode(1,1): %v", err)
	}
	for x := 0; x < nx; x++ {
		if got[x] != complex(float64(x), 0) {
			t.Errorf("Mode(1,1)[%d] = %v, want %v", x, got[x], complex(float64(x), 0))
		}
	}

	if _, err := a.Mode(0, 0); err == nil {
		t.Error("expected a LookupError: frequency 0 has no stored modes (nil matrix)")
	}
	if _, err := a.Mode(5, 0); err == nil {
		t.Error("expected a LookupError for an out-of-range frequency index")
	}
	if _, err := a.Mode(1, 9); err == nil {
		t.Error("expected a LookupError for an out-of-range mode index")
	}
}

func TestStoreAccessorDelegatesAndShapes(t *testing.T) {
	shape := []int{2, 3}
	dir := t.TempDir()
	ms, err := store.NewModeStore(dir, shape)
	if err != nil {
		t.Fatalf("NewModeStore: %v", err)
	}
	defer ms.Close()

	m := &store.Matrix{Nx: 6, NBlks: 2, Data: make([]complex128, 12)}
	m.Set(3, 0, complex(7, -2))
	if err := ms.PutModes(0, m, 1); err != nil {
		t.Fatalf("PutModes: %v", err)
	}

	a := NewStoreAccessor(ms)
	if len(a.Shape()) != 2 || a.Shape()[0] != 2 || a.Shape()[1] != 3 {
		t.Errorf("Shape() = %v, want [2 3]", a.Shape())
	}

	got, err := a.Mode(0, 0)
	if err != nil {
		t.Fatalf("Mode(0,0): %v", err)
	}
	if got[3] != complex(7, -2) {
		t.Errorf("Mode(0,0)[3] = %v, want (7-2i)", got[3])
	}
}
