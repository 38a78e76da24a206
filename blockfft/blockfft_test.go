package blockfft

import (
	"math"
	"testing"

	"github.com/gospod/spod/internal/diag"
	"github.com/gospod/spod/params"
	"github.com/gospod/spod/provider"
	"github.com/gospod/spod/store"
	"github.com/gospod/spod/window"
)

func TestBlockOffsetFlushesRight(t *testing.T) {
	cases := []struct {
		b, hop, nDFT, nTime, want int
	}{
		{0, 4, 8, 20, 0},
		{1, 4, 8, 20, 4},
		{4, 4, 8, 20, 12}, // 4*4+8=24 > 20, so flush right: 20-8=12
	}
	for _, c := range cases {
		if got := blockOffset(c.b, c.hop, c.nDFT, c.nTime); got != c.want {
			t.Errorf("blockOffset(%d,%d,%d,%d) = %d, want %d", c.b, c.hop, c.nDFT, c.nTime, got, c.want)
		}
	}
}

// TestRunProducesExpectedBlockCount checks that blockfft.Run writes
// exactly N_blks blocks, each with the one-sided frequency count.
func TestRunProducesExpectedBlockCount(t *testing.T) {
	nTime, nx := 40, 2
	win, gain := window.Hamming(8)
	pr := &params.Params{
		NDFT: 8, NOvlp: 4, NBlks: 8, Dt: 1, Window: win, WindowGain: gain,
		Weight: []float64{1, 1}, Mean: []complex128{0, 0}, IsComplex: false,
		Shape: []int{nx}, Nx: nx, NTime: nTime,
	}

	data := make([][]complex128, nTime)
	for i := range data {
		row := make([]complex128, nx)
		for x := 0; x < nx; x++ {
			row[x] = complex(math.Sin(float64(i)*0.3+float64(x)), 0)
		}
		data[i] = row
	}
	p, err := provider.NewEager([]int{nx}, data, false)
	if err != nil {
		t.Fatalf("NewEager: %v", err)
	}

	st := store.NewMemStore(5, nx, pr.NBlks)
	var progressed int
	sink := diag.Sink{Progress: func(e diag.ProgressEvent) { progressed++ }}

	if err := Run(p, pr, st, sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if progressed != pr.NBlks {
		t.Errorf("progress events = %d, want %d", progressed, pr.NBlks)
	}

	freqs := st.ListFrequencies()
	if len(freqs) != 5 {
		t.Errorf("ListFrequencies() = %d entries, want 5", len(freqs))
	}
	m, err := st.ReadFrequency(0)
	if err != nil {
		t.Fatalf("ReadFrequency(0): %v", err)
	}
	if m.NBlks != pr.NBlks {
		t.Errorf("NBlks = %d, want %d", m.NBlks, pr.NBlks)
	}
}

// TestRunDCBinNotDoubled checks that the real-data bin-doubling rule
// leaves the DC bin untouched: a constant (zero-frequency-only) signal
// should produce a purely-DC spectrum whose amplitude matches the
// signal's own constant value once windowing/normalization settle out,
// not twice that.
func TestRunDCBinNotDoubled(t *testing.T) {
	nTime, nx := 32, 1
	win, gain := window.Hamming(8)
	pr := &params.Params{
		NDFT: 8, NOvlp: 4, NBlks: 6, Dt: 1, Window: win, WindowGain: gain,
		Weight: []float64{1}, Mean: []complex128{0}, IsComplex: false,
		Shape: []int{nx}, Nx: nx, NTime: nTime,
	}
	data := make([][]complex128, nTime)
	for i := range data {
		data[i] = []complex128{complex(1, 0)} // DC-only signal
	}
	p, err := provider.NewEager([]int{nx}, data, false)
	if err != nil {
		t.Fatalf("NewEager: %v", err)
	}
	st := store.NewMemStore(5, nx, pr.NBlks)
	if err := Run(p, pr, st, diag.Sink{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	m, err := st.ReadFrequency(0)
	if err != nil {
		t.Fatalf("ReadFrequency(0): %v", err)
	}
	for b := 0; b < pr.NBlks; b++ {
		if math.Abs(real(m.At(0, b))-1) > 1e-9 {
			t.Errorf("DC bin at block %d = %v, want ~1 (undoubled)", b, m.At(0, b))
		}
	}
}
