// Package params implements the Parameter Resolver (component C2):
// it fills in defaults for window, overlap, timestep, and weight, and
// validates feasibility, following the ordered rules of spec.md §4.2.
package params

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"

	"github.com/gospod/spod/internal/diag"
	"github.com/gospod/spod/internal/spoderr"
	"github.com/gospod/spod/window"
)

// Window describes the caller's window override: at most one of Vector
// or Length should be set; both unset means "use the default rule".
type Window struct {
	Vector []float64
	Length int
}

// Options holds the spectral-parameter overrides a caller may supply;
// nullable fields use pointers so "omitted" is distinguishable from
// "explicitly zero" (spec.md §9, "explicit parameter record with
// nullable fields").
type Options struct {
	Window    *Window
	Weight    []float64 // length Nx, or nil for uniform
	NOvlp     *int
	Dt        *float64
	Mean      []complex128 // length Nx, or nil for default
	IsComplex *bool
	NTime     *int // required for a lazy provider; defaults to 10000 with a warning
}

// Params is the fully resolved, immutable spectral parameter set
// (spec.md §3 "Spectral parameters").
type Params struct {
	NDFT       int
	NOvlp      int
	NBlks      int
	Dt         float64
	Window     []float64
	WindowGain float64
	Weight     []float64 // length Nx
	Mean       []complex128
	IsComplex  bool
	Shape      []int
	Nx         int
	NTime      int
}

// HopSize returns N_DFT - N_ovlp, the stride between consecutive
// segment starts.
func (p *Params) HopSize() int { return p.NDFT - p.NOvlp }

// Describe renders a short human-readable summary of the resolved
// spectral parameters, mirroring the descriptive-field style of the
// teacher's STFT result (frequency/time resolution, block count) for
// use in logging and diagnostics rather than numerical consumption.
func (p *Params) Describe() string {
	freqRes := 1 / (float64(p.NDFT) * p.Dt)
	timeRes := float64(p.HopSize()) * p.Dt
	sidedness := "one-sided"
	if p.IsComplex {
		sidedness = "two-sided"
	}
	return fmt.Sprintf(
		"n_dft=%s n_ovlp=%s n_blks=%s nx=%s dt=%ss freq_res=%sHz time_res=%ss (%s)",
		humanize.Comma(int64(p.NDFT)),
		humanize.Comma(int64(p.NOvlp)),
		humanize.Comma(int64(p.NBlks)),
		humanize.Comma(int64(p.Nx)),
		humanize.FormatFloat("#,###.####", p.Dt),
		humanize.FormatFloat("#,###.####", freqRes),
		humanize.FormatFloat("#,###.####", timeRes),
		sidedness,
	)
}

// Resolve applies the ordered resolution rules of spec.md §4.2 against
// a dataset described by shape, nTime (0 if unknown / lazy), and
// isComplexHint (the provider's own answer, before any override).
func Resolve(shape []int, nTime int, isComplexHint bool, isLazy bool, opts Options, sink diag.Sink) (*Params, error) {
	nx := 1
	for _, s := range shape {
		nx *= s
	}

	effectiveNTime := nTime
	if isLazy {
		if opts.NTime != nil {
			effectiveNTime = *opts.NTime
		} else if effectiveNTime == 0 {
			effectiveNTime = 10000
			sink.ReportWarning(diag.WarnNoNTimeForLazyProvider, "no n_t supplied for a lazy provider; defaulting to 10000")
		}
	}
	if effectiveNTime == 0 {
		effectiveNTime = nTime
	}

	// 1. Window.
	nDFT, win, err := resolveWindow(opts.Window, effectiveNTime)
	if err != nil {
		return nil, err
	}
	if nDFT < 4 {
		return nil, spoderr.NewParameterError("window length %d is below the minimum of 4", nDFT)
	}
	gain := windowGain(win)

	// 2. Overlap.
	nOvlp := nDFT / 2
	if opts.NOvlp != nil {
		nOvlp = *opts.NOvlp
	}
	if nOvlp < 0 || nOvlp > nDFT-1 {
		return nil, spoderr.NewParameterError("n_ovlp=%d must satisfy 0 <= n_ovlp <= n_dft-1=%d", nOvlp, nDFT-1)
	}

	// 3. Timestep.
	dt := 1.0
	if opts.Dt != nil {
		dt = *opts.Dt
	}
	if dt <= 0 {
		return nil, spoderr.NewParameterError("dt=%v must be strictly positive", dt)
	}

	// 4. Weight.
	weight := opts.Weight
	if weight == nil {
		weight = make([]float64, nx)
		for i := range weight {
			weight[i] = 1
		}
	}
	if len(weight) != nx {
		return nil, spoderr.NewParameterError("weight has %d elements, expected %d", len(weight), nx)
	}
	if floats.Min(weight) < 0 {
		return nil, spoderr.NewParameterError("weight must be non-negative")
	}

	// 5. Mean.
	mean := opts.Mean
	if mean == nil {
		mean = make([]complex128, nx) // zero; eager providers supply their own temporal mean upstream
		if isLazy {
			sink.ReportWarning(diag.WarnNoMeanForLazyProvider, "no mean supplied for a lazy provider; low-frequency accuracy will degrade")
		}
	}
	if len(mean) != nx {
		return nil, spoderr.NewParameterError("mean has %d elements, expected %d", len(mean), nx)
	}

	// 6. Block count.
	nBlks := int(math.Floor(float64(effectiveNTime-nOvlp) / float64(nDFT-nOvlp)))
	if nBlks < 2 {
		return nil, spoderr.NewParameterError("n_blks=%d is below the minimum of 2 (n_t=%d, n_dft=%d, n_ovlp=%d)", nBlks, effectiveNTime, nDFT, nOvlp)
	}

	isComplex := isComplexHint
	if opts.IsComplex != nil {
		isComplex = *opts.IsComplex
	}

	return &Params{
		NDFT:       nDFT,
		NOvlp:      nOvlp,
		NBlks:      nBlks,
		Dt:         dt,
		Window:     win,
		WindowGain: gain,
		Weight:     weight,
		Mean:       mean,
		IsComplex:  isComplex,
		Shape:      shape,
		Nx:         nx,
		NTime:      effectiveNTime,
	}, nil
}

// resolveWindow implements spec.md §4.2 rule 1: it returns N_DFT and
// the fully materialized window vector of that length.
func resolveWindow(w *Window, nTime int) (int, []float64, error) {
	if w == nil {
		nDFT := 1 << int(math.Floor(math.Log2(float64(nTime)/10)))
		win, _ := window.Hamming(nDFT)
		return nDFT, win, nil
	}
	if len(w.Vector) > 0 {
		// A vector window is used verbatim; its own length is N_DFT
		// regardless of whether it happens to be a power of two (the
		// 2^nextpow2(length(window)) branch in the source is dead:
		// both branches set N_DFT to length(window)).
		return len(w.Vector), w.Vector, nil
	}
	if w.Length > 0 {
		win, _ := window.Hamming(w.Length)
		return w.Length, win, nil
	}
	return 0, nil, spoderr.NewParameterError("window override has neither a vector nor a positive length")
}

// windowGain returns 1/mean(w), the energy correction the Block FFT
// Stage applies to undo whatever window is actually in use (spec.md
// §4.3) — not necessarily Hamming's own gain, since a caller may supply
// an arbitrary window vector.
func windowGain(w []float64) float64 {
	if len(w) == 0 {
		return 1
	}
	mean := floats.Sum(w) / float64(len(w))
	if mean == 0 {
		return 1
	}
	return 1 / mean
}
