// Package solver implements the SPOD Solver (component C7): per-
// frequency CSD assembly, weighted Hermitian eigendecomposition, mode
// reconstruction, and confidence bounds (spec.md §4.7).
package solver

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gospod/spod/internal/diag"
	"github.com/gospod/spod/store"
)

// Options controls one SolveFrequency call.
type Options struct {
	// ConfLevel is the requested confidence level alpha in (0,1); zero
	// disables confidence-bound computation.
	ConfLevel float64
}

// FrequencyResult holds the solver's output at a single frequency.
type FrequencyResult struct {
	// Energies is L[i,:] = |Lambda|, non-increasing.
	Energies []float64
	// ConfLow, ConfHigh are Lc[i,:,0] and Lc[i,:,1]; nil if confidence
	// bounds were not requested.
	ConfLow, ConfHigh []float64
	// Modes is Psi_f, shape Nx x N_blks, weight-orthonormal for every
	// non-degenerate (Lambda > 0) column.
	Modes *store.Matrix
}

// SolveFrequency runs steps 2-5 of spec.md §4.7 against the
// cross-spectral snapshot matrix A (shape Nx x N_blks) under inner
// product weight (length Nx). Reading A from the block store and
// storing the returned modes are left to the caller.
func SolveFrequency(A *store.Matrix, weight []float64, opts Options, sink diag.Sink) (*FrequencyResult, error) {
	nx, nblks := A.Nx, A.NBlks

	m := assembleCSD(A, weight)
	symmetrize(m, nblks, sink)

	lambda, theta, err := eigHermitian(m, nblks)
	if err != nil {
		return nil, err
	}

	energies := make([]float64, nblks)
	maxLambda := 0.0
	for i, l := range lambda {
		energies[i] = math.Abs(l)
		if l > maxLambda {
			maxLambda = l
		}
	}
	eps := 2.220446049250313e-16 * maxLambda
	if eps <= 0 {
		eps = 2.220446049250313e-16
	}

	modes := &store.Matrix{Nx: nx, NBlks: nblks, Data: make([]complex128, nx*nblks)}
	for j := 0; j < nblks; j++ {
		lp := lambda[j]
		if lp < eps {
			sink.ReportWarning(diag.WarnNonPositiveEigenvalue, fmt.Sprintf("mode %d clamped from eigenvalue %.3e", j, lambda[j]))
			lp = eps
		}
		scale := complex(1/math.Sqrt(float64(nblks)*lp), 0)
		for x := 0; x < nx; x++ {
			var sum complex128
			for i := 0; i < nblks; i++ {
				sum += A.At(x, i) * theta[i*nblks+j]
			}
			modes.Set(x, j, sum*scale)
		}
	}

	res := &FrequencyResult{Energies: energies, Modes: modes}
	if opts.ConfLevel > 0 {
		lo, hi := ConfidenceFactors(opts.ConfLevel, nblks)
		res.ConfLow = make([]float64, nblks)
		res.ConfHigh = make([]float64, nblks)
		for i, e := range energies {
			res.ConfLow[i] = e * lo
			res.ConfHigh[i] = e * hi
		}
	}
	return res, nil
}

// assembleCSD builds M = (A^H . diag(w) . A) / N_blks, row-major
// N_blks x N_blks.
func assembleCSD(A *store.Matrix, weight []float64) []complex128 {
	nx, nblks := A.Nx, A.NBlks
	m := make([]complex128, nblks*nblks)
	invN := complex(1/float64(nblks), 0)
	for i := 0; i < nblks; i++ {
		for j := 0; j < nblks; j++ {
			var sum complex128
			for x := 0; x < nx; x++ {
				sum += cmplx.Conj(A.At(x, i)) * complex(weight[x], 0) * A.At(x, j)
			}
			m[i*nblks+j] = sum * invN
		}
	}
	return m
}

// symmetrize averages M against its conjugate transpose in place,
// reporting a NumericWarning if the pre-symmetrization drift is
// non-negligible (spec.md §7).
func symmetrize(m []complex128, n int, sink diag.Sink) {
	maxDrift := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := m[i*n+j], cmplx.Conj(m[j*n+i])
			if d := cmplx.Abs(a - b); d > maxDrift {
				maxDrift = d
			}
			avg := (a + b) / 2
			m[i*n+j] = avg
			m[j*n+i] = cmplx.Conj(avg)
		}
	}
	if maxDrift > 1e-9 {
		sink.ReportWarning(diag.WarnNonHermitianDrift, fmt.Sprintf("CSD Hermitian drift %.3e symmetrized away", maxDrift))
	}
}

// ConfidenceFactors returns the multiplicative factors spec.md §4.7
// applies to L[i,:] to get Lc[i,:,0] (lowFactor) and Lc[i,:,1]
// (highFactor). xi_lower/xi_upper are the chi-squared-with-2*N_blks-
// degrees-of-freedom quantile edges at alpha and 1-alpha; lowFactor
// divides by the smaller of the two quantiles (xi_upper) and
// highFactor by the larger one (xi_lower), so that at the spec's own
// conf_level convention (alpha > 0.5, e.g. the default 0.95) the
// bracket satisfies lowFactor >= 1 >= highFactor, matching
// Lc[i,j,0] >= L[i,j] >= Lc[i,j,1] (spec.md §8 property 8).
//
// gonum has no direct inverse-regularized-incomplete-gamma function;
// distuv.Gamma{Alpha: N_blks, Beta: 1}.Quantile is exactly that
// function (shape N_blks, rate 1), so xi = 2*Quantile(p) reproduces
// the standard chi-squared quantile with 2*N_blks degrees of freedom.
func ConfidenceFactors(alpha float64, nblks int) (lowFactor, highFactor float64) {
	g := distuv.Gamma{Alpha: float64(nblks), Beta: 1}
	xiLower := 2 * g.Quantile(alpha)
	xiUpper := 2 * g.Quantile(1-alpha)
	twoN := 2 * float64(nblks)
	return twoN / xiUpper, twoN / xiLower
}
