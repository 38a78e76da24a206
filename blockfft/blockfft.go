// Package blockfft implements the Block FFT Stage (component C5): for
// each segment it extracts, demeans, windows, transforms, and
// one-sided-normalizes the data, then hands the resulting Fourier
// block to a store.Store.
//
// Grounded on algorithms/spectral/fft.go (FFT.Compute wrapping
// go-dsp/fft) and the frame-extraction loop of algorithms/spectral/stft.go,
// generalized from real audio PCM framing to N-dimensional-flattened,
// complex-or-real, weighted segmentation.
package blockfft

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/gospod/spod/freqaxis"
	"github.com/gospod/spod/internal/diag"
	"github.com/gospod/spod/params"
	"github.com/gospod/spod/provider"
	"github.com/gospod/spod/store"
)

// Run executes C5 over every block of pr, writing each Fourier block
// into st as it is produced. Peak memory is bounded to one segment at
// a time (spec.md §2).
func Run(p provider.Provider, pr *params.Params, st store.Store, sink diag.Sink) error {
	nf := freqaxis.NumFreq(pr.NDFT, pr.IsComplex)
	hop := pr.HopSize()

	for b := 0; b < pr.NBlks; b++ {
		offset := blockOffset(b, hop, pr.NDFT, pr.NTime)

		blk, err := computeBlock(p, pr, offset, nf)
		if err != nil {
			return err
		}
		if err := st.Put(b, blk); err != nil {
			return err
		}
		sink.ReportProgress(diag.StageBlockFFT, b+1, pr.NBlks, "fourier block computed")
	}
	return nil
}

// blockOffset returns the time offset of segment b: the segment ends
// at min(b*hop+nDFT, nTime), never extending past nTime — the last
// block is flush-right against the end of the series (spec.md §4.5).
func blockOffset(b, hop, nDFT, nTime int) int {
	end := b*hop + nDFT
	if end > nTime {
		end = nTime
	}
	return end - nDFT
}

func computeBlock(p provider.Provider, pr *params.Params, offset, nf int) (store.Block, error) {
	nx := pr.Nx
	nDFT := pr.NDFT

	// Assemble the demeaned, windowed segment, time-major.
	rows := make([][]complex128, nDFT)
	for k := 0; k < nDFT; k++ {
		snap, err := p.Get(offset + k)
		if err != nil {
			return store.Block{}, err
		}
		wk := complex(pr.Window[k], 0)
		row := make([]complex128, nx)
		for x := 0; x < nx; x++ {
			row[x] = (snap[x] - pr.Mean[x]) * wk
		}
		rows[k] = row
	}

	blk := store.Block{Nf: nf, Nx: nx, Data: make([][]complex128, nf)}
	for f := range blk.Data {
		blk.Data[f] = make([]complex128, nx)
	}

	norm := complex(pr.WindowGain/float64(nDFT), 0)
	col := make([]complex128, nDFT)
	colReal := make([]float64, nDFT)

	for x := 0; x < nx; x++ {
		for k := 0; k < nDFT; k++ {
			col[k] = rows[k][x]
		}

		var spectrum []complex128
		if pr.IsComplex {
			spectrum = fft.FFT(col)
		} else {
			for k := 0; k < nDFT; k++ {
				colReal[k] = real(col[k])
			}
			spectrum = fft.FFTReal(colReal)
		}

		for f := 0; f < nf; f++ {
			blk.Data[f][x] = spectrum[f] * norm
		}
	}

	if !pr.IsComplex {
		// Double bins 1..N_f-2 and leave DC (bin 0) and bin N_f-1 as-is.
		// For even N_DFT bin N_f-1 is Nyquist; for odd N_DFT, which has
		// no Nyquist bin, bin N_f-1 is left undoubled all the same
		// (spec.md §9).
		for f := 1; f <= nf-2; f++ {
			row := blk.Data[f]
			for x := range row {
				row[x] *= 2
			}
		}
	}

	return blk, nil
}
