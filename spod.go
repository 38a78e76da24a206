// Package spod is the public entry point of the SPOD engine: the
// positional/options surface of spec.md §6, orchestrating the
// Snapshot Provider (C1) through the Mode Accessor (C8) exactly as
// spec.md §2's data-flow diagram describes: C1 -> C5 (segment by
// segment) -> C6 (persist blocks) -> C7 (frequency by frequency) -> C8.
package spod

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"

	"github.com/gospod/spod/blockfft"
	"github.com/gospod/spod/freqaxis"
	"github.com/gospod/spod/internal/diag"
	"github.com/gospod/spod/internal/spoderr"
	"github.com/gospod/spod/logging"
	"github.com/gospod/spod/modes"
	"github.com/gospod/spod/params"
	"github.com/gospod/spod/provider"
	"github.com/gospod/spod/solver"
	"github.com/gospod/spod/store"
)

// Options is the full call-surface options record of spec.md §6. It
// embeds params.Options (the spectral-parameter overrides C2 resolves)
// and adds the execution-mode, persistence, and diagnostic knobs.
type Options struct {
	params.Options

	// SaveBlocks enables streaming mode (default false).
	SaveBlocks bool
	// DeleteBlocks, when streaming, deletes block files after mode
	// extraction completes (default true).
	DeleteBlocks *bool
	// SaveDir is the root directory for streaming mode (default
	// "results"); the effective directory is
	// save_dir/nfft{N_DFT}_novlp{N_ovlp}_nblks{N_blks}.
	SaveDir string
	// SaveFreqs restricts which frequencies are retained in streaming
	// mode; nil means all.
	SaveFreqs []int
	// NSave is the number of leading modes persisted per frequency in
	// streaming mode (default N_blks).
	NSave *int
	// ConfLevel requests confidence bounds at the given level in
	// (0,1); nil disables them entirely (no Lc is computed).
	ConfLevel *float64

	// Logger receives structured diagnostics; defaults to
	// logging.GetGlobalLogger().
	Logger logging.Logger
	// Sink receives progress events and advisory NumericWarnings
	// (spec.md §9). Either field may be left nil.
	Sink diag.Sink
}

// Result is the (L, P, f[, Lc]) tuple of spec.md §6.
type Result struct {
	// L[i][j] is the energy of mode j at frequency index i.
	L [][]float64
	// F[i] is the frequency grid, one- or two-sided per spec.md §4.4.
	F []float64
	// Lc[i][j] holds the two confidence bounds for L[i][j], L[i][j]
	// times each factor of solver.ConfidenceFactors: for ConfLevel > 0.5
	// Lc[i][j][0] >= L[i][j] >= Lc[i][j][1], for ConfLevel < 0.5 the
	// order is reversed. Nil unless Options.ConfLevel was set.
	Lc [][][2]float64
	// P is the Mode Accessor: P.Mode(i, j) returns mode j at frequency
	// i, flattened to Shape().
	P modes.Accessor
	// Params is the fully resolved spectral parameter set C2 produced.
	Params *params.Params
}

type meaner interface {
	Mean() []complex128
}

// Analyze runs the full SPOD pipeline against p and returns the
// per-frequency energy spectrum, mode accessor, frequency grid, and
// (if requested) confidence bounds.
func Analyze(p provider.Provider, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	shape := p.Shape()
	nTime := p.Count()
	isComplexHint := p.IsComplex()

	_, isLazy := p.(*provider.Lazy)
	if m, ok := p.(meaner); ok && opts.Options.Mean == nil {
		opts.Options.Mean = m.Mean()
	}

	pr, err := params.Resolve(shape, nTime, isComplexHint, isLazy, opts.Options, opts.Sink)
	if err != nil {
		return nil, err
	}

	nf := freqaxis.NumFreq(pr.NDFT, pr.IsComplex)
	f := freqaxis.Build(pr.NDFT, pr.Dt, pr.IsComplex)

	logger.Info(pr.Describe(), logging.Fields{
		"n_f": nf, "nyquist_hz": humanize.FormatFloat("#,###.##", 0.5/pr.Dt),
	})

	confLevel := 0.0
	if opts.ConfLevel != nil {
		confLevel = *opts.ConfLevel
		if confLevel <= 0 || confLevel >= 1 {
			return nil, spoderr.NewParameterError("conf_level=%v must lie in (0,1)", confLevel)
		}
	}

	nSave := pr.NBlks
	if opts.NSave != nil {
		nSave = *opts.NSave
	}

	deleteBlocks := true
	if opts.DeleteBlocks != nil {
		deleteBlocks = *opts.DeleteBlocks
	}

	saveDir := opts.SaveDir
	if saveDir == "" {
		saveDir = "results"
	}
	effDir := filepath.Join(saveDir, fmt.Sprintf("nfft%d_novlp%d_nblks%d", pr.NDFT, pr.NOvlp, pr.NBlks))

	var saveFreqSet map[int]bool
	if opts.SaveFreqs != nil {
		saveFreqSet = make(map[int]bool, len(opts.SaveFreqs))
		for _, i := range opts.SaveFreqs {
			saveFreqSet[i] = true
		}
	}

	var blockStore store.Store
	var modeStore *store.ModeStore
	if opts.SaveBlocks {
		ss, err := store.NewSQLiteStore(effDir, nf, pr.Nx, pr.NBlks, saveFreqSet)
		if err != nil {
			return nil, err
		}
		blockStore = ss
		modeStore, err = store.NewModeStore(effDir, shape)
		if err != nil {
			ss.Close()
			return nil, err
		}
	} else {
		blockStore = store.NewMemStore(nf, pr.Nx, pr.NBlks)
	}

	if err := blockfft.Run(p, pr, blockStore, opts.Sink); err != nil {
		blockStore.Close()
		if modeStore != nil {
			modeStore.Close()
		}
		return nil, err
	}

	selected := blockStore.ListFrequencies()
	sort.Ints(selected)

	L := make([][]float64, nf)
	var Lc [][][2]float64
	if confLevel > 0 {
		Lc = make([][][2]float64, nf)
	}
	memModes := make([]*store.Matrix, nf)

	for idx, i := range selected {
		A, err := blockStore.ReadFrequency(i)
		if err != nil {
			return nil, err
		}
		res, err := solver.SolveFrequency(A, pr.Weight, solver.Options{ConfLevel: confLevel}, opts.Sink)
		if err != nil {
			return nil, err
		}
		L[i] = res.Energies
		if confLevel > 0 {
			bounds := make([][2]float64, len(res.Energies))
			for j := range bounds {
				bounds[j] = [2]float64{res.ConfLow[j], res.ConfHigh[j]}
			}
			Lc[i] = bounds
		}
		if modeStore != nil {
			if err := modeStore.PutModes(i, res.Modes, nSave); err != nil {
				return nil, err
			}
		} else {
			memModes[i] = res.Modes
		}
		opts.Sink.ReportProgress(diag.StageSolver, idx+1, len(selected), "frequency solved")
	}

	var accessor modes.Accessor
	if modeStore != nil {
		accessor = modes.NewStoreAccessor(modeStore)
		if err := blockStore.Close(); err != nil {
			return nil, err
		}
		if deleteBlocks {
			if sqliteStore, ok := blockStore.(*store.SQLiteStore); ok {
				size, _ := sqliteStore.DiskUsage()
				logger.Info("deleting block store after mode extraction", logging.Fields{"bytes": humanize.Bytes(uint64(size))})
			}
			if rmErr := os.RemoveAll(filepath.Join(effDir, "fft_blocks.db")); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warn("failed to delete block store", logging.Fields{"error": rmErr.Error()})
			}
		}
	} else {
		accessor = modes.NewMemAccessor(shape, memModes)
		if err := blockStore.Close(); err != nil {
			return nil, err
		}
	}

	logLeadingModeSummary(logger, L)

	return &Result{L: L, F: f, Lc: Lc, P: accessor, Params: pr}, nil
}

// logLeadingModeSummary reports the mean and standard deviation of the
// leading-mode energy across every solved frequency, a quick sanity
// diagnostic for whether the spectrum is dominated by a narrow band or
// spread broadly.
func logLeadingModeSummary(logger logging.Logger, L [][]float64) {
	var leading []float64
	for _, row := range L {
		if len(row) > 0 {
			leading = append(leading, row[0])
		}
	}
	if len(leading) == 0 {
		return
	}
	mean := stat.Mean(leading, nil)
	stdDev := stat.StdDev(leading, nil)
	logger.Info("leading-mode energy summary", logging.Fields{
		"mean":    humanize.FormatFloat("#,###.###", mean),
		"std_dev": humanize.FormatFloat("#,###.###", stdDev),
		"n_f":     len(leading),
	})
}
