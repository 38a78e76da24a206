// Package diag implements the single diagnostic channel the SPOD
// pipeline reports progress and advisory warnings through, in place of
// a process-wide print sink (spec.md §9).
package diag

// Stage identifies which pass of the pipeline emitted an event.
type Stage string

const (
	StageBlockFFT Stage = "block_fft"
	StageSolver   Stage = "solver"
)

// ProgressEvent reports completion of one unit of work (one block
// during the FFT pass, one frequency during the solver pass).
type ProgressEvent struct {
	Stage     Stage
	Index     int
	Total     int
	Message   string
}

// WarningKind enumerates the advisory NumericWarning cases of spec.md §7.
type WarningKind string

const (
	WarnNoNTimeForLazyProvider WarningKind = "no_n_time_for_lazy_provider"
	WarnNoMeanForLazyProvider  WarningKind = "no_mean_for_lazy_provider"
	WarnNonHermitianDrift      WarningKind = "non_hermitian_drift"
	WarnNonPositiveEigenvalue  WarningKind = "non_positive_eigenvalue_clamped"
)

// Warning is an advisory, non-fatal NumericWarning event.
type Warning struct {
	Kind    WarningKind
	Message string
}

// Sink receives diagnostic events. Either field may be nil; a nil Sink
// (the zero value) silently discards everything.
type Sink struct {
	Progress func(ProgressEvent)
	Warn     func(Warning)
}

func (s Sink) emitProgress(e ProgressEvent) {
	if s.Progress != nil {
		s.Progress(e)
	}
}

func (s Sink) emitWarning(w Warning) {
	if s.Warn != nil {
		s.Warn(w)
	}
}

// ReportProgress emits a progress event if the sink has a handler.
func (s Sink) ReportProgress(stage Stage, index, total int, message string) {
	s.emitProgress(ProgressEvent{Stage: stage, Index: index, Total: total, Message: message})
}

// ReportWarning emits an advisory warning if the sink has a handler.
func (s Sink) ReportWarning(kind WarningKind, message string) {
	s.emitWarning(Warning{Kind: kind, Message: message})
}
