// Package kernelio defines the result envelope every kernel component
// returns at its boundary, so internal failures never propagate as Go
// panics or bare errors past a component call. Grounded on the
// standard_io contract (Result/ok/fail/Metrics/ModuleRef/Signal)
// referenced by every module in the original kernel's import blocks.
package kernelio

// Status is the outcome of a component call.
type Status string

const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
)

// ModuleRef identifies the tier and module that produced a signal.
type ModuleRef struct {
	Tier     int
	Module   string
	Function string
}

// SignalKind distinguishes a data payload signal from a diagnostic one.
type SignalKind string

const (
	SignalData       SignalKind = "data"
	SignalDiagnostic SignalKind = "diagnostic"
)

// Signal is one unit of information emitted by a component: either a
// data payload or a diagnostic note about its own processing.
type Signal struct {
	Kind   SignalKind
	Source ModuleRef
	Name   string
	Detail string
}

// Metrics carries free-form numeric measurements alongside a Result.
type Metrics map[string]float64

// Result is the envelope every component returns instead of letting an
// exception escape its boundary.
type Result[T any] struct {
	Status  Status
	Value   T
	Signals []Signal
	Metrics Metrics
	Err     error
}

// OK builds a successful Result.
func OK[T any](value T, signals []Signal, metrics Metrics) Result[T] {
	return Result[T]{Status: StatusOK, Value: value, Signals: signals, Metrics: metrics}
}

// Fail builds a failed Result carrying the causing error.
func Fail[T any](err error, signals []Signal, metrics Metrics) Result[T] {
	return Result[T]{Status: StatusFail, Signals: signals, Metrics: metrics, Err: err}
}

// DiagnosticSignal builds a diagnostic Signal from a ModuleRef.
func DiagnosticSignal(ref ModuleRef, name, detail string) Signal {
	return Signal{Kind: SignalDiagnostic, Source: ref, Name: name, Detail: detail}
}

// DataSignal builds a data Signal from a ModuleRef.
func DataSignal(ref ModuleRef, name, detail string) Signal {
	return Signal{Kind: SignalData, Source: ref, Name: name, Detail: detail}
}
