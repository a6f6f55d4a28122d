// Package runtime encapsulates the one piece of process-wide mutable state
// this solver needs — a cancellation flag set by a host signal handler — and
// the shared structured logger every engine writes to, per §5's concurrency
// model ("single-threaded, cooperative") and the REDESIGN FLAGS §9 note on
// replacing ad hoc global mutable state with an explicit, passed-in owner.
// Grounded on the teacher's practice of centralizing solver-wide bookkeeping
// (SolverStatistics) on the top-level CDCLSolver rather than in globals.
package runtime

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Runtime is passed to coordinator.New and shared by every engine.
type Runtime struct {
	aborted atomic.Bool
	Log     *logrus.Logger
}

// New creates a Runtime with a logrus logger at the given level. Passing
// logrus.PanicLevel effectively silences the solver, as the tests do; the
// demo CLI derives its level from --verbosity instead.
func New(level logrus.Level) *Runtime {
	log := logrus.New()
	log.SetLevel(level)
	return &Runtime{Log: log}
}

// Abort requests that the search loop stop at its next honored suspension
// point (between decisions, or between enumerated models), per §5.
func (r *Runtime) Abort() { r.aborted.Store(true) }

// Aborted reports whether Abort has been called.
func (r *Runtime) Aborted() bool { return r.aborted.Load() }

// Reset clears the abort flag, so a Runtime can be reused across a fresh
// Solve call after a prior abort.
func (r *Runtime) Reset() { r.aborted.Store(false) }
