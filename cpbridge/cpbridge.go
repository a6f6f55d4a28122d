// Package cpbridge defines the external constraint-programming
// collaborator interface of §4.5 and ships one concrete, fully-functional
// implementation (GiniReifier) so the interface has a real exercised
// backing instead of a mock, while the general black-box finite-domain
// propagator algorithm remains out of scope per the Non-goals.
package cpbridge

import "github.com/gosatid/satid/atom"

// TermID identifies a bounded integer domain variable declared with the
// bridge.
type TermID int32

// Engine is the external collaborator interface of §4.5: bounded integer
// domains, reified comparisons/sum/count/all-different constraints, and
// the Push/Propagate/Pop incremental-assumption discipline used to keep
// the external engine's state aligned with the SAT trail.
type Engine interface {
	// NewTerm declares a bounded integer domain variable with inclusive
	// bounds [lo, hi].
	NewTerm(lo, hi int64) TermID

	// ReifyLeq returns the Boolean literal equivalent to "term <= k",
	// creating it on first use.
	ReifyLeq(term TermID, k int64) atom.Lit
	// ReifyEq returns the Boolean literal equivalent to "term == k".
	ReifyEq(term TermID, k int64) atom.Lit
	// ReifySum returns the Boolean literal equivalent to
	// "sum(coeffs[i]*terms[i]) <= bound".
	ReifySum(terms []TermID, coeffs []int64, bound int64) atom.Lit
	// ReifyCount returns the Boolean literal equivalent to
	// "count of terms equal to value <= bound".
	ReifyCount(terms []TermID, value int64, bound int64) atom.Lit
	// ReifyAllDifferent returns the Boolean literal equivalent to "every
	// term takes a distinct value".
	ReifyAllDifferent(terms []TermID) atom.Lit

	// Push informs the bridge that the SAT side decided lit's truth value;
	// the bridge pushes the corresponding equality/inequality into the
	// external engine and runs it to fixpoint.
	Push(lit atom.Lit) (conflict bool)
	// Propagated returns every Boolean the external engine has newly
	// decided since the last call, to be forwarded as SAT propagations.
	Propagated() []atom.Lit
	// Explain returns, as a clause, the negation of every Boolean pushed
	// into the external engine at or before the point propagated was
	// derived (all of its literals are false under the current assignment).
	Explain(propagated atom.Lit) []atom.Lit

	// Snapshot returns an opaque handle capturing the bridge's current
	// state, to later Pop back to.
	Snapshot() int
	// Pop restores the bridge to the state at the given snapshot handle.
	Pop(handle int)
}
