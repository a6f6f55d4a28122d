package coordinator

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/cpbridge"
)

// AddCPTerm declares a bounded integer domain in the CP bridge, per §4.5.
// It reports ok=false when no bridge is configured (Options.EnableCP was
// false).
func (c *Coordinator) AddCPTerm(lo, hi int64) (term cpbridge.TermID, ok bool) {
	if c.cp == nil {
		return 0, false
	}
	return c.cp.bridge.NewTerm(lo, hi), true
}

// adoptReified grows coordinator-level capacity for a Boolean the bridge
// just minted and marks it bridge-owned, so propagateAll routes its trail
// assignments into the bridge.
func (c *Coordinator) adoptReified(lit atom.Lit) atom.Lit {
	c.AddVar(lit.Var())
	c.cp.own(lit.Var())
	return lit
}

// AddCPLeq reifies "term <= k" as a Boolean the caller can use in ordinary
// clauses, per §4.5.
func (c *Coordinator) AddCPLeq(term cpbridge.TermID, k int64) (atom.Lit, bool) {
	if c.cp == nil {
		return 0, false
	}
	return c.adoptReified(c.cp.bridge.ReifyLeq(term, k)), true
}

// AddCPEq reifies "term == k".
func (c *Coordinator) AddCPEq(term cpbridge.TermID, k int64) (atom.Lit, bool) {
	if c.cp == nil {
		return 0, false
	}
	return c.adoptReified(c.cp.bridge.ReifyEq(term, k)), true
}

// AddCPSum reifies "sum(coeffs[i]*terms[i]) <= bound".
func (c *Coordinator) AddCPSum(terms []cpbridge.TermID, coeffs []int64, bound int64) (atom.Lit, bool) {
	if c.cp == nil {
		return 0, false
	}
	return c.adoptReified(c.cp.bridge.ReifySum(terms, coeffs, bound)), true
}

// AddCPCount reifies "count of terms equal to value <= bound".
func (c *Coordinator) AddCPCount(terms []cpbridge.TermID, value, bound int64) (atom.Lit, bool) {
	if c.cp == nil {
		return 0, false
	}
	return c.adoptReified(c.cp.bridge.ReifyCount(terms, value, bound)), true
}

// AddCPAllDifferent reifies "every term takes a distinct value".
func (c *Coordinator) AddCPAllDifferent(terms []cpbridge.TermID) (atom.Lit, bool) {
	if c.cp == nil {
		return 0, false
	}
	return c.adoptReified(c.cp.bridge.ReifyAllDifferent(terms)), true
}

// cpFrame records one literal pushed into the CP bridge and the bridge
// snapshot handle taken immediately before the push, so OnUnassign can pop
// the bridge back conservatively — mirroring aggregate.Engine's own
// "pop only while the stack top matches the unassigned variable" rule,
// since the CP bridge is driven by the same trail-unassignment notifications.
type cpFrame struct {
	lit  atom.Lit
	snap int
}

// cpGlue drives a cpbridge.Engine from trail assignments: every assigned
// literal touching a bridge-owned atom is pushed in, and a conflict is
// surfaced as a fully-false explanation clause built from the bridge's own
// Explain. It implements trail.Listener purely for the OnUnassign hook;
// NewDecisionLevel is a no-op since bridge snapshots are taken per-literal,
// not per-level (the bridge has no native notion of a SAT decision level).
type cpGlue struct {
	bridge cpbridge.Engine
	owned  map[atom.Atom]bool // atoms this bridge reifies or declared as term results
	stack  []cpFrame

	lastConflict []atom.Lit
}

func newCPGlue(b cpbridge.Engine) *cpGlue {
	return &cpGlue{bridge: b, owned: make(map[atom.Atom]bool)}
}

func (g *cpGlue) own(a atom.Atom) { g.owned[a] = true }

func (g *cpGlue) NewDecisionLevel() {}

// OnUnassign pops the bridge back past every push recorded for l's
// variable, per the conservative backtrack rule.
func (g *cpGlue) OnUnassign(l atom.Lit) {
	for len(g.stack) > 0 && g.stack[len(g.stack)-1].lit.Var() == l.Var() {
		top := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]
		g.bridge.Pop(top.snap)
	}
}

// onAssign pushes l into the bridge if l's variable is bridge-owned,
// returning a ready-to-materialize conflict clause on contradiction.
func (g *cpGlue) onAssign(l atom.Lit) (confl []atom.Lit, conflict bool) {
	if !g.owned[l.Var()] {
		return nil, false
	}
	snap := g.bridge.Snapshot()
	isConflict := g.bridge.Push(l)
	g.stack = append(g.stack, cpFrame{lit: l, snap: snap})
	if !isConflict {
		return nil, false
	}
	expl := g.bridge.Explain(l)
	g.lastConflict = expl
	return expl, true
}
