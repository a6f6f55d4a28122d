package optimize

import (
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/coordinator"
)

// cnfAdder implements gini's inter.Adder by translating AIG literals into
// atom.Lit clauses added directly to the coordinator's own clause database
// (via Coordinator.AddClause/NewVar), so a compiled sorting network
// interacts with the main CDCL search instead of a private gini.Gini
// instance the way cpbridge.GiniReifier does. Candidate literals are
// seeded into zToA up front so the network's leaf inputs ARE the
// coordinator's own atoms, not companions tied to them by extra clauses.
type cnfAdder struct {
	co   *coordinator.Coordinator
	zToA map[z.Lit]atom.Lit
	buf  []atom.Lit
}

func newCNFAdder(co *coordinator.Coordinator) *cnfAdder {
	return &cnfAdder{co: co, zToA: make(map[z.Lit]atom.Lit)}
}

func (a *cnfAdder) litFor(zl z.Lit) atom.Lit {
	base, neg := zl, false
	if !zl.IsPos() {
		base, neg = zl.Not(), true
	}
	l, ok := a.zToA[base]
	if !ok {
		l = atom.MkLit(a.co.NewVar(), false)
		a.zToA[base] = l
	}
	if neg {
		return l.Negate()
	}
	return l
}

// Add implements inter.Adder: an accumulated run of literals terminated by
// z.LitNull becomes one clause added to the coordinator's database.
func (a *cnfAdder) Add(m z.Lit) {
	if m == z.LitNull {
		a.co.AddClause(a.buf)
		a.buf = nil
		return
	}
	a.buf = append(a.buf, a.litFor(m))
}

// GiniCardinalityMinimizer mirrors OLM's CardinalityConstrainer plus its
// solve.go incremental Leq(w)-tightening loop: build one sorting network
// over the candidate literal set once, then tighten w by one on each model
// by asserting the network's own cs.Leq(w) literal, instead of adding a
// fresh blocking clause derived from the model's shape every round the way
// SubsetMinimize does.
type GiniCardinalityMinimizer struct {
	co    *coordinator.Coordinator
	c     *logic.C
	adder *cnfAdder
	cs    *logic.CardSort
	marks []int8
	w     int
}

// NewGiniCardinalityMinimizer builds the sorting network over candidates.
func NewGiniCardinalityMinimizer(co *coordinator.Coordinator, candidates []atom.Lit) *GiniCardinalityMinimizer {
	c := logic.NewCCap(len(candidates) * 2)
	adder := newCNFAdder(co)
	ins := make([]z.Lit, len(candidates))
	for i, lit := range candidates {
		zi := c.Lit()
		adder.zToA[zi] = lit
		ins[i] = zi
	}
	cs := logic.NewCardSort(ins, c)
	return &GiniCardinalityMinimizer{co: co, c: c, adder: adder, cs: cs, w: cs.N()}
}

func (m *GiniCardinalityMinimizer) compile(roots ...z.Lit) {
	for len(m.marks) < m.c.Len() {
		m.marks = append(m.marks, 0)
	}
	m.marks, _ = m.c.CnfSince(m.adder, m.marks, roots...)
}

// Tighten asserts "count(candidates) <= w-1" into the coordinator's clause
// database and decrements w, compiling only the sorting-network clauses
// newly reachable from this round's Leq literal. It reports false once w
// has reached 0 (no further tightening is possible) or the assertion
// itself conflicts immediately.
func (m *GiniCardinalityMinimizer) Tighten() bool {
	if m.w <= 0 {
		return false
	}
	m.w--
	leq := m.cs.Leq(m.w)
	m.compile(leq)
	lit := m.adder.litFor(leq)
	return m.co.AddClause([]atom.Lit{lit})
}

// Run repeatedly solves, tightening the cardinality bound by one after
// each model, until UNSAT proves the last model's true-subset of
// candidates is minimal in size.
func (m *GiniCardinalityMinimizer) Run(assumptions []atom.Lit) *Result {
	var best *coordinator.Result
	rounds := 0
	for {
		res := m.co.Solve(assumptions, coordinator.SolveOptions{})
		if res.Status != coordinator.StatusSat {
			break
		}
		best = res
		rounds++
		if !m.Tighten() {
			break
		}
	}
	return &Result{Best: best, Rounds: rounds}
}
