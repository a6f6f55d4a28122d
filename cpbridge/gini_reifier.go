package cpbridge

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/gosatid/satid/atom"
)

// maxDomainSize bounds a term's value range: GiniReifier represents each
// bounded integer domain as a one-hot block of SAT variables (one
// indicator per value, a direct encoding), which is only practical for
// small domains — consistent with treating this as one concrete backing
// for the CP bridge interface, not a general finite-domain propagator.
const maxDomainSize = 256

type termDomain struct {
	lo, hi int64
	valLit []z.Lit // one-hot indicator per value, index 0 == lo
}

// GiniReifier is a concrete, fully-functional cpbridge.Engine backed by
// github.com/go-air/gini: bounded integer domains are one-hot blocks of
// SAT variables inside a logic.C AIG that is incrementally compiled into
// a gini.Gini instance, mirroring the incremental CnfSince discipline
// operator-framework-operator-lifecycle-manager's solver package uses for
// its cardinality constrainer. Push/Propagate/Pop follow the same
// Test/Untest depth-tracked snapshot pattern as that package's
// depthTrackingGini.
type GiniReifier struct {
	c    *logic.C
	g    *gini.Gini
	marks []int8

	terms []termDomain

	nextAtom atom.Atom
	litOf    map[z.Lit]atom.Lit // AIG literal -> exported Boolean atom, for reified results
	zOf      map[atom.Atom]z.Lit

	pushed   []atom.Lit // stack of literals Push has asserted, for Explain/Snapshot
	snapDepths []int

	constFalse atom.Lit // permanently-false literal, returned for trivially-unsatisfiable reifications
	constTrue  atom.Lit // permanently-true literal, returned for trivially-valid reifications
}

// NewGiniReifier constructs an empty bridge. atomBase is the first atom
// number this bridge is free to allocate for fresh reified Booleans (the
// coordinator reserves a contiguous atom range for the bridge).
func NewGiniReifier(atomBase atom.Atom) *GiniReifier {
	r := &GiniReifier{
		c:        logic.NewCCap(64),
		g:        gini.New(),
		nextAtom: atomBase,
		litOf:    make(map[z.Lit]atom.Lit),
		zOf:      make(map[atom.Atom]z.Lit),
	}
	zf := r.c.Lit()
	r.assertTrue(zf.Not())
	r.constFalse = r.exportLit(zf)

	zt := r.c.Lit()
	r.assertTrue(zt)
	r.constTrue = r.exportLit(zt)
	return r
}

func (r *GiniReifier) compile(roots ...z.Lit) {
	clen := r.c.Len()
	for len(r.marks) < clen {
		r.marks = append(r.marks, 0)
	}
	r.marks, _ = r.c.CnfSince(r.g, r.marks, roots...)
}

// assertTrue compiles zl's defining clauses and permanently asserts it as a
// unit clause, per inter.Adder's Add(lit)/Add(0)-terminates-clause
// convention — Assume alone only holds for the next Solve/Test call, so
// domain-structural constraints like exactly-one need a real clause.
func (r *GiniReifier) assertTrue(zl z.Lit) {
	r.compile(zl)
	r.g.Add(zl)
	r.g.Add(0)
}

// exportLit allocates (or reuses) an atom.Lit wired 1:1 to a gini AIG
// literal, compiling its defining clauses eagerly so the SAT side can
// observe it immediately.
func (r *GiniReifier) exportLit(zl z.Lit) atom.Lit {
	if l, ok := r.litOf[zl]; ok {
		return l
	}
	a := r.nextAtom
	r.nextAtom++
	r.litOf[zl] = atom.MkLit(a, false)
	r.zOf[a] = zl
	r.compile(zl)
	return r.litOf[zl]
}

// NewTerm declares a bounded integer domain [lo, hi] as a one-hot block:
// exactly one of valLit[v-lo] holds.
func (r *GiniReifier) NewTerm(lo, hi int64) TermID {
	if hi < lo {
		panic("cpbridge: empty domain")
	}
	if hi-lo+1 > maxDomainSize {
		panic("cpbridge: domain too large for GiniReifier's one-hot encoding")
	}
	n := int(hi - lo + 1)
	vals := make([]z.Lit, n)
	for i := range vals {
		vals[i] = r.c.Lit()
	}
	// Exactly-one: at least one (OR), at most one (pairwise, over every
	// value pair, at most one of the pair holds) — both asserted as
	// permanent unit clauses via assertTrue, not transient assumptions.
	r.assertTrue(r.c.Ors(vals...))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r.assertTrue(r.c.Or(vals[i].Not(), vals[j].Not()))
		}
	}
	id := TermID(len(r.terms))
	r.terms = append(r.terms, termDomain{lo: lo, hi: hi, valLit: vals})
	return id
}

func (d *termDomain) valAt(v int64) (z.Lit, bool) {
	if v < d.lo || v > d.hi {
		return z.LitNull, false
	}
	return d.valLit[v-d.lo], true
}

// ReifyEq returns the Boolean literal equivalent to "term == k".
func (r *GiniReifier) ReifyEq(term TermID, k int64) atom.Lit {
	d := &r.terms[term]
	zl, ok := d.valAt(k)
	if !ok {
		return r.constFalse
	}
	return r.exportLit(zl)
}

// ReifyLeq returns the Boolean literal equivalent to "term <= k".
func (r *GiniReifier) ReifyLeq(term TermID, k int64) atom.Lit {
	d := &r.terms[term]
	if k >= d.hi {
		return r.constTrue
	}
	var ins []z.Lit
	for v := d.lo; v <= k && v <= d.hi; v++ {
		zl, _ := d.valAt(v)
		ins = append(ins, zl)
	}
	if len(ins) == 0 {
		return r.constFalse
	}
	return r.exportLit(r.c.Ors(ins...))
}

// ReifySum returns the Boolean literal equivalent to
// "sum(coeffs[i]*terms[i]) <= bound", built by full enumeration of the
// Cartesian product of term domains — sound for the small, bounded
// domains this bridge is designed for (see maxDomainSize).
func (r *GiniReifier) ReifySum(terms []TermID, coeffs []int64, bound int64) atom.Lit {
	var satisfying []z.Lit
	var combo func(i int, acc int64, picked []z.Lit)
	combo = func(i int, acc int64, picked []z.Lit) {
		if i == len(terms) {
			if acc <= bound {
				satisfying = append(satisfying, r.c.Ands(picked...))
			}
			return
		}
		d := &r.terms[terms[i]]
		for v := d.lo; v <= d.hi; v++ {
			zl, _ := d.valAt(v)
			combo(i+1, acc+coeffs[i]*v, append(picked, zl))
		}
	}
	combo(0, 0, nil)
	if len(satisfying) == 0 {
		return r.constFalse
	}
	return r.exportLit(r.c.Ors(satisfying...))
}

// ReifyCount returns the Boolean literal equivalent to
// "count of terms equal to value <= bound", built with a cardinality
// sorting network over per-term equality indicators — the same
// logic.CardSort primitive aggregate.Witness uses for accelerated
// cardinality propagation.
func (r *GiniReifier) ReifyCount(terms []TermID, value int64, bound int64) atom.Lit {
	ind := make([]z.Lit, 0, len(terms))
	for _, t := range terms {
		d := &r.terms[t]
		if zl, ok := d.valAt(value); ok {
			ind = append(ind, zl)
		}
	}
	cs := r.c.CardSort(ind)
	if bound < 0 {
		return r.constFalse
	}
	if int(bound) >= cs.N() {
		return r.constTrue
	}
	return r.exportLit(cs.Leq(int(bound)))
}

// ReifyAllDifferent returns the Boolean literal equivalent to "every term
// takes a distinct value": the conjunction, over every pair of terms and
// every value shared by both domains, of "not both equal to that value".
func (r *GiniReifier) ReifyAllDifferent(terms []TermID) atom.Lit {
	var conj []z.Lit
	for i := 0; i < len(terms); i++ {
		for j := i + 1; j < len(terms); j++ {
			di, dj := &r.terms[terms[i]], &r.terms[terms[j]]
			lo, hi := di.lo, di.hi
			if dj.lo > lo {
				lo = dj.lo
			}
			if dj.hi < hi {
				hi = dj.hi
			}
			for v := lo; v <= hi; v++ {
				zi, _ := di.valAt(v)
				zj, _ := dj.valAt(v)
				conj = append(conj, r.c.Or(zi.Not(), zj.Not()))
			}
		}
	}
	if len(conj) == 0 {
		return r.constTrue
	}
	return r.exportLit(r.c.Ands(conj...))
}

// Push asserts lit's truth value as one incremental Test frame, mirroring
// OLM's depthTrackingGini.Assume+Test pairing in solver/solve.go: each
// Push opens exactly one frame that a later Pop unwinds with Untest.
func (r *GiniReifier) Push(lit atom.Lit) (conflict bool) {
	zl, ok := r.zOf[lit.Var()]
	if !ok {
		return false
	}
	if lit.Sign() {
		zl = zl.Not()
	}
	r.g.Assume(zl)
	outcome, _ := r.g.Test(nil)
	r.pushed = append(r.pushed, lit)
	return outcome != 1
}

// Propagated returns literals newly forced by the external engine since
// the last call — this reifier defers all such discovery to Push's Test
// call, so the coordinator is expected to call Push for every SAT-side
// decision and treat a false return as nothing new to forward.
func (r *GiniReifier) Propagated() []atom.Lit { return nil }

// Explain returns the negation of every Boolean pushed so far, as one
// clause; propagated is not consulted, so the whole push stack is used.
func (r *GiniReifier) Explain(propagated atom.Lit) []atom.Lit {
	out := make([]atom.Lit, 0, len(r.pushed))
	for _, p := range r.pushed {
		out = append(out, p.Negate())
	}
	return out
}

// Snapshot returns a handle to the current push depth.
func (r *GiniReifier) Snapshot() int {
	h := len(r.snapDepths)
	r.snapDepths = append(r.snapDepths, len(r.pushed))
	return h
}

// Pop restores the bridge to the state at handle, undoing every Push
// since, per §4.5's "pop the CP engine to the matching snapshot".
func (r *GiniReifier) Pop(handle int) {
	if handle < 0 || handle >= len(r.snapDepths) {
		return
	}
	depth := r.snapDepths[handle]
	r.snapDepths = r.snapDepths[:handle]
	for len(r.pushed) > depth {
		r.g.Untest()
		r.pushed = r.pushed[:len(r.pushed)-1]
	}
}
