package definition

import (
	"github.com/gosatid/satid/atom"
)

// TryJustify attempts to find a body literal for a's rule that is
// currently non-false and either external to a's positive SCC or already
// justified within it, per §4.4 step 5 ("try to find a new external (or
// justified-internal) body literal"). It returns the new Justification on
// success.
func (e *Engine) TryJustify(a atom.Atom) (*Justification, bool) {
	r, ok := e.rules[a]
	if !ok || r.Conn == AGGR {
		return nil, false
	}
	members := e.PositiveSCCMembers(a)
	inSCC := make(map[atom.Atom]bool, len(members))
	for _, m := range members {
		inSCC[m] = true
	}

	for _, b := range r.Body {
		if b.Sign() {
			continue // negative body literals never justify a positive loop
		}
		bv := b.Var()
		if e.tr.Value(b) == atom.LFalse {
			continue
		}
		if !inSCC[bv] {
			j := &Justification{Atom: a, Support: []atom.Lit{b}}
			e.just[a] = j
			return j, true
		}
		if existing, ok := e.just[bv]; ok && len(existing.Support) > 0 {
			j := &Justification{Atom: a, Support: []atom.Lit{b}}
			e.just[a] = j
			return j, true
		}
	}
	return nil, false
}

// RecomputeCycleSources returns the set of defined atoms whose chosen
// justification literal just became false and which are still undecided,
// per §4.4 step 5's "recompute cycle sources".
func (e *Engine) RecomputeCycleSources() []atom.Atom {
	var sources []atom.Atom
	for v, j := range e.just {
		if e.tr.VarValue(v) != atom.LUndef {
			continue
		}
		stillSupported := false
		for _, s := range j.Support {
			if e.tr.Value(s) != atom.LFalse {
				stillSupported = true
				break
			}
		}
		if !stillSupported {
			sources = append(sources, v)
		}
	}
	return sources
}

// External computes External(U) per §4.4's loop-formula construction: body
// literals of rules whose head is in U, whose variable is not in U, and
// which are not currently false.
func (e *Engine) External(U map[atom.Atom]bool) []atom.Lit {
	seen := make(map[atom.Lit]bool)
	var ext []atom.Lit
	for a := range U {
		r, ok := e.rules[a]
		if !ok || r.Conn == AGGR {
			continue
		}
		for _, b := range r.Body {
			if U[b.Var()] {
				continue
			}
			if e.tr.Value(b) == atom.LFalse {
				continue
			}
			if !seen[b] {
				seen[b] = true
				ext = append(ext, b)
			}
		}
	}
	return ext
}

// unfoundedBFS implements the breadth-first unfounded-set search of
// §4.4: starting from the cycle sources, grow U by including any
// undecided defined atom all of whose rules' positive bodies (restricted
// to literals still possibly true) are entirely within U, and which has
// no way to be justified from outside U.
func (e *Engine) unfoundedBFS(sources []atom.Atom) map[atom.Atom]bool {
	U := make(map[atom.Atom]bool, len(sources))
	queue := append([]atom.Atom(nil), sources...)
	for _, a := range sources {
		U[a] = true
	}
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		for _, m := range e.PositiveSCCMembers(a) {
			if U[m] || e.tr.VarValue(m) != atom.LUndef {
				continue
			}
			if _, justified := e.TryJustify(m); justified {
				continue
			}
			U[m] = true
			queue = append(queue, m)
		}
	}
	return U
}

// unfoundedPruningDFS implements the DFS variant of §4.4: identical
// closure condition, but abandons (prunes) the current branch as soon as
// any atom along it is found to be re-justifiable, avoiding committing it
// to U.
func (e *Engine) unfoundedPruningDFS(sources []atom.Atom) map[atom.Atom]bool {
	U := make(map[atom.Atom]bool)
	visited := make(map[atom.Atom]bool)

	var visit func(a atom.Atom) bool
	visit = func(a atom.Atom) bool {
		if visited[a] {
			return U[a]
		}
		visited[a] = true
		if _, justified := e.TryJustify(a); justified {
			return false
		}
		U[a] = true
		for _, m := range e.PositiveSCCMembers(a) {
			if e.tr.VarValue(m) != atom.LUndef {
				continue
			}
			if !visit(m) {
				delete(U, a)
				return false
			}
		}
		return true
	}
	for _, a := range sources {
		visit(a)
	}
	return U
}

// ComputeUnfoundedSet dispatches to the configured Strategy.
func (e *Engine) ComputeUnfoundedSet(sources []atom.Atom) map[atom.Atom]bool {
	if e.opt.Strategy == PruningDFS {
		return e.unfoundedPruningDFS(sources)
	}
	return e.unfoundedBFS(sources)
}

// LoopFormulaResult is either a direct conflict clause (some a in U is
// already true) or a set of per-atom propagations sharing one reason
// clause (every a in U propagated false), per §4.4's "Conflict vs.
// propagation" rule.
type LoopFormulaResult struct {
	Conflict    bool
	ConflictAt  atom.Atom
	Clause      []atom.Lit // the instantiated loop formula (conflict clause, or reason for each propagation)
	Propagate   []atom.Atom
}

// BuildLoopFormula constructs the loop formula for an unfounded set U per
// §4.4: ⋁External(U) ∨ ¬a for every a ∈ U, or, when |External(U)| exceeds
// the configured threshold, a single clause through a fresh Tseitin
// literal t (t ∨ ¬a) with t's defining clauses (t → ⋁External(U), and
// ¬eᵢ ∨ t for each external) pushed separately via newTseitin.
func (e *Engine) BuildLoopFormula(U map[atom.Atom]bool, newTseitin func() atom.Lit, addClause func([]atom.Lit)) LoopFormulaResult {
	ext := e.External(U)

	for a := range U {
		if e.tr.VarValue(a) == atom.LTrue {
			cl := append([]atom.Lit{}, ext...)
			cl = append(cl, atom.MkLit(a, true))
			return LoopFormulaResult{Conflict: true, ConflictAt: a, Clause: cl}
		}
	}

	var disj []atom.Lit
	if len(ext) > e.opt.TseitinThreshold {
		t := newTseitin()
		tDef := append([]atom.Lit{t}, ext...)
		// t -> OR(ext): (¬t ∨ e1 ∨ ... ∨ en)
		addClause(append([]atom.Lit{t.Negate()}, ext...))
		// ei -> t: (¬ei ∨ t) for each external
		for _, eLit := range ext {
			addClause([]atom.Lit{eLit.Negate(), t})
		}
		_ = tDef
		disj = []atom.Lit{t}
	} else {
		disj = ext
	}

	atoms := make([]atom.Atom, 0, len(U))
	for a := range U {
		atoms = append(atoms, a)
	}
	return LoopFormulaResult{Clause: disj, Propagate: atoms}
}
