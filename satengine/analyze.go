package satengine

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
)

// reasonLits returns the literals of the clause or theory explanation that
// justifies the current assignment of variable v, or the literals of a
// direct conflict clause when v is the zero value and confl is set.
func (e *Engine) reasonLits(v atom.Atom, explainer Explainer) []atom.Lit {
	r := e.Trail.Reason(v)
	switch r.Kind {
	case trail.ReasonClause:
		return e.DB.Get(r.Clause).Lits
	case trail.ReasonTheory:
		val := e.Trail.VarValue(v)
		propagated := atom.MkLit(v, val == atom.LFalse)
		return explainer.Explain(r, propagated)
	default:
		return nil
	}
}

// Analyze performs first-UIP conflict analysis starting from a conflict
// clause, producing a learned clause whose first literal is the asserting
// literal (the 1-UIP) and the decision level to backjump to, per §4.1/§4.2.
// explainer is consulted whenever analysis must resolve through a
// theory-tagged reason.
func (e *Engine) Analyze(confl clause.Ref, explainer Explainer) (learnt []atom.Lit, backtrackLevel int, lbd int) {
	tr := e.Trail
	seen := make([]bool, tr.NumVars())
	learnt = []atom.Lit{atom.LitNull}
	counter := 0
	idx := tr.Len() - 1
	p := atom.LitNull

	curLits := e.DB.Get(confl).Lits
	for {
		for _, q := range curLits {
			if !p.IsNull() && q.Var() == p.Var() {
				continue
			}
			v := q.Var()
			if seen[v] {
				continue
			}
			lvl := tr.VarLevel(v)
			if lvl == 0 {
				continue // root-level falsehoods are entailed by nothing; omit
			}
			seen[v] = true
			if lvl == tr.Level() {
				counter++
			} else {
				learnt = append(learnt, q)
			}
		}

		for !seen[tr.LitAt(idx).Var()] {
			idx--
		}
		p = tr.LitAt(idx)
		pv := p.Var()
		seen[pv] = false
		counter--
		idx--
		if counter == 0 {
			break
		}
		curLits = e.reasonLits(pv, explainer)
	}
	learnt[0] = p.Negate()

	backtrackLevel = 0
	for _, q := range learnt[1:] {
		if lv := tr.VarLevel(q.Var()); lv > backtrackLevel {
			backtrackLevel = lv
		}
	}
	lbd = computeLBD(learnt, tr)
	return
}

func computeLBD(learnt []atom.Lit, tr *trail.Trail) int {
	seenLevel := make(map[int]struct{}, len(learnt))
	for _, l := range learnt {
		seenLevel[tr.VarLevel(l.Var())] = struct{}{}
	}
	return len(seenLevel)
}

// Minimize removes redundant literals from a learned clause: a literal l
// is redundant if its negation's own reason clause is entirely subsumed by
// literals already present in the learned clause or at decision level 0.
// This is the standard self-subsuming-resolution minimization.
func (e *Engine) Minimize(learnt []atom.Lit, explainer Explainer) []atom.Lit {
	tr := e.Trail
	inLearnt := make(map[atom.Atom]bool, len(learnt))
	for _, l := range learnt {
		inLearnt[l.Var()] = true
	}

	redundant := func(l atom.Lit) bool {
		v := l.Var()
		r := tr.Reason(v)
		if r.Kind == trail.ReasonDecision {
			return false
		}
		lits := e.reasonLits(v, explainer)
		for _, q := range lits {
			if q.Var() == v {
				continue
			}
			if tr.VarLevel(q.Var()) == 0 {
				continue
			}
			if !inLearnt[q.Var()] {
				return false
			}
		}
		return true
	}

	out := learnt[:1]
	for _, l := range learnt[1:] {
		if !redundant(l.Negate()) {
			out = append(out, l)
		}
	}
	return out
}
