package aggregate

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/gosatid/satid/atom"
)

// Witness is the partially-watched cardinality strategy's per-aggregate
// state, per §4.3: two safe witness subsets are maintained alongside the
// engine's incremental (CC, CP) bookkeeping, which still runs — NF/NFex
// witnesses that the "at least K true" side can still be met, and NT/NTex
// witnesses that the "at least K false" side can still be met. When
// Options.UseGiniCardinality is set, the witness search is additionally
// backed by a sorting network built with go-air/gini's logic.CardSort and
// solved with a gini.Gini instance, mirroring OLM's
// pkg/controller/registry/resolver/solver CardinalityConstrainer +
// incremental Leq(w) pattern.
type Witness struct {
	agg *Aggregate

	// NF: literals currently true or undef, witnessing the cardinality
	// can still reach the bound from below (can-still-be-made-true
	// witness).
	nf []atom.Lit
	// NT: literals currently false or undef, witnessing the cardinality
	// can still stay under the bound (can-still-be-made-false witness).
	nt []atom.Lit

	c      *logic.C
	g      *gini.Gini
	card   *logic.CardSort
	litMap map[atom.Atom]z.Lit
}

func newPWState(a *Aggregate) *Witness {
	s := &Witness{agg: a}
	s.rebuildWitnesses(nil)
	s.buildGini()
	return s
}

// NewGiniCardinalityWitness builds the gini-accelerated witness state for
// a standalone cardinality aggregate, outside
// Engine.Add/Options.UseGiniCardinality; no package in this module calls it.
func NewGiniCardinalityWitness(a *Aggregate) *Witness {
	return newPWState(a)
}

// buildGini constructs the sorting network over the aggregate's set
// literals once, at registration time; subsequent Leq queries reuse the
// same network and only push a fresh assumption, exactly as OLM's
// CardinalityConstrainer does for "at most N installed" constraints.
func (s *Witness) buildGini() {
	s.c = logic.NewCCap(len(s.agg.Set.Entries))
	s.litMap = make(map[atom.Atom]z.Lit, len(s.agg.Set.Entries))
	ins := make([]z.Lit, 0, len(s.agg.Set.Entries))
	for _, ent := range s.agg.Set.Entries {
		lv, ok := s.litMap[ent.Lit.Var()]
		if !ok {
			lv = s.c.Lit()
			s.litMap[ent.Lit.Var()] = lv
		}
		ins = append(ins, lv)
	}
	s.card = logic.NewCardSort(ins, s.c)
	s.g = gini.New()
	clen := s.c.Len()
	marks := make([]int8, clen)
	for w := 0; w <= s.card.N(); w++ {
		marks, _ = s.c.CnfSince(s.g, marks, s.card.Leq(w))
	}
}

// Leq asserts, via an incremental gini assumption, that at most w of the
// set's literals can be true. optimize.GiniCardinalityMinimizer builds the
// same kind of Leq literal but asserts it as a unit clause in the
// coordinator's clause database instead of assuming it (§4.6).
func (s *Witness) Leq(w int) bool {
	if s.card == nil || w < 0 || w > s.card.N() {
		return true
	}
	s.g.Assume(s.card.Leq(w))
	return s.g.Solve() == 1
}

// rebuildWitnesses recomputes NF/NT from scratch given a value function
// (current assignment); passing nil recomputes against the aggregate's
// undef-everywhere initial state.
func (s *Witness) rebuildWitnesses(value func(atom.Lit) atom.LBool) {
	s.nf = s.nf[:0]
	s.nt = s.nt[:0]
	need := s.agg.Bound
	for _, ent := range s.agg.Set.Entries {
		v := atom.LUndef
		if value != nil {
			v = value(ent.Lit)
		}
		if v != atom.LFalse && int64(len(s.nf)) < int64(need) {
			s.nf = append(s.nf, ent.Lit)
		}
		if v != atom.LTrue {
			s.nt = append(s.nt, ent.Lit)
		}
	}
}

// OnLiteralAssigned implements the PW "on loss of a witness, attempt to
// replace it from the pool; if no replacement exists, propagate/conflict"
// rule of §4.3. It reports a literal that must be propagated (the pool is
// exhausted on one side) or a conflict.
func (s *Witness) OnLiteralAssigned(l atom.Lit, value func(atom.Lit) atom.LBool) (propagate atom.Lit, hasProp bool, conflict bool) {
	v := l.Var()
	s.nf = removeVar(s.nf, v)
	s.nt = removeVar(s.nt, v)

	for _, ent := range s.agg.Set.Entries {
		ev := value(ent.Lit)
		if containsVar(s.nf, ent.Lit.Var()) || containsVar(s.nt, ent.Lit.Var()) {
			continue
		}
		if int64(len(s.nf)) < s.agg.Bound && ev != atom.LFalse {
			s.nf = append(s.nf, ent.Lit)
		}
		if ev != atom.LTrue {
			s.nt = append(s.nt, ent.Lit)
		}
	}

	if int64(len(s.nf)) < s.agg.Bound {
		// No witness left that the bound can still be reached from below:
		// the first remaining undetermined literal is reported to be forced
		// true (one literal per call), or it is a conflict if none remain.
		for _, ent := range s.agg.Set.Entries {
			if value(ent.Lit) == atom.LUndef {
				return ent.Lit, true, false
			}
		}
		return atom.LitNull, false, true
	}
	return atom.LitNull, false, false
}

func removeVar(lits []atom.Lit, v atom.Atom) []atom.Lit {
	out := lits[:0]
	for _, l := range lits {
		if l.Var() != v {
			out = append(out, l)
		}
	}
	return out
}

func containsVar(lits []atom.Lit, v atom.Atom) bool {
	for _, l := range lits {
		if l.Var() == v {
			return true
		}
	}
	return false
}
