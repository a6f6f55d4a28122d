package optimize

import (
	"github.com/gosatid/satid/aggregate"
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/coordinator"
	"github.com/gosatid/satid/wlset"
)

// AggregateMinimizer performs §4.6 aggregate minimization over a sum
// aggregate: on each model it computes the current-certain sum under that
// model, then reifies and forces a fresh "sum <= CC-1" constraint before
// re-solving, per the spec's "tighten the bound to CC-1 and re-propagate".
// Each round mints a fresh reified bound Boolean rather than mutating the
// original aggregate's head in place, since the minimizer's bound is a
// one-directional constraint (UB) layered on top of the problem, not an
// equivalence replacing whatever head the caller's own aggregate used.
type AggregateMinimizer struct {
	co      *coordinator.Coordinator
	setID   string
	lits    []atom.Lit
	weights []wlset.Weight
}

// NewAggregateMinimizer builds a minimizer over the same (lits, weights)
// the caller already registered as setID via Coordinator.AddSet.
func NewAggregateMinimizer(co *coordinator.Coordinator, setID string, lits []atom.Lit, weights []wlset.Weight) *AggregateMinimizer {
	return &AggregateMinimizer{co: co, setID: setID, lits: lits, weights: weights}
}

func (m *AggregateMinimizer) currentCC(model []atom.Lit) wlset.Weight {
	modelSet := make(map[atom.Lit]bool, len(model))
	for _, l := range model {
		modelSet[l] = true
	}
	var cc wlset.Weight
	for i, l := range m.lits {
		if modelSet[l] {
			cc = cc.Add(m.weights[i])
		}
	}
	return cc
}

// Run repeatedly solves, tightening the sum's upper bound by one each
// round, until UNSAT proves the last model's sum is minimal.
func (m *AggregateMinimizer) Run(assumptions []atom.Lit) *Result {
	var best *coordinator.Result
	rounds := 0
	for {
		res := m.co.Solve(assumptions, coordinator.SolveOptions{})
		if res.Status != coordinator.StatusSat {
			break
		}
		best = res
		rounds++

		// UB heads mean Value < Bound, so Bound = CC forces sum <= CC-1.
		bound := m.currentCC(res.Model)
		c := atom.MkLit(m.co.NewVar(), false)
		if _, err := m.co.AddAggregate(c, m.setID, bound, aggregate.UB, aggregate.Sum, aggregate.Completion); err != nil {
			break
		}
		if !m.co.AddClause([]atom.Lit{c}) {
			break
		}
	}
	return &Result{Best: best, Rounds: rounds}
}
