package coordinator

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/trail"
)

// SolveOptions controls one Solve call's assumptions and model-enumeration
// behavior, per §4.1's "enumerate models" input.
type SolveOptions struct {
	EnumerateModels bool
	MaxModels       int // 0 means unbounded when EnumerateModels is set
}

// Solve runs the CDCL search loop with the fixed theory polling order —
// SAT unit propagation, then aggregate, then the CP bridge, then definition
// (at end-of-queue) — deciding over forced choices and the caller's
// assumptions before falling back to VSIDS, per §4.1/§4.2.
func (c *Coordinator) Solve(assumptions []atom.Lit, opt SolveOptions) *Result {
	all := append(append([]atom.Lit{}, c.forced...), assumptions...)
	c.conflicts = 0
	// Every call starts from decision level 0, so clauses and aggregates
	// added since the previous call's model are searched afresh.
	c.sat.BacktrackTo(0)
	if c.qTheory > c.tr.Len() {
		c.qTheory = c.tr.Len()
	}
	models := 0
	var lastModel []atom.Lit

	for {
		if c.rt.Aborted() {
			return c.result(StatusUnknown, lastModel, models)
		}

		if !c.settle() {
			if models == 0 {
				return c.result(StatusUnsat, nil, 0)
			}
			return c.result(StatusSat, lastModel, models)
		}

		// Rescan from the first assumption each pass: a backjump may have
		// undone the level of one that was already decided.
		idx := 0
		for idx < len(all) && c.tr.Value(all[idx]) == atom.LTrue {
			idx++
		}
		if idx < len(all) {
			lit := all[idx]
			switch c.tr.Value(lit) {
			case atom.LFalse:
				if models == 0 {
					return c.result(StatusUnsat, nil, 0)
				}
				return c.result(StatusSat, lastModel, models)
			case atom.LUndef:
				c.sat.NewDecisionLevel()
				c.sat.Enqueue(lit, trail.DecisionReason)
			}
			continue
		}

		lit, has := c.sat.Decide()
		if !has {
			model := c.currentModel()
			models++
			lastModel = model
			if !opt.EnumerateModels || (opt.MaxModels > 0 && models >= opt.MaxModels) {
				return c.result(StatusSat, model, models)
			}
			if !c.invalidateModel() {
				return c.result(StatusSat, model, models)
			}
			continue
		}

		if c.sat.ShouldRestart() {
			c.sat.BacktrackTo(0)
			if c.qTheory > c.tr.Len() {
				c.qTheory = c.tr.Len()
			}
			c.sat.OnRestart()
			continue
		}

		c.sat.NewDecisionLevel()
		c.sat.Enqueue(lit, trail.DecisionReason)
	}
}

// result builds a Result stamped with the conflict count accumulated so far
// this Solve call, so callers (the CLI, optimize's tightening loop) can
// report it for diagnostics.
func (c *Coordinator) result(status Status, model []atom.Lit, modelCount int) *Result {
	return &Result{Status: status, Model: model, ModelCount: modelCount, Conflicts: c.conflicts}
}
