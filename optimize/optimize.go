// Package optimize implements the model-invalidation/optimization drivers
// of §4.6 on top of a *coordinator.Coordinator: subset-minimization,
// ordered-list (lexicographic) minimization, and sum-aggregate bound
// tightening. Each driver repeatedly calls Coordinator.Solve and adds a
// blocking or bound-tightening clause after every model, stopping at the
// first UNSAT — which proves the last model found was optimal. Grounded
// on the teacher's own "re-solve with an added constraint" iterative
// pattern (the teacher has no optimization driver of its own, so this is
// the pack's operator-framework-operator-lifecycle-manager cardinality
// solver's incremental-tightening idiom applied to a plain CDCL loop).
package optimize

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/coordinator"
)

// Result reports the best (last satisfiable) model a minimization driver
// found and how many improving rounds it took to prove optimality.
type Result struct {
	Best   *coordinator.Result
	Rounds int
}

func trueLiterals(model, of []atom.Lit) []atom.Lit {
	modelSet := make(map[atom.Lit]bool, len(model))
	for _, l := range model {
		modelSet[l] = true
	}
	var out []atom.Lit
	for _, l := range of {
		if modelSet[l] {
			out = append(out, l)
		}
	}
	return out
}

// SubsetMinimize performs §4.6 subset-minimization over s: after each
// model, at least one currently-true literal of s is required to become
// false in the next model. The loop stops at the first UNSAT, which proves
// the last model's true-subset of s is inclusion-minimal.
func SubsetMinimize(co *coordinator.Coordinator, assumptions []atom.Lit, s []atom.Lit) *Result {
	var best *coordinator.Result
	rounds := 0
	for {
		res := co.Solve(assumptions, coordinator.SolveOptions{})
		if res.Status != coordinator.StatusSat {
			break
		}
		best = res
		rounds++
		trueInS := trueLiterals(res.Model, s)
		if len(trueInS) == 0 {
			break // the empty subset is already achieved; nothing left to shrink
		}
		block := make([]atom.Lit, len(trueInS))
		for i, l := range trueInS {
			block[i] = l.Negate()
		}
		if !co.AddClause(block) {
			break
		}
	}
	return &Result{Best: best, Rounds: rounds}
}

// OrderedListMinimize performs §4.6 ordered-list (lexicographic)
// minimization over list = l1 < l2 < ... < ln: after each model, let i*
// be the first index with list[i*] true; list[i] for i < i* is forbidden
// permanently (an established invariant of every later round), and
// list[i*] itself is forbidden as a one-round assumption, forcing the next
// model (if any) to find a strictly later first-true index.
func OrderedListMinimize(co *coordinator.Coordinator, assumptions []atom.Lit, list []atom.Lit) *Result {
	forced := append([]atom.Lit{}, assumptions...)
	var best *coordinator.Result
	rounds := 0
	for {
		res := co.Solve(forced, coordinator.SolveOptions{})
		if res.Status != coordinator.StatusSat {
			break
		}
		best = res
		rounds++

		modelSet := make(map[atom.Lit]bool, len(res.Model))
		for _, l := range res.Model {
			modelSet[l] = true
		}
		istar := -1
		for i, l := range list {
			if modelSet[l] {
				istar = i
				break
			}
		}
		if istar < 0 {
			break // no list literal ever holds: already lexicographically minimal
		}
		ok := true
		for i := 0; i < istar; i++ {
			if !co.AddClause([]atom.Lit{list[i].Negate()}) {
				ok = false
				break
			}
		}
		if !ok {
			break
		}
		forced = append(append([]atom.Lit{}, assumptions...), list[istar].Negate())
	}
	return &Result{Best: best, Rounds: rounds}
}
