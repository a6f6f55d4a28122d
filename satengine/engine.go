// Package satengine implements the CDCL core: two-watched-literal unit
// propagation, 1-UIP conflict analysis, backjumping, VSIDS-style activity,
// and Luby restarts, as specified in §4.2. It additionally understands
// theory-tagged reasons: a literal's reason may point at a theory instead
// of a clause, and Analyze asks a caller-supplied Explainer to turn such a
// reason into a clause on demand.
package satengine

import (
	"math/rand"

	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
)

// Explainer reconstructs a reason clause for a literal whose propagation
// was attributed to a theory, as specified in §4.1: "the coordinator
// lazily asks its engine for a clause E such that E ⇒ l ...".
type Explainer interface {
	Explain(reason trail.Reason, propagated atom.Lit) []atom.Lit
}

// Engine is the CDCL SAT core. It does not own the theories; the
// coordinator polls Engine.Propagate first on every trail entry, per the
// fixed ordering guarantee in §4.1.
type Engine struct {
	Trail *trail.Trail
	DB    *clause.DB

	qhead int

	activity  []float64
	incAct    float64
	decayAct  float64
	polarity  []bool // phase saving: last value a variable held
	rng       *rand.Rand
	randFreq  float64

	restart               lubyRestart
	conflictsSinceRestart int64

	// Heuristic inputs from engines (§4.2): aggregate/definition engines
	// may request activity bumps without otherwise touching the trail.

	polMode PolarityMode
	seen    []bool // whether polarity[v] holds a real saved phase yet
}

// PolarityMode selects the phase Decide picks for a variable that has
// never been assigned before, per the CLI's --polarity flag (§6).
// Variables that have already been assigned and backtracked always use
// their saved phase, regardless of mode.
type PolarityMode int

const (
	PolaritySavedFalse PolarityMode = iota // default: unseen vars start false
	PolarityTrue
	PolarityFalse
	PolarityRand
)

// SetPolarityMode sets the initial-phase policy for never-before-assigned
// variables.
func (e *Engine) SetPolarityMode(m PolarityMode) { e.polMode = m }

// NewEngine creates a CDCL engine sharing the given trail and clause
// database with the coordinator and its theories.
func NewEngine(tr *trail.Trail, db *clause.DB) *Engine {
	n := tr.NumVars()
	e := &Engine{
		Trail:    tr,
		DB:       db,
		activity: make([]float64, n),
		incAct:   1.0,
		decayAct: 0.95,
		polarity: make([]bool, n),
		rng:      rand.New(rand.NewSource(1)),
		randFreq: 0.02,
		restart:  newLubyRestart(100),
	}
	return e
}

// Grow extends internal per-variable arrays when the coordinator declares
// a new atom after construction.
func (e *Engine) Grow(nVars int) {
	for len(e.activity) < nVars {
		e.activity = append(e.activity, 0)
		e.polarity = append(e.polarity, false)
	}
}

// BumpVarActivity increases a variable's VSIDS score; exposed so the
// aggregate and definition engines can request a bump per §4.2's
// "Heuristic inputs from engines".
func (e *Engine) BumpVarActivity(a atom.Atom) {
	e.activity[a] += e.incAct
	if e.activity[a] > 1e100 {
		for i := range e.activity {
			e.activity[i] *= 1e-100
		}
		e.incAct *= 1e-100
	}
}

func (e *Engine) decayActivity() {
	e.incAct /= e.decayAct
}

// NewDecisionLevel opens a new decision level on the trail.
func (e *Engine) NewDecisionLevel() { e.Trail.NewDecisionLevel() }

// BacktrackTo undoes the trail to the given level and resets the
// propagation queue head accordingly.
func (e *Engine) BacktrackTo(level int) {
	e.Trail.BacktrackTo(level)
	if e.qhead > e.Trail.Len() {
		e.qhead = e.Trail.Len()
	}
}

// Enqueue asserts l with the given reason, recording the current polarity
// for phase saving.
func (e *Engine) Enqueue(l atom.Lit, reason trail.Reason) bool {
	e.polarity[l.Var()] = !l.Sign()
	for len(e.seen) <= int(l.Var()) {
		e.seen = append(e.seen, false)
	}
	e.seen[l.Var()] = true
	return e.Trail.Enqueue(l, reason)
}

// Propagate runs unit propagation over the clause database to fixpoint
// (or conflict), using two-watched literals. It does not call out to
// theories; the coordinator interleaves those calls between invocations.
func (e *Engine) Propagate() (conflict clause.Ref, ok bool) {
	for e.qhead < e.Trail.Len() {
		p := e.Trail.LitAt(e.qhead)
		e.qhead++

		watchers := e.DB.Watchers(p)
		keep := watchers[:0:0]
		for i := 0; i < len(watchers); i++ {
			r := watchers[i]
			if e.DB.Deleted(r) {
				continue
			}
			c := e.DB.Get(r)
			if len(c.Lits) < 2 {
				// Unit/empty clauses are watched on their single literal;
				// falsifying it is a conflict.
				if e.Trail.Value(c.Lits[0]) == atom.LFalse {
					keep = append(keep, watchers[i:]...)
					e.DB.SetWatchers(p, keep)
					return r, false
				}
				keep = append(keep, r)
				continue
			}

			// Normalize so Lits[0] is the watch literal that just got
			// falsified (the other watch may be in either slot).
			if c.Lits[0] != p.Negate() {
				c.Lits[0], c.Lits[1] = c.Lits[1], c.Lits[0]
			}

			if e.Trail.Value(c.Lits[1]) == atom.LTrue {
				// Already satisfied by the other watch.
				keep = append(keep, r)
				continue
			}

			// Look for a new watch among the non-watched literals.
			moved := false
			for k := 2; k < len(c.Lits); k++ {
				if e.Trail.Value(c.Lits[k]) != atom.LFalse {
					c.Lits[0], c.Lits[k] = c.Lits[k], c.Lits[0]
					e.DB.SetWatchers(c.Lits[0].Negate(), append(e.DB.Watchers(c.Lits[0].Negate()), r))
					moved = true
					break
				}
			}
			if moved {
				continue
			}

			// No replacement: clause is unit on Lits[1] or a conflict.
			keep = append(keep, r)
			if e.Trail.Value(c.Lits[1]) == atom.LFalse {
				// Conflict: restore remaining watchers unexamined.
				keep = append(keep, watchers[i+1:]...)
				e.DB.SetWatchers(p, keep)
				return r, false
			}
			if !e.Enqueue(c.Lits[1], trail.ClauseReason(r)) {
				keep = append(keep, watchers[i+1:]...)
				e.DB.SetWatchers(p, keep)
				return r, false
			}
		}
		e.DB.SetWatchers(p, keep)
	}
	return clause.RefNone, true
}

// MakeClause allocates a clause without registering watches, used to
// materialize on-demand theory explanations (§4.2).
func (e *Engine) MakeClause(lits []atom.Lit, learned bool) clause.Ref {
	return e.DB.MakeClause(lits, learned)
}

// AddLearnedClause adds a clause to the database and, if it is unit under
// the current assignment, immediately enqueues the implied literal,
// per §4.2's requirement that add_learned_clause unit-propagates.
func (e *Engine) AddLearnedClause(lits []atom.Lit) (clause.Ref, bool) {
	r := e.DB.Add(lits, true)
	c := e.DB.Get(r)
	var unit atom.Lit
	undef := 0
	for _, l := range c.Lits {
		switch e.Trail.Value(l) {
		case atom.LTrue:
			return r, true
		case atom.LUndef:
			undef++
			unit = l
		}
	}
	// Every literal false: a genuine conflict, surfaced to the caller.
	if undef == 0 {
		return r, false
	}
	// Exactly one undetermined literal: unit propagation.
	if undef == 1 {
		return r, e.Enqueue(unit, trail.ClauseReason(r))
	}
	return r, true
}

// Decide selects the next decision literal using VSIDS activity with
// phase saving, skipping already-assigned variables.
func (e *Engine) Decide() (atom.Lit, bool) {
	best := -1
	bestAct := -1.0
	for a := 0; a < e.Trail.NumVars(); a++ {
		if e.Trail.VarValue(atom.Atom(a)) != atom.LUndef {
			continue
		}
		if e.activity[a] > bestAct {
			bestAct = e.activity[a]
			best = a
		}
	}
	if best < 0 {
		return 0, false
	}
	sign := !e.polarity[best]
	if best >= len(e.seen) || !e.seen[best] {
		switch e.polMode {
		case PolarityTrue:
			sign = false
		case PolarityFalse:
			sign = true
		case PolarityRand:
			sign = e.rng.Float64() < 0.5
		}
	}
	return atom.MkLit(atom.Atom(best), sign), true
}

// ShouldRestart reports whether the Luby restart schedule recommends a
// restart now (called by the coordinator after a conflict is learned). It
// consults the count of conflicts seen since the last restart, not the
// cumulative total, so the cadence between restarts actually follows the
// Luby sequence instead of firing on nearly every conflict once the
// cumulative total first crosses a threshold.
func (e *Engine) ShouldRestart() bool {
	return e.restart.due(e.conflictsSinceRestart)
}

// OnRestart advances the Luby sequence and resets the since-restart
// conflict counter ShouldRestart consults.
func (e *Engine) OnRestart() {
	e.restart.advance()
	e.conflictsSinceRestart = 0
}

// OnConflict decays variable activity, matching standard VSIDS update
// timing (once per conflict, before bumping the literals involved), and
// counts the conflict toward the next restart threshold.
func (e *Engine) OnConflict() {
	e.decayActivity()
	e.conflictsSinceRestart++
}
