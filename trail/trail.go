// Package trail implements the single-writer assignment trail shared by the
// SAT engine and every theory. For each variable it records the current
// value, the decision level it was set at, and a reason: either a clause
// reference or a theory tag that the owning engine can expand into an
// explanation on demand, per §3/§4.1.
package trail

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
)

// TheoryID names the theory engine that produced a propagation, so the
// coordinator knows whom to ask for an explanation.
type TheoryID uint8

const (
	TheoryNone TheoryID = iota
	TheorySAT
	TheoryAggregate
	TheoryDefinition
	TheoryCP
)

func (t TheoryID) String() string {
	switch t {
	case TheorySAT:
		return "sat"
	case TheoryAggregate:
		return "aggregate"
	case TheoryDefinition:
		return "definition"
	case TheoryCP:
		return "cp"
	default:
		return "none"
	}
}

// ReasonKind distinguishes a clausal reason from a theory-tagged one.
type ReasonKind uint8

const (
	ReasonDecision ReasonKind = iota // no reason: this literal was decided
	ReasonClause
	ReasonTheory
)

// Reason is the tagged union described in §3: either nil (decision), a
// clause.Ref, or a TheoryID paired with an opaque per-theory token the
// theory can use to reconstruct its explanation.
type Reason struct {
	Kind   ReasonKind
	Clause clause.Ref
	Theory TheoryID
	Token  int64 // theory-defined, e.g. an index into the theory's own stack
}

// DecisionReason is the zero-value reason used for decision literals.
var DecisionReason = Reason{Kind: ReasonDecision}

// ClauseReason builds a Reason backed by a clause.
func ClauseReason(r clause.Ref) Reason {
	return Reason{Kind: ReasonClause, Clause: r}
}

// TheoryReason builds a Reason backed by a theory tag.
func TheoryReason(t TheoryID, token int64) Reason {
	return Reason{Kind: ReasonTheory, Theory: t, Token: token}
}

// varInfo is the per-variable trail bookkeeping.
type varInfo struct {
	value  atom.LBool
	level  int32
	reason Reason
	pos    int32 // index into Trail.lits, valid iff value != LUndef
}

// Trail is the totally ordered sequence of literals set true since the
// start of search, partitioned by decision levels. It is single-writer
// (owned by the SAT engine) and read-only to every theory.
type Trail struct {
	lits      []atom.Lit
	levelIdx  []int // levelIdx[d] = index into lits where decision level d begins
	vars      []varInfo
	listeners []Listener
}

// Listener is notified of decision-level boundaries and unassignments, so
// that theory engines can keep their own checkpoint stacks aligned with
// the trail, per the invariant in §3.
type Listener interface {
	NewDecisionLevel()
	OnUnassign(l atom.Lit)
}

// New creates an empty Trail sized for nVars variables.
func New(nVars int) *Trail {
	return &Trail{
		vars:     make([]varInfo, nVars),
		levelIdx: []int{0},
	}
}

// Grow extends the trail to accommodate a newly declared variable.
func (t *Trail) Grow(nVars int) {
	for len(t.vars) < nVars {
		t.vars = append(t.vars, varInfo{})
	}
}

// AddListener registers a theory engine to be notified of level changes
// and unassignments.
func (t *Trail) AddListener(l Listener) {
	t.listeners = append(t.listeners, l)
}

// NumVars returns the number of variables the trail is sized for.
func (t *Trail) NumVars() int { return len(t.vars) }

// Level returns the current decision level (0 = root level, no decisions).
func (t *Trail) Level() int { return len(t.levelIdx) - 1 }

// Len returns the number of literals currently on the trail.
func (t *Trail) Len() int { return len(t.lits) }

// NewDecisionLevel opens a new decision level and notifies listeners, per
// the `new_decision_level` hook in §4.2.
func (t *Trail) NewDecisionLevel() {
	t.levelIdx = append(t.levelIdx, len(t.lits))
	for _, l := range t.listeners {
		l.NewDecisionLevel()
	}
}

// Value returns the current value of a literal (not a variable): LTrue if
// l is currently satisfied, LFalse if falsified, LUndef otherwise.
func (t *Trail) Value(l atom.Lit) atom.LBool {
	v := t.vars[l.Var()].value
	if v == atom.LUndef {
		return atom.LUndef
	}
	if l.Sign() {
		if v == atom.LTrue {
			return atom.LFalse
		}
		return atom.LTrue
	}
	return v
}

// VarValue returns the current value assigned directly to an atom.
func (t *Trail) VarValue(a atom.Atom) atom.LBool {
	return t.vars[a].value
}

// VarLevel returns the decision level at which a was assigned. The
// variable must currently be assigned.
func (t *Trail) VarLevel(a atom.Atom) int {
	return int(t.vars[a].level)
}

// Reason returns the reason recorded for a, which must be assigned.
func (t *Trail) Reason(a atom.Atom) Reason {
	return t.vars[a].reason
}

// Enqueue asserts l as true at the current decision level with the given
// reason. It returns false if l was already falsified (a conflict the
// caller must handle) and true otherwise (including the no-op case where l
// was already true).
func (t *Trail) Enqueue(l atom.Lit, reason Reason) bool {
	cur := t.Value(l)
	if cur == atom.LTrue {
		return true
	}
	if cur == atom.LFalse {
		return false
	}
	a := l.Var()
	t.vars[a] = varInfo{
		value:  atom.FromBool(!l.Sign()),
		level:  int32(t.Level()),
		reason: reason,
		pos:    int32(len(t.lits)),
	}
	t.lits = append(t.lits, l)
	return true
}

// LitAt returns the literal at trail position i.
func (t *Trail) LitAt(i int) atom.Lit { return t.lits[i] }

// PositionOf returns the trail index of an assigned literal's variable.
func (t *Trail) PositionOf(a atom.Atom) int { return int(t.vars[a].pos) }

// LevelStart returns the trail index at which decision level d began.
func (t *Trail) LevelStart(d int) int {
	if d >= len(t.levelIdx) {
		return len(t.lits)
	}
	return t.levelIdx[d]
}

// BacktrackTo undoes every assignment made at a decision level greater
// than level, replaying removals in reverse trail order and notifying
// listeners via OnUnassign for each one, per §4.2.
func (t *Trail) BacktrackTo(level int) {
	if level >= t.Level() {
		return
	}
	start := t.levelIdx[level+1]
	for i := len(t.lits) - 1; i >= start; i-- {
		l := t.lits[i]
		t.vars[l.Var()] = varInfo{}
		for _, ls := range t.listeners {
			ls.OnUnassign(l)
		}
	}
	t.lits = t.lits[:start]
	t.levelIdx = t.levelIdx[:level+1]
}

// Assigned reports whether every variable in [0, n) has a value.
func (t *Trail) Assigned(n int) bool {
	if n > len(t.vars) {
		return false
	}
	for a := 0; a < n; a++ {
		if t.vars[a].value == atom.LUndef {
			return false
		}
	}
	return true
}

// Snapshot captures enough state to restore a Trail's read-only view from
// a theory's own backtracking checkpoint; used by engines that want to
// assert "the trail looked like this at my last push".
type Snapshot struct {
	Len   int
	Level int
}

// Snap returns a lightweight snapshot of the current trail position.
func (t *Trail) Snap() Snapshot {
	return Snapshot{Len: len(t.lits), Level: t.Level()}
}
