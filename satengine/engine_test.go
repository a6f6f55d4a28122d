package satengine

import (
	"testing"

	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
)

func lit(d int) atom.Lit { return atom.FromDimacs(d) }

func newTestEngine(nVars int) *Engine {
	tr := trail.New(nVars)
	db := clause.NewDB()
	e := NewEngine(tr, db)
	tr.AddListener(unassignNoop{})
	return e
}

type unassignNoop struct{}

func (unassignNoop) NewDecisionLevel()     {}
func (unassignNoop) OnUnassign(atom.Lit) {}

func TestPropagateUnit(t *testing.T) {
	e := newTestEngine(2)
	e.DB.Add([]atom.Lit{lit(1)}, false)
	e.NewDecisionLevel()
	// Nothing asserted yet; unit clauses aren't auto-scanned by Propagate,
	// they must be enqueued by the coordinator's root simplification pass.
	// Verify direct enqueue + propagate of an implied literal instead.
	e.DB.Add([]atom.Lit{lit(-1), lit(2)}, false)
	e.Enqueue(lit(1), trail.DecisionReason)
	confl, ok := e.Propagate()
	if !ok {
		t.Fatalf("unexpected conflict: %v", confl)
	}
	if e.Trail.Value(lit(2)) != atom.LTrue {
		t.Fatalf("expected L2 implied true")
	}
}

func TestPropagateConflict(t *testing.T) {
	e := newTestEngine(2)
	e.DB.Add([]atom.Lit{lit(-1), lit(2)}, false)
	e.DB.Add([]atom.Lit{lit(-1), lit(-2)}, false)
	e.NewDecisionLevel()
	e.Enqueue(lit(1), trail.DecisionReason)
	_, ok := e.Propagate()
	if ok {
		t.Fatalf("expected conflict when L2 forced both ways")
	}
}

func TestAnalyzeProducesAssertingClause(t *testing.T) {
	// Classic chain: (~1 v 2), (~2 v 3), (~1 v ~3) — deciding 1 conflicts.
	e := newTestEngine(3)
	e.DB.Add([]atom.Lit{lit(-1), lit(2)}, false)
	e.DB.Add([]atom.Lit{lit(-2), lit(3)}, false)
	e.DB.Add([]atom.Lit{lit(-1), lit(-3)}, false)

	e.NewDecisionLevel()
	e.Enqueue(lit(1), trail.DecisionReason)
	confl, ok := e.Propagate()
	if ok {
		t.Fatalf("expected conflict")
	}

	learnt, btLevel, lbd := e.Analyze(confl, noopExplainer{})
	if len(learnt) == 0 {
		t.Fatalf("expected non-empty learned clause")
	}
	if btLevel != 0 {
		t.Fatalf("expected backtrack to level 0, got %d", btLevel)
	}
	if lbd < 1 {
		t.Fatalf("expected lbd >= 1, got %d", lbd)
	}
	// The learned clause must resolve the decision: asserting ~1.
	if learnt[0] != lit(-1) {
		t.Fatalf("expected asserting literal ~1, got %v", learnt[0])
	}
}

type noopExplainer struct{}

func (noopExplainer) Explain(trail.Reason, atom.Lit) []atom.Lit { return nil }

func TestLubyRestartSchedule(t *testing.T) {
	l := newLubyRestart(1)
	if !l.due(1) {
		t.Fatalf("expected restart due at first luby unit (1)")
	}
	if l.due(0) {
		t.Fatalf("should not restart before threshold")
	}
}
