package trail

import (
	"testing"

	"github.com/gosatid/satid/atom"
)

func l(d int) atom.Lit { return atom.FromDimacs(d) }

type recordingListener struct {
	newLevels   int
	unassigned  []atom.Lit
}

func (r *recordingListener) NewDecisionLevel()     { r.newLevels++ }
func (r *recordingListener) OnUnassign(x atom.Lit) { r.unassigned = append(r.unassigned, x) }

func TestEnqueueAndValue(t *testing.T) {
	tr := New(3)
	if ok := tr.Enqueue(l(1), DecisionReason); !ok {
		t.Fatalf("enqueue should succeed on fresh variable")
	}
	if tr.Value(l(1)) != atom.LTrue {
		t.Fatalf("expected L1 true")
	}
	if tr.Value(l(-1)) != atom.LFalse {
		t.Fatalf("expected ~L1 false")
	}
	if tr.Value(l(2)) != atom.LUndef {
		t.Fatalf("expected L2 undef")
	}
}

func TestEnqueueConflict(t *testing.T) {
	tr := New(2)
	tr.Enqueue(l(1), DecisionReason)
	if ok := tr.Enqueue(l(-1), DecisionReason); ok {
		t.Fatalf("enqueueing a falsified literal must report conflict")
	}
}

func TestBacktrackNotifiesListeners(t *testing.T) {
	tr := New(3)
	rec := &recordingListener{}
	tr.AddListener(rec)

	tr.NewDecisionLevel()
	tr.Enqueue(l(1), DecisionReason)
	tr.NewDecisionLevel()
	tr.Enqueue(l(2), DecisionReason)
	tr.Enqueue(l(3), ClauseReason(0))

	if tr.Level() != 2 {
		t.Fatalf("expected level 2, got %d", tr.Level())
	}
	if rec.newLevels != 2 {
		t.Fatalf("expected 2 NewDecisionLevel calls, got %d", rec.newLevels)
	}

	tr.BacktrackTo(1)
	if tr.Level() != 1 {
		t.Fatalf("expected level 1 after backtrack, got %d", tr.Level())
	}
	if tr.Value(l(2)) != atom.LUndef || tr.Value(l(3)) != atom.LUndef {
		t.Fatalf("expected L2, L3 undone after backtrack")
	}
	if tr.Value(l(1)) != atom.LTrue {
		t.Fatalf("L1 should survive backtrack to level 1")
	}
	if len(rec.unassigned) != 2 {
		t.Fatalf("expected 2 OnUnassign calls, got %d", len(rec.unassigned))
	}
	// Reverse trail order: L3 was enqueued after L2, so it must be undone first.
	if rec.unassigned[0] != l(3) {
		t.Fatalf("expected reverse-order unassign, first was %v", rec.unassigned[0])
	}
}

func TestReasonRoundTrip(t *testing.T) {
	tr := New(1)
	tr.Enqueue(l(1), TheoryReason(TheoryAggregate, 42))
	r := tr.Reason(atom.Atom(0))
	if r.Kind != ReasonTheory || r.Theory != TheoryAggregate || r.Token != 42 {
		t.Fatalf("unexpected reason: %+v", r)
	}
}
