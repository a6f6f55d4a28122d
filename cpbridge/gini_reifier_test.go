package cpbridge

import "testing"

func TestReifyEqDistinctValuesAreDistinctLits(t *testing.T) {
	r := NewGiniReifier(1000)
	term := r.NewTerm(0, 3)
	a := r.ReifyEq(term, 1)
	b := r.ReifyEq(term, 2)
	if a == b {
		t.Fatalf("expected ReifyEq(1) and ReifyEq(2) to be distinct literals")
	}
}

func TestReifyLeqAtUpperBoundIsTrivial(t *testing.T) {
	r := NewGiniReifier(1000)
	term := r.NewTerm(0, 3)
	lit := r.ReifyLeq(term, 3)
	if lit.IsNull() {
		t.Fatalf("expected a non-null literal for a trivially-true Leq")
	}
}

func TestReifyCountBuildsOverSharedValue(t *testing.T) {
	r := NewGiniReifier(1000)
	a := r.NewTerm(0, 2)
	b := r.NewTerm(0, 2)
	c := r.NewTerm(0, 2)
	lit := r.ReifyCount([]TermID{a, b, c}, 1, 2)
	if lit.IsNull() {
		t.Fatalf("expected a non-null reified count literal")
	}
}

func TestReifyAllDifferentOverOverlappingDomains(t *testing.T) {
	r := NewGiniReifier(1000)
	a := r.NewTerm(0, 1)
	b := r.NewTerm(0, 1)
	lit := r.ReifyAllDifferent([]TermID{a, b})
	if lit.IsNull() {
		t.Fatalf("expected a non-null all-different literal")
	}
}

func TestPushConflictingLiteralsIsDetected(t *testing.T) {
	r := NewGiniReifier(1000)
	term := r.NewTerm(0, 1)
	eq0 := r.ReifyEq(term, 0)
	eq1 := r.ReifyEq(term, 1)

	if conflict := r.Push(eq0); conflict {
		t.Fatalf("did not expect a conflict asserting term == 0 alone")
	}
	if conflict := r.Push(eq1); !conflict {
		t.Fatalf("expected a conflict asserting term == 0 and term == 1 simultaneously")
	}
}

func TestSnapshotAndPopRestoreState(t *testing.T) {
	r := NewGiniReifier(1000)
	term := r.NewTerm(0, 2)
	eq0 := r.ReifyEq(term, 0)
	eq1 := r.ReifyEq(term, 1)

	h := r.Snapshot()
	r.Push(eq0)
	if len(r.pushed) != 1 {
		t.Fatalf("expected one pushed literal after Push")
	}
	r.Pop(h)
	if len(r.pushed) != 0 {
		t.Fatalf("expected Pop to undo the push, got %d pushed literals", len(r.pushed))
	}

	r.Push(eq1)
	if len(r.pushed) != 1 {
		t.Fatalf("expected one pushed literal after a fresh Push following Pop")
	}
}
