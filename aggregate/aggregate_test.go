package aggregate

import (
	"testing"

	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
	"github.com/gosatid/satid/wlset"
)

func l(d int) atom.Lit { return atom.FromDimacs(d) }

func newEnv(nVars int) (*trail.Trail, *clause.DB, *Engine) {
	tr := trail.New(nVars)
	db := clause.NewDB()
	e := NewEngine(tr, db, Options{})
	return tr, db, e
}

func TestSumAggregateDerivesHeadTrue(t *testing.T) {
	// head <=> (a*2 + b*3 >= 4), head is atom 3.
	tr, _, e := newEnv(3)
	set := wlset.New("s", []atom.Lit{l(1), l(2)}, []wlset.Weight{2, 3})
	set.Reduce(wlset.OpSum)
	a := &Aggregate{Head: l(3), Set: set, Bound: 4, Sign: LB, Type: Sum, Sem: Completion}
	e.Add(a)

	tr.NewDecisionLevel()
	tr.Enqueue(l(1), trail.DecisionReason)
	e.OnAssign(l(1))
	tr.NewDecisionLevel()
	tr.Enqueue(l(2), trail.DecisionReason)
	conflict, _ := e.OnAssign(l(2))
	if conflict {
		t.Fatalf("unexpected conflict")
	}
	if tr.Value(l(3)) != atom.LTrue {
		t.Fatalf("expected head derived true once CC=5 >= bound 4")
	}
}

func TestCardinalityConflictWhenHeadTrueButCCReachesUBBound(t *testing.T) {
	// UB: CC >= bound forces the head false; if the head is already
	// (forced) true, that is a conflict.
	tr, _, e := newEnv(3)
	set := wlset.New("s", []atom.Lit{l(1), l(2)}, nil)
	set.Reduce(wlset.OpCardinality)
	a := &Aggregate{Head: l(3), Set: set, Bound: 2, Sign: UB, Type: Cardinality, Sem: Completion}
	e.Add(a)

	tr.NewDecisionLevel()
	tr.Enqueue(l(3), trail.DecisionReason) // head forced true
	tr.NewDecisionLevel()
	tr.Enqueue(l(1), trail.DecisionReason)
	e.OnAssign(l(1))
	tr.NewDecisionLevel()
	tr.Enqueue(l(2), trail.DecisionReason)
	conflict, _ := e.OnAssign(l(2))
	if !conflict {
		t.Fatalf("expected conflict: CC=2 >= bound 2 forces head false, but head is true")
	}
}

func TestBacktrackRestoresCCCP(t *testing.T) {
	tr, _, e := newEnv(3)
	set := wlset.New("s", []atom.Lit{l(1), l(2)}, []wlset.Weight{1, 1})
	set.Reduce(wlset.OpSum)
	a := &Aggregate{Head: l(3), Set: set, Bound: 2, Sign: LB, Type: Sum, Sem: Completion}
	e.Add(a)
	ccInit := a.CC

	tr.NewDecisionLevel()
	tr.Enqueue(l(1), trail.DecisionReason)
	e.OnAssign(l(1))
	if a.CC == ccInit {
		t.Fatalf("expected CC to change after assignment")
	}
	tr.BacktrackTo(0)
	if a.CC != ccInit {
		t.Fatalf("expected CC restored to initial value after backtrack, got %d want %d", a.CC, ccInit)
	}
}

func TestCanJustifyHeadSumLB(t *testing.T) {
	set := wlset.New("s", []atom.Lit{l(1), l(2), l(3)}, []wlset.Weight{1, 2, 3})
	set.Reduce(wlset.OpSum)
	a := &Aggregate{Set: set, Bound: 4, Sign: LB, Type: Sum}
	justified, support := a.CanJustifyHead(func(atom.Atom) bool { return true })
	if !justified {
		t.Fatalf("expected SUM/LB to be justified with enough external weight")
	}
	if len(support) == 0 {
		t.Fatalf("expected non-empty support")
	}
}

func TestCanJustifyHeadMaxLB(t *testing.T) {
	set := wlset.New("s", []atom.Lit{l(1), l(2)}, []wlset.Weight{5, 9})
	set.Reduce(wlset.OpMax)
	a := &Aggregate{Set: set, Bound: 9, Sign: LB, Type: Max}
	justified, support := a.CanJustifyHead(func(atom.Atom) bool { return true })
	if !justified {
		t.Fatalf("expected MAX/LB justified: a literal meets the bound exactly")
	}
	if len(support) != 1 {
		t.Fatalf("expected single-literal support for MAX/LB, got %d", len(support))
	}
}
