package definition

import (
	"testing"

	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
)

func l(d int) atom.Lit { return atom.FromDimacs(d) }

func TestCompileCompletionCONJ(t *testing.T) {
	tr := trail.New(3)
	db := clause.NewDB()
	e := NewEngine(tr, db, Options{})
	e.AddRule(&Rule{Head: l(1), Conn: CONJ, Body: []atom.Lit{l(2), l(3)}})
	e.FinishParsing()
	if db.Len() != 3 {
		t.Fatalf("expected 3 completion clauses for a 2-literal CONJ rule, got %d", db.Len())
	}
}

func TestSCCClassifiesLoop(t *testing.T) {
	// p <- q.  q <- p.  Classic positive loop (§8 scenario 6).
	tr := trail.New(2)
	db := clause.NewDB()
	e := NewEngine(tr, db, Options{})
	e.AddRule(&Rule{Head: l(1), Conn: DISJ, Body: []atom.Lit{l(2)}})
	e.AddRule(&Rule{Head: l(2), Conn: DISJ, Body: []atom.Lit{l(1)}})
	e.FinishParsing()

	info, ok := e.SCCOf(l(1).Var())
	if !ok {
		t.Fatalf("expected SCC info for atom 1")
	}
	if info.Class != POSLOOP {
		t.Fatalf("expected POSLOOP classification, got %v", info.Class)
	}
}

func TestUnfoundedSetWhenNoExternalSupport(t *testing.T) {
	tr := trail.New(2)
	db := clause.NewDB()
	e := NewEngine(tr, db, Options{})
	e.AddRule(&Rule{Head: l(1), Conn: DISJ, Body: []atom.Lit{l(2)}})
	e.AddRule(&Rule{Head: l(2), Conn: DISJ, Body: []atom.Lit{l(1)}})
	e.FinishParsing()

	U := e.ComputeUnfoundedSet([]atom.Atom{l(1).Var(), l(2).Var()})
	if len(U) != 2 {
		t.Fatalf("expected both atoms in the unfounded set with no external support, got %d", len(U))
	}
}

func TestExternalExcludesInternalAndFalseLiterals(t *testing.T) {
	tr := trail.New(3)
	db := clause.NewDB()
	e := NewEngine(tr, db, Options{})
	e.AddRule(&Rule{Head: l(1), Conn: DISJ, Body: []atom.Lit{l(2), l(3)}})
	e.FinishParsing()

	tr.NewDecisionLevel()
	tr.Enqueue(l(-3), trail.DecisionReason) // l(3) false: excluded from External

	U := map[atom.Atom]bool{l(1).Var(): true}
	ext := e.External(U)
	if len(ext) != 1 || ext[0] != l(2) {
		t.Fatalf("expected External(U) = {2}, got %v", ext)
	}
}

func TestBuildLoopFormulaConflictWhenAtomTrue(t *testing.T) {
	tr := trail.New(2)
	db := clause.NewDB()
	e := NewEngine(tr, db, Options{})
	e.AddRule(&Rule{Head: l(1), Conn: DISJ, Body: []atom.Lit{l(2)}})
	e.FinishParsing()

	tr.NewDecisionLevel()
	tr.Enqueue(l(1), trail.DecisionReason)

	U := map[atom.Atom]bool{l(1).Var(): true}
	res := e.BuildLoopFormula(U, func() atom.Lit { return atom.LitNull }, func([]atom.Lit) {})
	if !res.Conflict {
		t.Fatalf("expected conflict since a true atom is in U")
	}
}
