package clause

import (
	"testing"

	"github.com/gosatid/satid/atom"
)

func lit(d int) atom.Lit { return atom.FromDimacs(d) }

func TestDBAddAndWatch(t *testing.T) {
	db := NewDB()
	r := db.Add([]atom.Lit{lit(1), lit(-2), lit(3)}, false)

	c := db.Get(r)
	if len(c.Lits) != 3 {
		t.Fatalf("expected 3 literals, got %d", len(c.Lits))
	}

	watchers := db.Watchers(lit(1).Negate())
	if len(watchers) != 1 || watchers[0] != r {
		t.Fatalf("expected clause to watch on ~L1, got %v", watchers)
	}
	watchers2 := db.Watchers(lit(-2).Negate())
	if len(watchers2) != 1 || watchers2[0] != r {
		t.Fatalf("expected clause to watch on ~L2, got %v", watchers2)
	}
}

func TestMakeClauseDoesNotWatch(t *testing.T) {
	db := NewDB()
	r := db.MakeClause([]atom.Lit{lit(1), lit(2)}, true)
	if len(db.Watchers(lit(1).Negate())) != 0 {
		t.Fatalf("MakeClause must not register watches")
	}
	if db.Get(r).Learned != true {
		t.Fatalf("expected learned flag preserved")
	}
}

func TestTautological(t *testing.T) {
	c := &Clause{Lits: []atom.Lit{lit(1), lit(-1), lit(2)}}
	if !c.Tautological() {
		t.Fatalf("expected tautology detection")
	}
	c2 := &Clause{Lits: []atom.Lit{lit(1), lit(2)}}
	if c2.Tautological() {
		t.Fatalf("expected non-tautology")
	}
}

func TestLBDTier(t *testing.T) {
	c := &Clause{Learned: true}
	c.SetLBD(2)
	if c.Tier() != 0 {
		t.Fatalf("LBD=2 should be tier 0, got %d", c.Tier())
	}
	c.SetLBD(5)
	if c.Tier() != 1 {
		t.Fatalf("LBD=5 should be tier 1, got %d", c.Tier())
	}
	c.SetLBD(10)
	if c.Tier() != 2 {
		t.Fatalf("LBD=10 should be tier 2, got %d", c.Tier())
	}
}

func TestDeleteKeepsRefStable(t *testing.T) {
	db := NewDB()
	r := db.Add([]atom.Lit{lit(1), lit(2)}, true)
	db.Delete(r)
	if !db.Deleted(r) {
		t.Fatalf("expected clause marked deleted")
	}
	// Ref stays addressable.
	if db.Get(r) == nil {
		t.Fatalf("deleted clause should still be addressable")
	}
}
