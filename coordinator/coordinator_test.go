package coordinator

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/gosatid/satid/aggregate"
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/definition"
	"github.com/gosatid/satid/runtime"
	"github.com/gosatid/satid/wlset"
)

func newTestCoordinator(nVars int) *Coordinator {
	return New(nVars, runtime.New(logrus.PanicLevel), Options{})
}

func TestAddClauseRejectsEmptyClause(t *testing.T) {
	c := newTestCoordinator(1)
	require.False(t, c.AddClause(nil))
}

func TestAddClauseDropsTautology(t *testing.T) {
	c := newTestCoordinator(1)
	p := atom.MkLit(0, false)
	require.True(t, c.AddClause([]atom.Lit{p, p.Negate()}))
}

// p <- q. q <- p. with the fact p asserted: neither atom has support
// outside the {p, q} cycle, so the loop formula must force the solve
// unsatisfiable once the fact requires p true.
func TestLoopWithForcedFactIsUnsat(t *testing.T) {
	c := newTestCoordinator(2)
	p := atom.Atom(0)
	q := atom.Atom(1)
	c.AddRule(&definition.Rule{Head: atom.MkLit(p, false), Conn: definition.CONJ, Body: []atom.Lit{atom.MkLit(q, false)}})
	c.AddRule(&definition.Rule{Head: atom.MkLit(q, false), Conn: definition.CONJ, Body: []atom.Lit{atom.MkLit(p, false)}})
	require.True(t, c.AddClause([]atom.Lit{atom.MkLit(p, false)}))

	_, unsat := c.FinishParsing()
	if !unsat {
		res := c.Solve(nil, SolveOptions{})
		require.Equal(t, StatusUnsat, res.Status)
		return
	}
	require.True(t, unsat)
}

// p <- a. p <- b. (a shared head via DISJ) with a asserted true makes p true.
func TestSharedHeadDisjunctionDerivesTrue(t *testing.T) {
	c := newTestCoordinator(3)
	p := atom.Atom(0)
	a := atom.Atom(1)
	b := atom.Atom(2)
	c.AddRule(&definition.Rule{Head: atom.MkLit(p, false), Conn: definition.DISJ, Body: []atom.Lit{atom.MkLit(a, false), atom.MkLit(b, false)}})
	require.True(t, c.AddClause([]atom.Lit{atom.MkLit(a, false)}))

	_, unsat := c.FinishParsing()
	require.False(t, unsat)

	res := c.Solve(nil, SolveOptions{})
	require.Equal(t, StatusSat, res.Status)
	require.Contains(t, res.Model, atom.MkLit(p, false))
}

// sum({x1:2, x2:3, x3:4}) >= 5, head h, with x2 and x3 forced true: CC
// reaches 7 >= 5, so h must derive true.
func TestSumAggregateDerivesHeadTrue(t *testing.T) {
	c := newTestCoordinator(4)
	h := atom.Atom(0)
	x1 := atom.Atom(1)
	x2 := atom.Atom(2)
	x3 := atom.Atom(3)

	require.NoError(t, c.AddSet("s1", []atom.Lit{atom.MkLit(x1, false), atom.MkLit(x2, false), atom.MkLit(x3, false)},
		[]wlset.Weight{2, 3, 4}))
	_, err := c.AddAggregate(atom.MkLit(h, false), "s1", 5, aggregate.LB, aggregate.Sum, aggregate.Completion)
	require.NoError(t, err)

	require.True(t, c.AddClause([]atom.Lit{atom.MkLit(x2, false)}))
	require.True(t, c.AddClause([]atom.Lit{atom.MkLit(x3, false)}))

	_, unsat := c.FinishParsing()
	require.False(t, unsat)

	res := c.Solve(nil, SolveOptions{})
	require.Equal(t, StatusSat, res.Status)
	require.Contains(t, res.Model, atom.MkLit(h, false))
}

// max({x1:1, x2:2}) >= 5, head h: no single weight can ever reach the
// bound, so h must derive false unconditionally (CP never satisfies it).
func TestMaxAggregateDerivesHeadFalse(t *testing.T) {
	c := newTestCoordinator(3)
	h := atom.Atom(0)
	x1 := atom.Atom(1)
	x2 := atom.Atom(2)

	require.NoError(t, c.AddSet("s1", []atom.Lit{atom.MkLit(x1, false), atom.MkLit(x2, false)}, []wlset.Weight{1, 2}))
	_, err := c.AddAggregate(atom.MkLit(h, false), "s1", 5, aggregate.LB, aggregate.Max, aggregate.Completion)
	require.NoError(t, err)

	_, unsat := c.FinishParsing()
	require.False(t, unsat)

	require.Equal(t, atom.LFalse, c.tr.VarValue(h))
}

func TestCPBridgeReificationRoundTrips(t *testing.T) {
	c := New(0, runtime.New(logrus.PanicLevel), Options{EnableCP: true, CPAtomBase: 100})
	term, ok := c.AddCPTerm(0, 3)
	require.True(t, ok)

	eq2, ok := c.AddCPEq(term, 2)
	require.True(t, ok)
	leq1, ok := c.AddCPLeq(term, 1)
	require.True(t, ok)
	require.NotEqual(t, eq2, leq1)

	// Asserting term == 2 must immediately conflict with term <= 1 once
	// both are pushed through propagateAll via ordinary unit clauses.
	require.True(t, c.AddClause([]atom.Lit{eq2}))
	require.True(t, c.AddClause([]atom.Lit{leq1}))

	res := c.Solve(nil, SolveOptions{})
	require.Equal(t, StatusUnsat, res.Status)
}

func TestModelEnumerationFindsDistinctModels(t *testing.T) {
	c := newTestCoordinator(1)
	_, unsat := c.FinishParsing()
	require.False(t, unsat)

	res := c.Solve(nil, SolveOptions{EnumerateModels: true, MaxModels: 2})
	require.Equal(t, StatusSat, res.Status)
	require.Equal(t, 2, res.ModelCount)
}
