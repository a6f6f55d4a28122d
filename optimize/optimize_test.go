package optimize

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/coordinator"
	"github.com/gosatid/satid/runtime"
	"github.com/gosatid/satid/wlset"
)

func newTestCoordinator(nVars int) *coordinator.Coordinator {
	return coordinator.New(nVars, runtime.New(logrus.PanicLevel), coordinator.Options{})
}

// a v b v c, minimize the subset {a, b, c}: the minimal true subset has
// exactly one literal.
func TestSubsetMinimizeShrinksToSingleton(t *testing.T) {
	co := newTestCoordinator(3)
	a := atom.MkLit(0, false)
	b := atom.MkLit(1, false)
	c := atom.MkLit(2, false)
	require.True(t, co.AddClause([]atom.Lit{a, b, c}))

	res := SubsetMinimize(co, nil, []atom.Lit{a, b, c})
	require.NotNil(t, res.Best)
	require.Equal(t, coordinator.StatusSat, res.Best.Status)
	trueCount := 0
	for _, l := range []atom.Lit{a, b, c} {
		if containsLit(res.Best.Model, l) {
			trueCount++
		}
	}
	require.Equal(t, 1, trueCount)
}

// a v b v c with list = [a, b, c]: lexicographic minimization must settle
// on a alone, the earliest list literal that can hold.
func TestOrderedListMinimizePicksEarliestLiteral(t *testing.T) {
	co := newTestCoordinator(3)
	a := atom.MkLit(0, false)
	b := atom.MkLit(1, false)
	c := atom.MkLit(2, false)
	require.True(t, co.AddClause([]atom.Lit{a, b, c}))

	res := OrderedListMinimize(co, nil, []atom.Lit{a, b, c})
	require.NotNil(t, res.Best)
	require.Equal(t, coordinator.StatusSat, res.Best.Status)
	require.Contains(t, res.Best.Model, a)
}

// min Sum{a=1, b=2, c=3} subject to a v b v c: the optimum picks a alone,
// for a sum of 1 — the spec's own worked example (spec.md's optimization
// section, "optimum chooses a, emits o 1").
func TestAggregateMinimizerFindsLightestSatisfyingChoice(t *testing.T) {
	co := newTestCoordinator(3)
	a := atom.MkLit(0, false)
	b := atom.MkLit(1, false)
	c := atom.MkLit(2, false)
	require.True(t, co.AddClause([]atom.Lit{a, b, c}))
	weights := []wlset.Weight{1, 2, 3}
	require.NoError(t, co.AddSet("obj", []atom.Lit{a, b, c}, weights))

	m := NewAggregateMinimizer(co, "obj", []atom.Lit{a, b, c}, weights)
	res := m.Run(nil)
	require.NotNil(t, res.Best)
	require.Equal(t, coordinator.StatusSat, res.Best.Status)
	require.Contains(t, res.Best.Model, a)
}

// a v b v c, minimize the cardinality of {a, b, c} via the sorting-network
// path: the optimum is a singleton true subset.
func TestGiniCardinalityMinimizerConverges(t *testing.T) {
	co := newTestCoordinator(3)
	a := atom.MkLit(0, false)
	b := atom.MkLit(1, false)
	c := atom.MkLit(2, false)
	require.True(t, co.AddClause([]atom.Lit{a, b, c}))

	m := NewGiniCardinalityMinimizer(co, []atom.Lit{a, b, c})
	res := m.Run(nil)
	require.NotNil(t, res.Best)
	require.Equal(t, coordinator.StatusSat, res.Best.Status)

	trueCount := 0
	for _, l := range []atom.Lit{a, b, c} {
		if containsLit(res.Best.Model, l) {
			trueCount++
		}
	}
	require.Equal(t, 1, trueCount)
}

func containsLit(model []atom.Lit, l atom.Lit) bool {
	for _, m := range model {
		if m == l {
			return true
		}
	}
	return false
}
