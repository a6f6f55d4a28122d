// Package wlset implements the weighted literal set (WLSet) that backs
// every pseudo-Boolean aggregate: an identifier plus a vector of
// (literal, weight) pairs, sorted by weight, with saturating arithmetic
// and the per-operation set-reduction rules from §3/§4.3.
package wlset

import (
	"math"
	"sort"

	"github.com/gosatid/satid/atom"
)

// Weight is a saturating signed integer. Saturation resolves the Open
// Question in §9 about divergent overflow handling between the source's
// SATSolver/Agg.cpp and aggsolver/AggComb.cpp paths: this module picks one
// convention — int64 saturating to ±MaxInt64 — and applies it uniformly
// everywhere weights are combined.
type Weight int64

const (
	WeightMax Weight = math.MaxInt64
	WeightMin Weight = math.MinInt64
)

// Add returns a+b, saturating on overflow.
func (a Weight) Add(b Weight) Weight {
	if b > 0 && a > WeightMax-b {
		return WeightMax
	}
	if b < 0 && a < WeightMin-b {
		return WeightMin
	}
	return a + b
}

// Mul returns a*b, saturating on overflow. Only used by PROD aggregates,
// whose weights are constrained to be >= 1 at construction, so overflow
// can only occur by growing positive.
func (a Weight) Mul(b Weight) Weight {
	if a == 0 || b == 0 {
		return 0
	}
	r := a * b
	if r/b != a {
		if (a > 0) == (b > 0) {
			return WeightMax
		}
		return WeightMin
	}
	return r
}

// Entry is one (literal, weight) pair of a WLSet.
type Entry struct {
	Lit    atom.Lit
	Weight Weight
}

// OpKind selects the aggregate reduction operation applied when the same
// atom appears multiple times in a set's input.
type OpKind int

const (
	OpSum OpKind = iota
	OpProduct
	OpCardinality
	OpMax
	OpMin
)

// Set is a weighted literal set. Reduce sorts the vector by weight and
// reduces it (duplicates merged, neutral-weight entries dropped) exactly
// once, per the "Iterator invalidation" redesign note: Coordinator.AddAggregate
// calls it on its own copy of the set, and later Reduce calls on a frozen
// set change nothing.
type Set struct {
	ID      string
	Entries []Entry
	frozen  bool
}

// New builds an unreduced WLSet from parallel literal/weight slices.
// Cardinality sets may omit weights (all 1).
func New(id string, lits []atom.Lit, weights []Weight) *Set {
	s := &Set{ID: id}
	for i, l := range lits {
		w := Weight(1)
		if weights != nil {
			w = weights[i]
		}
		s.Entries = append(s.Entries, Entry{Lit: l, Weight: w})
	}
	return s
}

// neutral returns the operation's neutral weight: entries at this weight
// contribute nothing and are dropped during reduction.
func neutral(op OpKind) Weight {
	switch op {
	case OpProduct:
		return 1
	default:
		return 0
	}
}

// Reduce merges duplicate atoms per the operation's combination rule and
// drops neutral-weight entries, then sorts by weight and freezes the set.
// Per §4.3: sum adds weights, max/min take the extremum, product rejects
// sign duplication (returns an error), cardinality behaves like sum of
// unit weights.
func (s *Set) Reduce(op OpKind) error {
	if s.frozen {
		return nil
	}
	byAtom := make(map[atom.Atom]Entry, len(s.Entries))
	order := make([]atom.Atom, 0, len(s.Entries))
	for _, e := range s.Entries {
		v := e.Lit.Var()
		prev, ok := byAtom[v]
		if !ok {
			byAtom[v] = e
			order = append(order, v)
			continue
		}
		merged, err := mergeEntry(op, prev, e)
		if err != nil {
			return err
		}
		byAtom[v] = merged
	}

	out := make([]Entry, 0, len(order))
	n := neutral(op)
	for _, v := range order {
		e := byAtom[v]
		if e.Weight == n {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	s.Entries = out
	s.frozen = true
	return nil
}

func mergeEntry(op OpKind, a, b Entry) (Entry, error) {
	// If the same atom occurs with opposite literal sign, the two entries
	// refer to complementary literals of one variable; §4.3 only specifies
	// exact-duplicate merging for sum/max/min (same literal), and rejects
	// sign duplication outright for product.
	if a.Lit.Var() != b.Lit.Var() {
		return Entry{}, errMismatchedAtom
	}
	sameLit := a.Lit == b.Lit
	switch op {
	case OpSum, OpCardinality:
		if sameLit {
			return Entry{Lit: a.Lit, Weight: a.Weight.Add(b.Weight)}, nil
		}
		// a.Lit = l with weight wa, b.Lit = ~l with weight wb: the pair
		// contributes wa when l is false-exclusive... per §3 this case is
		// folded into the negative-weight-shift rewrite before reduction
		// ever runs, so Reduce should not see it; treat conservatively by
		// summing weight of the positive-signed entry net of the other.
		return Entry{Lit: a.Lit, Weight: a.Weight.Add(-b.Weight)}, nil
	case OpMax:
		if a.Weight >= b.Weight {
			return a, nil
		}
		return b, nil
	case OpMin:
		if a.Weight <= b.Weight {
			return a, nil
		}
		return b, nil
	case OpProduct:
		return Entry{}, errProductDuplicate
	default:
		return Entry{}, errMismatchedAtom
	}
}

var (
	errMismatchedAtom  = setError("merge called on entries for different atoms")
	errProductDuplicate = setError("product aggregate rejects duplicate or sign-mismatched literal")
)

type setError string

func (e setError) Error() string { return string(e) }

// ShiftNegativeSumWeights rewrites a sum-type set so every weight is
// non-negative, returning the bound adjustment to apply: for each entry
// with negative weight w on literal l, it is rewritten to weight -w on
// ~l, and the aggregate bound is shifted by w (the total negative mass),
// per §3's "Sum aggregates with some negative weights are rewritten at
// initialization by shifting".
func (s *Set) ShiftNegativeSumWeights() Weight {
	var shift Weight
	for i, e := range s.Entries {
		if e.Weight < 0 {
			shift = shift.Add(e.Weight)
			s.Entries[i] = Entry{Lit: e.Lit.Negate(), Weight: -e.Weight}
		}
	}
	return shift
}

// TotalWeight returns Σw for every entry, used to compute the best-possible
// value of a sum/cardinality aggregate and to check for Σ|w| saturation at
// initialization.
func (s *Set) TotalWeight() Weight {
	var total Weight
	for _, e := range s.Entries {
		total = total.Add(e.Weight)
	}
	return total
}

// MaxWeight returns the maximum weight in the set, or WeightMin if empty;
// used as the best-possible value of a MAX aggregate.
func (s *Set) MaxWeight() Weight {
	m := WeightMin
	for _, e := range s.Entries {
		if e.Weight > m {
			m = e.Weight
		}
	}
	return m
}

// MinWeight returns the minimum weight in the set, or WeightMax if empty;
// used as the best-possible value of a MIN aggregate (MIN is combined
// directly by the aggregate engine, not rewritten as MAX).
func (s *Set) MinWeight() Weight {
	m := WeightMax
	for _, e := range s.Entries {
		if e.Weight < m {
			m = e.Weight
		}
	}
	return m
}

// ProductOfWeights returns Π w for every entry, the best-possible value of
// a PROD aggregate; weights are required >= 1 at construction.
func (s *Set) ProductOfWeights() Weight {
	total := Weight(1)
	for _, e := range s.Entries {
		total = total.Mul(e.Weight)
	}
	return total
}

// Len returns the number of entries in the (possibly unreduced) set.
func (s *Set) Len() int { return len(s.Entries) }
