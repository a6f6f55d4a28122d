// Package aggregate implements pseudo-Boolean aggregate constraints (sum,
// product, cardinality, min, max) as specified in §4.3: incremental
// CC/CP (current-certain / current-possible) maintenance, head derivation,
// stack-based explanation construction, and recursive-aggregate head
// justification. Aggregate types are a closed tagged-variant enum
// dispatched through a function table (opTable) rather than per-type
// subtyping, per the REDESIGN FLAGS note on replacing dynamic dispatch.
package aggregate

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
	"github.com/gosatid/satid/wlset"
)

// AggType is the closed set of aggregate operations.
type AggType int

const (
	Sum AggType = iota
	Product
	Cardinality
	Max
	Min
)

// BoundSign selects whether the head is equivalent to Value < Bound (UB)
// or to Value >= Bound (LB): for UB, CC >= Bound derives the head false.
type BoundSign int

const (
	UB BoundSign = iota
	LB
)

// Semantics selects whether the aggregate participates in completion
// (definitional, recursive heads allowed) or is a plain constraint.
type Semantics int

const (
	Completion Semantics = iota
	Definition
)

// Ref identifies an aggregate inside an Engine's arena.
type Ref int32

// stackReasonKind tags why a set-literal assignment was recorded on an
// aggregate's propagation stack, used to rebuild explanations (§4.3).
type stackReasonKind int

const (
	reasonPOS stackReasonKind = iota // literal became true: contributes to CC
	reasonNEG                        // literal became false: shrinks CP
)

type stackFrame struct {
	lit    atom.Lit
	kind   stackReasonKind
	ccPrev wlset.Weight
	cpPrev wlset.Weight
}

// Aggregate is one pseudo-Boolean aggregate constraint.
type Aggregate struct {
	Head  atom.Lit
	Set   *wlset.Set
	Bound wlset.Weight
	Sign  BoundSign
	Type  AggType
	Sem   Semantics

	CC wlset.Weight
	CP wlset.Weight

	headFixed  bool // true once the head was found assigned at registration (the aggregate stays watched)
	stack      []stackFrame
	litIndex   map[atom.Atom]int // index of each set literal's position in Set.Entries
}

// Options configures the engine's propagation strategy choices.
type Options struct {
	// UseGiniCardinality enables the accelerated partially-watched
	// cardinality strategy backed by github.com/go-air/gini's sorting
	// network (aggregate.NewGiniCardinalityWitness), per §4.3.
	UseGiniCardinality bool
}

// Engine owns the aggregate arena and implements the fully-watched (and,
// for cardinality, optionally partially-watched) propagation strategies of
// §4.3. It is a trail.Listener so it can reverse CC/CP on backtrack.
type Engine struct {
	tr   *trail.Trail
	db   *clause.DB
	opts Options

	aggs      []*Aggregate
	watchedBy map[atom.Atom][]Ref // set-literal atom -> aggregates watching it
	pw        map[Ref]*Witness    // partially-watched state, cardinality aggregates only

	// bumpActivity, when set, lets the SAT engine's VSIDS be nudged when
	// this engine derives a propagation, per §4.2's "heuristic inputs".
	bumpActivity func(atom.Atom)

	lastConflict []atom.Lit // set by deriveAndEnqueue immediately before it reports a conflict
}

// LastConflict returns the fully-false explanation clause for the most
// recent conflict OnAssign reported, so the coordinator can materialize it
// as a clause.Ref for satengine.Analyze without this package needing to
// know about clause.DB's allocation details beyond what it already owns.
func (e *Engine) LastConflict() []atom.Lit { return e.lastConflict }

func NewEngine(tr *trail.Trail, db *clause.DB, opts Options) *Engine {
	e := &Engine{
		tr:        tr,
		db:        db,
		opts:      opts,
		watchedBy: make(map[atom.Atom][]Ref),
		pw:        make(map[Ref]*Witness),
	}
	tr.AddListener(e)
	return e
}

// SetActivityBumper installs the callback used to bump SAT-engine VSIDS
// scores of literals this engine derives propagations from.
func (e *Engine) SetActivityBumper(f func(atom.Atom)) { e.bumpActivity = f }

// opTable dispatches per-AggType behavior instead of subtype methods, per
// the REDESIGN FLAGS §9 note "tagged-variant + function table replacing
// dynamic dispatch".
type opSpec struct {
	esv     func() wlset.Weight // empty-set value (identity of the operation)
	combine func(acc, w wlset.Weight) wlset.Weight
	best    func(s *wlset.Set) wlset.Weight
}

var opTable = map[AggType]opSpec{
	Sum: {
		esv:     func() wlset.Weight { return 0 },
		combine: func(acc, w wlset.Weight) wlset.Weight { return acc.Add(w) },
		best:    (*wlset.Set).TotalWeight,
	},
	Cardinality: {
		esv:     func() wlset.Weight { return 0 },
		combine: func(acc, w wlset.Weight) wlset.Weight { return acc.Add(w) },
		best:    (*wlset.Set).TotalWeight,
	},
	Product: {
		esv:     func() wlset.Weight { return 1 },
		combine: func(acc, w wlset.Weight) wlset.Weight { return acc.Mul(w) },
		best:    (*wlset.Set).ProductOfWeights,
	},
	Max: {
		esv: func() wlset.Weight { return wlset.WeightMin },
		combine: func(acc, w wlset.Weight) wlset.Weight {
			if w > acc {
				return w
			}
			return acc
		},
		best: (*wlset.Set).MaxWeight,
	},
	Min: {
		esv: func() wlset.Weight { return wlset.WeightMax },
		combine: func(acc, w wlset.Weight) wlset.Weight {
			if w < acc {
				return w
			}
			return acc
		},
		best: (*wlset.Set).MinWeight,
	},
}

// Add registers a new aggregate, computes its initial (CC, CP) per §4.3's
// initialization step, and attaches the fully-watched strategy; when
// opts.UseGiniCardinality is set and Type == Cardinality, the
// partially-watched cardinality strategy is attached in addition to it.
func (e *Engine) Add(a *Aggregate) Ref {
	spec := opTable[a.Type]
	a.CC = spec.esv()
	a.CP = spec.best(a.Set)
	// Set literals already fixed at decision level 0 are never unassigned and
	// OnAssign will not see them again, so they are folded in here (CP only
	// for sum/cardinality; for the other types it stays at its best value).
	for _, ent := range a.Set.Entries {
		v := ent.Lit.Var()
		if e.tr.VarValue(v) == atom.LUndef || e.tr.VarLevel(v) != 0 {
			continue
		}
		if e.tr.Value(ent.Lit) == atom.LTrue {
			a.CC = spec.combine(a.CC, ent.Weight)
		} else if a.Type == Sum || a.Type == Cardinality {
			a.CP = a.CP.Add(-ent.Weight)
		}
	}
	a.litIndex = make(map[atom.Atom]int, a.Set.Len())
	for i, ent := range a.Set.Entries {
		a.litIndex[ent.Lit.Var()] = i
	}

	r := Ref(len(e.aggs))
	e.aggs = append(e.aggs, a)
	for _, ent := range a.Set.Entries {
		v := ent.Lit.Var()
		e.watchedBy[v] = append(e.watchedBy[v], r)
	}
	// Watch the head atom too, so OnAssign also fires head->body
	// propagation per §4.3 once the head itself is decided.
	e.watchedBy[a.Head.Var()] = append(e.watchedBy[a.Head.Var()], r)
	if a.Type == Cardinality && e.opts.UseGiniCardinality {
		e.pw[r] = newPWState(a)
	}
	e.tryDeriveHead(r)
	return r
}

func (e *Engine) Get(r Ref) *Aggregate { return e.aggs[r] }

// NewDecisionLevel and OnUnassign implement trail.Listener; aggregates
// reverse (CC, CP) to the snapshot recorded when a set literal was first
// assigned, per §4.3's "restore (CC, CP) from the snapshot stored with each
// stack frame" backtrack rule.
func (e *Engine) NewDecisionLevel() {}

func (e *Engine) OnUnassign(l atom.Lit) {
	v := l.Var()
	for _, r := range e.watchedBy[v] {
		a := e.aggs[r]
		// Conservative pop rule (§9 Design Notes resolution): only pop the
		// stack while its top frame's literal is the one being unassigned.
		for len(a.stack) > 0 && a.stack[len(a.stack)-1].lit.Var() == v {
			top := a.stack[len(a.stack)-1]
			a.stack = a.stack[:len(a.stack)-1]
			a.CC = top.ccPrev
			a.CP = top.cpPrev
		}
	}
}

// OnAssign is called by the coordinator once per newly-assigned trail
// literal, in the fixed polling order from §4.1 (after SAT propagation).
// It updates every aggregate watching the literal's atom, enqueues any
// head/body propagations it derives directly onto the trail (tagged with a
// TheoryAggregate reason so satengine.Analyze can later call back into
// Explain), and reports the first conflicting aggregate found, if any.
//
// Two directions are handled: when the assigned atom is a set literal, the
// incremental CC/CP update below and deriveAndEnqueue implement §4.3's
// body->head rule; when the assigned atom is the aggregate's own head,
// propagateBody implements the symmetric head->body rule (including the
// "exactly one set literal left can still swing it" forcing case).
func (e *Engine) OnAssign(l atom.Lit) (conflict bool, conflictAgg Ref) {
	v := l.Var()
	for _, r := range e.watchedBy[v] {
		a := e.aggs[r]
		if v == a.Head.Var() {
			if e.propagateBody(r, a) {
				return true, r
			}
			continue
		}
		idx, ok := a.litIndex[v]
		if !ok {
			continue
		}
		ent := a.Set.Entries[idx]
		// Evaluate the set's own stored literal, not l directly: l may be
		// either ent.Lit or its negation, so asking the trail for ent.Lit's
		// truth handles both directions uniformly.
		setTruth := e.tr.Value(ent.Lit)

		ccPrev, cpPrev := a.CC, a.CP
		switch setTruth {
		case atom.LTrue:
			// set literal became true: contributes to CC
			a.CC = opTable[a.Type].combine(a.CC, ent.Weight)
			a.stack = append(a.stack, stackFrame{lit: l, kind: reasonPOS, ccPrev: ccPrev, cpPrev: cpPrev})
		case atom.LFalse:
			// set literal became false: no longer a CP contributor
			a.CP = e.shrinkCP(a, ent)
			a.stack = append(a.stack, stackFrame{lit: l, kind: reasonNEG, ccPrev: ccPrev, cpPrev: cpPrev})
		default:
			continue
		}

		if e.deriveAndEnqueue(r, a) {
			return true, r
		}
		if w, ok := e.pw[r]; ok {
			if e.onPWAssign(r, a, w, l) {
				return true, r
			}
		}
	}
	return false, 0
}

// propagateBody implements §4.3's head->body propagation rule: once the
// head is decided, every undetermined set literal whose assignment one way
// would force the aggregate back across the bound is propagated the other
// way. The same per-literal test also covers the "exactly one set literal
// left can still swing the aggregate" case: when only one literal remains
// undetermined, it is exactly the literal (if any) this loop identifies and
// forces, so no separate counting rule is needed.
//
// Which direction is forced depends only on Sign and the head's value:
//   - UB aggregate, head true (Value < Bound must hold): a literal that
//     would push CC to/past Bound if made true must instead be false.
//   - UB aggregate, head false (Value >= Bound must hold): a literal that
//     would let CP drop below Bound if made false must instead be true.
//   - LB aggregate, head true (Value >= Bound must hold): symmetric to the
//     UB/false case (force true to keep CP at/above Bound).
//   - LB aggregate, head false (Value < Bound must hold): symmetric to the
//     UB/true case (force false to keep CC under Bound).
func (e *Engine) propagateBody(r Ref, a *Aggregate) (conflict bool) {
	headVal := e.tr.Value(a.Head)
	if headVal == atom.LUndef {
		return false
	}
	headTrue := headVal == atom.LTrue
	headLit := a.Head
	if !headTrue {
		headLit = a.Head.Negate()
	}
	// Record the head's own value as an antecedent so Explain's existing
	// stack walk includes it for any propagation this call makes; ccPrev/
	// cpPrev are the current values since observing the head doesn't
	// itself change CC/CP.
	a.stack = append(a.stack, stackFrame{lit: headLit, kind: reasonPOS, ccPrev: a.CC, cpPrev: a.CP})

	mustNotCross := (a.Sign == UB) == headTrue
	spec := opTable[a.Type]

	for _, ent := range a.Set.Entries {
		if e.tr.Value(ent.Lit) != atom.LUndef {
			continue
		}
		var wantLit atom.Lit
		derived := false
		if mustNotCross {
			if spec.combine(a.CC, ent.Weight) >= a.Bound {
				wantLit, derived = ent.Lit.Negate(), true
			}
		} else if e.cpExcluding(a, ent.Lit.Var()) < a.Bound {
			wantLit, derived = ent.Lit, true
		}
		if !derived {
			continue
		}
		token := makeToken(r, len(a.stack))
		e.tr.Enqueue(wantLit, trail.TheoryReason(trail.TheoryAggregate, token))
		if e.bumpActivity != nil {
			e.bumpActivity(wantLit.Var())
		}
	}
	return false
}

// cpExcluding returns CP as it would read if the set literal owned by skip
// were forced false, without mutating a.CP or relying on the trail already
// reflecting that hypothetical — used by propagateBody to test a forcing
// direction before committing to it.
func (e *Engine) cpExcluding(a *Aggregate, skip atom.Atom) wlset.Weight {
	switch a.Type {
	case Sum, Cardinality:
		idx := a.litIndex[skip]
		return a.CP.Add(-a.Set.Entries[idx].Weight)
	default:
		spec := opTable[a.Type]
		acc := spec.esv()
		for _, ent := range a.Set.Entries {
			if ent.Lit.Var() == skip {
				continue
			}
			if e.tr.Value(ent.Lit) == atom.LFalse {
				continue
			}
			acc = spec.combine(acc, ent.Weight)
		}
		return acc
	}
}

// onPWAssign additionally routes a cardinality aggregate's set-literal
// assignment through the gini-backed witness strategy of pw_cardinality.go
// when Options.UseGiniCardinality selected it for this aggregate at
// registration (§4.3): the witness pool can find a forced literal or a
// pool exhaustion before CC/CP alone would cross the bound, and for UB
// aggregates the sorting network's Leq query confirms the bound is still
// satisfiable at all. The ordinary CC/CP bookkeeping in OnAssign above
// still runs unconditionally for every aggregate regardless of this
// dispatch, so head<->body propagation keeps working whether or not an
// aggregate opted into the accelerated strategy; this call can only find a
// conflict/propagation earlier, never instead.
func (e *Engine) onPWAssign(r Ref, a *Aggregate, w *Witness, l atom.Lit) (conflict bool) {
	value := func(lit atom.Lit) atom.LBool { return e.tr.Value(lit) }
	propagate, hasProp, poolConflict := w.OnLiteralAssigned(l, value)
	if !poolConflict && a.Sign == UB && w.card != nil && !w.Leq(int(a.Bound)) {
		poolConflict = true
	}
	if poolConflict {
		token := makeToken(r, len(a.stack))
		e.lastConflict = e.Explain(trail.TheoryReason(trail.TheoryAggregate, token), l)
		return true
	}
	if hasProp && e.tr.Value(propagate) == atom.LUndef {
		token := makeToken(r, len(a.stack))
		e.tr.Enqueue(propagate, trail.TheoryReason(trail.TheoryAggregate, token))
		if e.bumpActivity != nil {
			e.bumpActivity(propagate.Var())
		}
	}
	return false
}

// deriveAndEnqueue applies §4.3's head-derivation rule and enqueues the
// implied head literal directly, tagging its reason with this aggregate's
// current stack depth so Explain can later reconstruct the justification.
// Returns true on conflict (the head is already assigned the opposite way).
func (e *Engine) deriveAndEnqueue(r Ref, a *Aggregate) (conflict bool) {
	headVal := e.tr.Value(a.Head)

	violatesUB := a.CC >= a.Bound
	satisfiableUB := a.CP < a.Bound
	var wantLit atom.Lit
	derived := false
	switch a.Sign {
	case UB:
		if violatesUB {
			wantLit, derived = a.Head.Negate(), true
		} else if satisfiableUB {
			wantLit, derived = a.Head, true
		}
	case LB:
		if violatesUB {
			wantLit, derived = a.Head, true
		} else if satisfiableUB {
			wantLit, derived = a.Head.Negate(), true
		}
	}
	if !derived {
		return false
	}

	if headVal == atom.LUndef {
		token := makeToken(r, len(a.stack))
		e.tr.Enqueue(wantLit, trail.TheoryReason(trail.TheoryAggregate, token))
		if e.bumpActivity != nil {
			e.bumpActivity(a.Head.Var())
		}
		return false
	}
	wantTrue := wantLit == a.Head
	gotTrue := headVal == atom.LTrue
	if wantTrue == gotTrue {
		return false
	}
	token := makeToken(r, len(a.stack))
	e.lastConflict = e.Explain(trail.TheoryReason(trail.TheoryAggregate, token), wantLit.Negate())
	return true
}

// shrinkCP recomputes CP after ent's literal becomes unavailable: for
// sum/card this is simply removing the weight; for max/min/product it
// requires a full recompute over the surviving (non-false) pool since the
// extremum or product may not decompose by simple subtraction.
func (e *Engine) shrinkCP(a *Aggregate, ent wlset.Entry) wlset.Weight {
	switch a.Type {
	case Sum, Cardinality:
		return a.CP.Add(-ent.Weight)
	default:
		return e.recomputeCP(a)
	}
}

func (e *Engine) recomputeCP(a *Aggregate) wlset.Weight {
	spec := opTable[a.Type]
	acc := spec.esv()
	for _, ent := range a.Set.Entries {
		if e.tr.Value(ent.Lit) == atom.LFalse {
			continue
		}
		acc = spec.combine(acc, ent.Weight)
	}
	return acc
}

// tryDeriveHead runs the same derivation rule as deriveAndEnqueue at
// registration time (§4.3's "Initialization" step: "test whether the head
// is already propagable from (CC, CP) vs. bound"). If the aggregate is not
// part of a definition and the head is already assigned, headFixed is
// recorded; the aggregate is not detached and stays on its watches.
func (e *Engine) tryDeriveHead(r Ref) {
	a := e.aggs[r]
	e.deriveAndEnqueue(r, a)
	if a.Sem == Completion && e.tr.Value(a.Head) != atom.LUndef {
		a.headFixed = true
	}
}

// Explain reconstructs an explanation clause for a head or body literal
// this engine propagated, per §4.3: walk the aggregate's stack up to the
// propagation's recorded index and include the negation of every recorded
// literal, POS-reason (supported CC) and NEG-reason (shrunk CP) alike; the
// frames are not filtered by whether they contributed to the bound being
// crossed. token encodes the aggregate Ref and stack depth at propagation
// time.
func (e *Engine) Explain(reason trail.Reason, propagated atom.Lit) []atom.Lit {
	r := Ref(reason.Token >> 32)
	depth := int(reason.Token & 0xffffffff)
	a := e.aggs[r]
	if depth > len(a.stack) {
		depth = len(a.stack)
	}
	expl := make([]atom.Lit, 0, depth+1)
	expl = append(expl, propagated.Negate())
	for i := 0; i < depth; i++ {
		f := a.stack[i]
		switch f.kind {
		case reasonPOS:
			expl = append(expl, f.lit.Negate())
		case reasonNEG:
			expl = append(expl, f.lit.Negate())
		}
	}
	return expl
}

// makeToken packs an aggregate Ref and current stack depth into a
// trail.Reason token for later Explain lookup.
func makeToken(r Ref, depth int) int64 {
	return int64(r)<<32 | int64(depth)
}

// CanJustifyHead implements the recursive-aggregate head justification
// rule of §4.3/§4.4: whether the head can be justified true by a
// cycle-free chain of body literals outside the aggregate's own positive
// SCC, per operation type.
//   MAX/LB: any single set literal with weight >= bound justifies the head.
//   MAX/UB: justified (with empty support) iff no external literal has
//           weight >= bound.
//   SUM/LB, SUM/UB: greedily accumulate literals (by descending weight for
//           LB, ascending for UB) until the bound condition is met.
//   PROD: treated as SUM in the log domain — greedily accumulate factors.
func (a *Aggregate) CanJustifyHead(isExternal func(atom.Atom) bool) (justified bool, support []atom.Lit) {
	switch a.Type {
	case Max:
		if a.Sign == LB {
			for _, ent := range a.Set.Entries {
				if isExternal(ent.Lit.Var()) && ent.Weight >= a.Bound {
					return true, []atom.Lit{ent.Lit}
				}
			}
			return false, nil
		}
		// UB: justified unless some external literal alone violates it.
		for _, ent := range a.Set.Entries {
			if isExternal(ent.Lit.Var()) && ent.Weight >= a.Bound {
				return false, nil
			}
		}
		return true, nil
	case Sum, Cardinality, Product:
		entries := append([]wlset.Entry(nil), a.Set.Entries...)
		if a.Sign == LB {
			// descending weight: accumulate the biggest contributors first
			for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
		spec := opTable[a.Type]
		acc := spec.esv()
		for _, ent := range entries {
			if !isExternal(ent.Lit.Var()) {
				continue
			}
			acc = spec.combine(acc, ent.Weight)
			support = append(support, ent.Lit)
			switch a.Sign {
			case LB:
				if acc >= a.Bound {
					return true, support
				}
			case UB:
				if acc >= a.Bound {
					return false, nil
				}
			}
		}
		if a.Sign == UB {
			return true, support
		}
		return false, nil
	case Min:
		// MIN is MAX over negated weights; delegate symmetrically.
		neg := *a
		negSet := *a.Set
		negEntries := make([]wlset.Entry, len(a.Set.Entries))
		for i, ent := range a.Set.Entries {
			negEntries[i] = wlset.Entry{Lit: ent.Lit, Weight: -ent.Weight}
		}
		negSet.Entries = negEntries
		neg.Set = &negSet
		neg.Type = Max
		neg.Bound = -a.Bound
		if a.Sign == LB {
			neg.Sign = UB
		} else {
			neg.Sign = LB
		}
		return neg.CanJustifyHead(isExternal)
	}
	return false, nil
}
