// Package definition implements inductive definitions under stable /
// well-founded semantics: completion compilation, two-pass Tarjan SCC
// tagging, justification tracking, unfounded-set computation, and
// loop-formula generation, as specified in §4.4. Grounded on the
// teacher's graph-bookkeeping style in sat/gaussian.go (adjacency-list
// construction, visited-set bookkeeping) generalized from Gaussian
// elimination's variable-dependency graph to a rule dependency graph.
package definition

import (
	"github.com/gosatid/satid/atom"
	"github.com/gosatid/satid/clause"
	"github.com/gosatid/satid/trail"
)

// Connective selects how a rule's body combines into its head's truth
// value under completion.
type Connective int

const (
	CONJ Connective = iota
	DISJ
	AGGR // body is a reference to an aggregate; completion is handled by the aggregate engine
)

// Rule is a defined head atom and its ordered body, per §3.
type Rule struct {
	Head      atom.Lit
	Conn      Connective
	Body      []atom.Lit
	AggregateID int // valid only when Conn == AGGR
}

// Class classifies a defined atom's participation in dependency cycles,
// per §3's "Scc tags".
type Class int

const (
	NONDEFOCC Class = iota
	POSLOOP
	MIXEDLOOP
	BOTHLOOP
)

func (c Class) String() string {
	switch c {
	case POSLOOP:
		return "POSLOOP"
	case MIXEDLOOP:
		return "MIXEDLOOP"
	case BOTHLOOP:
		return "BOTHLOOP"
	default:
		return "NONDEFOCC"
	}
}

// SCCInfo is the per-atom SCC tagging of §3: its component id in the full
// dependency graph and in the positive-only dependency graph, plus the
// derived classification.
type SCCInfo struct {
	FullSCC     int
	PositiveSCC int
	Class       Class
}

// Frequency selects how often the unfounded-set check runs at end-of-queue,
// per §4.4.
type Frequency int

const (
	Always Frequency = iota
	Adaptive
	Lazy
)

// Strategy selects the unfounded-set search algorithm.
type Strategy int

const (
	BFS Strategy = iota
	PruningDFS
)

// Justification is the chosen set of body literals currently supporting a
// positive-loop atom's truth, per §3.
type Justification struct {
	Atom    atom.Atom
	Support []atom.Lit // currently non-false literals justifying Atom
	RuleIdx int
}

// Engine owns the rule set, dependency graphs, SCC tags, and active
// justifications for one definitional scope.
type Engine struct {
	tr  *trail.Trail
	db  *clause.DB
	opt Options

	rules    map[atom.Atom]*Rule // each defined atom is the head of exactly one rule
	headIdx  []atom.Atom         // stable iteration order

	scc map[atom.Atom]*SCCInfo

	fullAdjMap map[atom.Atom]map[atom.Atom]bool // head -> body atoms (unsigned, full graph)
	posAdjMap  map[atom.Atom]map[atom.Atom]bool // head -> positively-occurring body atoms

	just map[atom.Atom]*Justification

	sccMembers map[int][]atom.Atom // positive-SCC id -> member atoms

	sched *scheduler

	bumpActivity func(atom.Atom)
}

// Options configures the definition engine's search strategy and
// scheduling frequency.
type Options struct {
	Strategy        Strategy
	Freq            Frequency
	TseitinThreshold int // |External(U)| above which a Tseitin variable replaces the raw disjunction
}

func NewEngine(tr *trail.Trail, db *clause.DB, opt Options) *Engine {
	if opt.TseitinThreshold <= 0 {
		opt.TseitinThreshold = 8
	}
	return &Engine{
		tr:   tr,
		db:   db,
		opt:  opt,
		rules: make(map[atom.Atom]*Rule),
		scc:  make(map[atom.Atom]*SCCInfo),
		just: make(map[atom.Atom]*Justification),
	}
}

// EndOfQueue implements §4.4's end-of-queue hook: recompute cycle sources,
// attempt to re-justify each, and, for any that cannot be re-justified,
// compute an unfounded set and instantiate its loop formula, per the
// Frequency and Strategy configured in Options. level/assignedVars gate
// whether the check runs at all this call, per the scheduler.
func (e *Engine) EndOfQueue(level, assignedVars int, newTseitin func() atom.Lit, addClause func([]atom.Lit)) (result *LoopFormulaResult) {
	if e.sched == nil {
		e.sched = newScheduler(e.opt.Freq, e.tr.NumVars())
	}
	e.sched.totalVars = e.tr.NumVars() // variables may have been added since

	if !e.sched.ShouldRun(level, assignedVars) {
		return nil
	}
	sources := e.RecomputeCycleSources()
	var unjustified []atom.Atom
	for _, a := range sources {
		if _, ok := e.TryJustify(a); !ok {
			unjustified = append(unjustified, a)
		}
	}
	if len(unjustified) == 0 {
		e.sched.OnQuietLevel()
		return nil
	}
	U := e.ComputeUnfoundedSet(unjustified)
	if len(U) == 0 {
		e.sched.OnQuietLevel()
		return nil
	}
	lf := e.BuildLoopFormula(U, newTseitin, addClause)
	e.sched.OnConflict()
	return &lf
}

func (e *Engine) SetActivityBumper(f func(atom.Atom)) { e.bumpActivity = f }

// AddRule registers a rule; its head must not already be defined.
func (e *Engine) AddRule(r *Rule) {
	v := r.Head.Var()
	if _, exists := e.rules[v]; !exists {
		e.headIdx = append(e.headIdx, v)
	}
	e.rules[v] = r
}

// FinishParsing implements §4.4 steps 2-4: compile the completion to
// clauses, build the dependency graphs, run two-pass Tarjan SCC, tag every
// defined atom, and drop definedness where it is not needed.
func (e *Engine) FinishParsing() {
	for _, v := range e.headIdx {
		e.compileCompletion(e.rules[v])
	}
	e.buildGraphs()
	e.tagSCCs()
}

// compileCompletion pushes the completion clauses of one rule to the SAT
// engine's clause database, per §4.4 step 2:
//   CONJ: head <-> AND(body)   => (head ∨ ¬b1 ∨ ... ∨ ¬bn) ∧ for each bi: (¬head ∨ bi)
//   DISJ: head <-> OR(body)    => dual
func (e *Engine) compileCompletion(r *Rule) {
	if r.Conn == AGGR {
		return // the aggregate engine owns this rule's completion
	}
	switch r.Conn {
	case CONJ:
		cl := make([]atom.Lit, 0, len(r.Body)+1)
		cl = append(cl, r.Head)
		for _, b := range r.Body {
			cl = append(cl, b.Negate())
		}
		e.db.Add(cl, false)
		for _, b := range r.Body {
			e.db.Add([]atom.Lit{r.Head.Negate(), b}, false)
		}
	case DISJ:
		cl := make([]atom.Lit, 0, len(r.Body)+1)
		cl = append(cl, r.Head.Negate())
		for _, b := range r.Body {
			cl = append(cl, b)
		}
		e.db.Add(cl, false)
		for _, b := range r.Body {
			e.db.Add([]atom.Lit{r.Head, b.Negate()}, false)
		}
	}
}

// buildGraphs constructs the full dependency graph (head -> every body
// atom) and the positive dependency graph (head -> positively-occurring
// body atoms), per §3's "Rules participate in a positive dependency
// graph: edges from head to positively occurring body atoms in the same
// definitional scope."
func (e *Engine) buildGraphs() {
	full := make(map[atom.Atom]map[atom.Atom]bool, len(e.rules))
	pos := make(map[atom.Atom]map[atom.Atom]bool, len(e.rules))
	for _, v := range e.headIdx {
		r := e.rules[v]
		full[v] = map[atom.Atom]bool{}
		pos[v] = map[atom.Atom]bool{}
		for _, b := range r.Body {
			bv := b.Var()
			if _, defined := e.rules[bv]; !defined {
				continue
			}
			full[v][bv] = true
			if !b.Sign() { // positive occurrence (not negated)
				pos[v][bv] = true
			}
		}
	}
	e.fullAdjMap = full
	e.posAdjMap = pos
}
