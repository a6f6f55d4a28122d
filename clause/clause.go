// Package clause implements the watched-literal clause database. Clauses
// are addressed by a stable Ref into an arena owned by the SAT engine;
// theory engines that need to remember a clause across calls store the Ref,
// never a pointer, per the "shared-ownership smart pointers" redesign note.
package clause

import (
	"fmt"

	"github.com/gosatid/satid/atom"
)

// Ref is a stable index into a DB's arena. The zero value is never a valid
// clause; use RefNone to mean "no clause".
type Ref int32

// RefNone is the sentinel for "no clause".
const RefNone Ref = -1

// Clause is an ordered disjunction of literals with two watched positions
// (the first two slots of Lits). Learned clauses carry LBD-based tiering
// used by the deletion policy, following the teacher's Clause type.
type Clause struct {
	Lits     []atom.Lit
	Learned  bool
	Activity float64
	LBD      int
	deleted  bool
}

// SetLBD records the literal block distance of a learned clause and
// derives its deletion tier: 0 (core, never deleted), 1 (mid), 2 (local).
func (c *Clause) SetLBD(lbd int) {
	c.LBD = lbd
}

// Tier classifies a learned clause for the reduction policy.
func (c *Clause) Tier() int {
	switch {
	case c.LBD <= 2:
		return 0
	case c.LBD <= 6:
		return 1
	default:
		return 2
	}
}

func (c *Clause) String() string {
	return fmt.Sprintf("%v", c.Lits)
}

// Tautological reports whether c contains both a literal and its negation;
// such a clause is trivially satisfied and must never be learned.
func (c *Clause) Tautological() bool {
	seen := make(map[atom.Lit]bool, len(c.Lits))
	for _, l := range c.Lits {
		if seen[l.Negate()] {
			return true
		}
		seen[l] = true
	}
	return false
}

// DB is the clause arena plus the two-watched-literal index used by the
// SAT engine's unit propagation. Engines that materialize on-demand
// explanation clauses call MakeClause, which allocates without registering
// watches, per §4.2.
type DB struct {
	clauses []Clause
	watches map[atom.Lit][]Ref
}

// NewDB creates an empty clause database.
func NewDB() *DB {
	return &DB{watches: make(map[atom.Lit][]Ref)}
}

// Add allocates a new clause, registers its first two literals on the
// watch lists, and returns its Ref. Clauses of length < 2 are still
// allocated (unit/empty clauses are handled directly by propagation/UNSAT
// detection, not via watches).
func (db *DB) Add(lits []atom.Lit, learned bool) Ref {
	r := db.MakeClause(lits, learned)
	db.Watch(r)
	return r
}

// MakeClause allocates a clause without registering it on watches, for
// on-demand explanation materialization.
func (db *DB) MakeClause(lits []atom.Lit, learned bool) Ref {
	cp := make([]atom.Lit, len(lits))
	copy(cp, lits)
	db.clauses = append(db.clauses, Clause{Lits: cp, Learned: learned})
	return Ref(len(db.clauses) - 1)
}

// Watch registers a clause's first two literals on the watch lists. It is
// idempotent-unsafe: callers must not Watch the same Ref twice.
func (db *DB) Watch(r Ref) {
	c := db.Get(r)
	if len(c.Lits) == 0 {
		return
	}
	if len(c.Lits) == 1 {
		db.watches[c.Lits[0].Negate()] = append(db.watches[c.Lits[0].Negate()], r)
		return
	}
	db.watches[c.Lits[0].Negate()] = append(db.watches[c.Lits[0].Negate()], r)
	db.watches[c.Lits[1].Negate()] = append(db.watches[c.Lits[1].Negate()], r)
}

// Get returns a pointer to the clause addressed by r.
func (db *DB) Get(r Ref) *Clause {
	return &db.clauses[r]
}

// Watchers returns the clauses currently watching the falsification of l
// (i.e. clauses that must be re-examined when l becomes true).
func (db *DB) Watchers(l atom.Lit) []Ref {
	return db.watches[l]
}

// SetWatchers replaces the watch list for l; used by propagation to
// rebuild the list in place while relocating watches.
func (db *DB) SetWatchers(l atom.Lit, rs []Ref) {
	db.watches[l] = rs
}

// Delete marks a learned clause as logically removed. Its Ref remains
// valid (so stale explanations are still readable) but it is skipped
// during watch-list compaction and unit propagation.
func (db *DB) Delete(r Ref) {
	db.clauses[r].deleted = true
}

// Deleted reports whether r has been marked removed.
func (db *DB) Deleted(r Ref) bool {
	return db.clauses[r].deleted
}

// Len returns the number of clauses ever allocated (including deleted
// ones, whose Refs must stay stable).
func (db *DB) Len() int { return len(db.clauses) }

// Learned returns the Refs of every non-deleted learned clause, in
// allocation order.
func (db *DB) Learned() []Ref {
	var out []Ref
	for i := range db.clauses {
		if db.clauses[i].Learned && !db.clauses[i].deleted {
			out = append(out, Ref(i))
		}
	}
	return out
}
