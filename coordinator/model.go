package coordinator

import (
	"fmt"
	"io"
	"sort"

	"github.com/gosatid/satid/atom"
)

// Status is the outcome of a Solve call, using the DIMACS-derived exit
// vocabulary every solver in this lineage reports.
type Status int

const (
	StatusUnknown Status = iota
	StatusSat
	StatusUnsat
)

// Result is what Solve returns: the outcome, the last model found (if any),
// and, when enumeration was requested, how many distinct models were
// produced before the caller's limit or the problem's own exhaustion.
type Result struct {
	Status     Status
	Model      []atom.Lit
	ModelCount int

	// Objective, ObjectiveFound and OptimumProven are not set by Solve or
	// by the optimize package's drivers; they stay zero unless a caller
	// fills them in before Write.
	Objective      int64
	ObjectiveFound bool
	OptimumProven  bool

	// Conflicts is the total number of conflicts resolved across this Solve
	// call, exposed for logging/diagnostics.
	Conflicts int64
}

// Write renders the result in the DIMACS-derived line format: an "s" status
// line, a sorted "v" model line when satisfiable, one leading "o" line for
// Objective when ObjectiveFound, and a final "OPTIMUM FOUND" marker when
// OptimumProven is set, per §6.
func (r *Result) Write(w io.Writer) error {
	if r.ObjectiveFound {
		if _, err := fmt.Fprintf(w, "o %d\n", r.Objective); err != nil {
			return err
		}
	}
	switch r.Status {
	case StatusSat:
		if _, err := fmt.Fprintln(w, "s SATISFIABLE"); err != nil {
			return err
		}
		if err := writeModelLine(w, r.Model); err != nil {
			return err
		}
	case StatusUnsat:
		if _, err := fmt.Fprintln(w, "s UNSATISFIABLE"); err != nil {
			return err
		}
	default:
		if _, err := fmt.Fprintln(w, "s UNKNOWN"); err != nil {
			return err
		}
	}
	if r.OptimumProven {
		if _, err := fmt.Fprintln(w, "s OPTIMUM FOUND"); err != nil {
			return err
		}
	}
	return nil
}

func writeModelLine(w io.Writer, model []atom.Lit) error {
	sorted := append([]atom.Lit(nil), model...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Var() < sorted[j].Var() })
	if _, err := fmt.Fprint(w, "v"); err != nil {
		return err
	}
	for _, l := range sorted {
		if _, err := fmt.Fprintf(w, " %d", l.Dimacs()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, " 0")
	return err
}

// currentModel reads every assigned variable off the trail as the literal
// reflecting its current value.
func (c *Coordinator) currentModel() []atom.Lit {
	n := c.tr.NumVars()
	out := make([]atom.Lit, 0, n)
	for a := 0; a < n; a++ {
		v := c.tr.VarValue(atom.Atom(a))
		if v == atom.LUndef {
			continue
		}
		out = append(out, atom.MkLit(atom.Atom(a), v == atom.LFalse))
	}
	return out
}

// decisionLiterals returns the decision literal opening each active
// decision level 1..Level(), which by construction is always the first
// trail entry at that level (Solve only ever calls NewDecisionLevel
// immediately followed by Enqueue of the decision itself).
func (c *Coordinator) decisionLiterals() []atom.Lit {
	var out []atom.Lit
	for lvl := 1; lvl <= c.tr.Level(); lvl++ {
		out = append(out, c.tr.LitAt(c.tr.LevelStart(lvl)))
	}
	return out
}

// invalidateModel backtracks to level 0 and adds the blocking clause
// (the negation of every decision literal in the current model) per §4.1's
// model-enumeration rule. It returns false when the model had no decisions
// to block (the model is the problem's unique solution).
func (c *Coordinator) invalidateModel() bool {
	dec := c.decisionLiterals()
	if len(dec) == 0 {
		return false
	}
	block := make([]atom.Lit, len(dec))
	for i, l := range dec {
		block[i] = l.Negate()
	}
	c.sat.BacktrackTo(0)
	if c.qTheory > c.tr.Len() {
		c.qTheory = c.tr.Len()
	}
	ref := c.db.Add(block, true)
	c.db.Get(ref).SetLBD(len(block))
	return true
}
