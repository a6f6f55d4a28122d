package coordinator

import "github.com/gosatid/satid/atom"

// Child is a minimal two-level modal stacker, per §4.7: a nested
// Coordinator solving a child theory whose "rigid" atoms are shared with
// the parent (fixed by the parent, never independently decided by the
// child) while every other atom is local to the child's own search.
// Arbitrary tree depth and full modal semantics are out of scope; this
// covers exactly the parent/child pair the spec names.
type Child struct {
	parent *Coordinator
	child  *Coordinator
	rigid  map[atom.Atom]bool
}

// NewChild wraps child under parent, sharing rigid as the atoms whose
// truth value the parent controls.
func NewChild(parent, child *Coordinator, rigid []atom.Atom) *Child {
	m := make(map[atom.Atom]bool, len(rigid))
	for _, a := range rigid {
		m[a] = true
	}
	return &Child{parent: parent, child: child, rigid: m}
}

// Rigid reports whether a is shared with the parent rather than local to
// the child.
func (c *Child) Rigid(a atom.Atom) bool { return c.rigid[a] }

// Lift passes the parent's current assignment to every assigned rigid atom
// as an assumption of one child Solve call, reporting whether the
// parent's candidate assignment is consistent with the child theory. A
// false result means the caller should add the negation of the rigid
// assignment as a clause back in the parent.
func (c *Child) Lift() bool {
	var forced []atom.Lit
	for a := range c.rigid {
		v := c.parent.tr.VarValue(a)
		if v == atom.LUndef {
			continue
		}
		forced = append(forced, atom.MkLit(a, v == atom.LFalse))
	}
	res := c.child.Solve(forced, SolveOptions{})
	return res.Status == StatusSat
}
