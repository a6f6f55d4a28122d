package definition

import "github.com/gosatid/satid/atom"

// CheckWellFounded implements §4.4's well-founded check: once a total
// model is found, every true defined atom in a positive or mixed loop
// must have a cycle-free justification chain through rule bodies to
// literals outside its positive SCC, or to literals assigned earlier on
// the trail. It returns the first atom lacking such a justification, if
// any.
func (e *Engine) CheckWellFounded() (ok bool, unjustified atom.Atom) {
	for _, v := range e.headIdx {
		info := e.scc[v]
		if info == nil || info.Class == NONDEFOCC {
			continue
		}
		if e.tr.VarValue(v) != atom.LTrue {
			continue
		}
		if !e.hasCycleFreeJustification(v, make(map[atom.Atom]bool)) {
			return false, v
		}
	}
	return true, 0
}

// hasCycleFreeJustification walks a chosen justification chain, failing if
// it revisits an atom (a cycle within the positive SCC that never escapes
// to an externally-true literal).
func (e *Engine) hasCycleFreeJustification(v atom.Atom, visiting map[atom.Atom]bool) bool {
	if visiting[v] {
		return false
	}
	j, ok := e.just[v]
	if !ok || len(j.Support) == 0 {
		return false
	}
	members := e.PositiveSCCMembers(v)
	inSCC := make(map[atom.Atom]bool, len(members))
	for _, m := range members {
		inSCC[m] = true
	}
	visiting[v] = true
	defer delete(visiting, v)
	for _, s := range j.Support {
		sv := s.Var()
		if !inSCC[sv] {
			if e.tr.Value(s) != atom.LFalse {
				return true
			}
			continue
		}
		if e.tr.VarLevel(sv) < e.tr.VarLevel(v) && e.tr.Value(s) != atom.LFalse {
			return true
		}
		if e.hasCycleFreeJustification(sv, visiting) {
			return true
		}
	}
	return false
}
