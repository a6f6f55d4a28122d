package definition

import "github.com/gosatid/satid/atom"

// tarjan runs Tarjan's SCC algorithm over an adjacency map, returning each
// node's component id (0-based, in reverse topological order) and the
// members of each component.
func tarjan(nodes []atom.Atom, adj map[atom.Atom]map[atom.Atom]bool) (comp map[atom.Atom]int, members map[int][]atom.Atom) {
	index := make(map[atom.Atom]int)
	lowlink := make(map[atom.Atom]int)
	onStack := make(map[atom.Atom]bool)
	var stack []atom.Atom
	comp = make(map[atom.Atom]int)
	members = make(map[int][]atom.Atom)
	next := 0
	nextComp := 0

	var strongconnect func(v atom.Atom)
	strongconnect = func(v atom.Atom) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for w := range adj[v] {
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			id := nextComp
			nextComp++
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp[w] = id
				members[id] = append(members[id], w)
				if w == v {
					break
				}
			}
		}
	}

	for _, v := range nodes {
		if _, seen := index[v]; !seen {
			strongconnect(v)
		}
	}
	return comp, members
}

// tagSCCs implements §4.4 step 3/4: run Tarjan twice (full graph and
// positive-only graph), tag every defined atom's SCCInfo, and classify it
// per §3 (NONDEFOCC / POSLOOP / MIXEDLOOP / BOTHLOOP). Step 4 ("drop
// definedness of atoms that end up in no positive SCC of size > 1 and no
// negation cycle") is implemented by leaving such atoms classified
// NONDEFOCC, which every downstream check treats as "not participating in
// recursive justification" — a cheaper equivalent of physically removing
// the rule, since compileCompletion has already emitted its clauses.
func (e *Engine) tagSCCs() {
	fullComp, _ := tarjan(e.headIdx, e.fullAdjMap)
	posComp, posMembers := tarjan(e.headIdx, e.posAdjMap)
	e.sccMembers = posMembers

	// A negation cycle exists for v if v can reach itself in the full
	// graph through at least one edge that is a negative occurrence; we
	// approximate per spec intent by checking whether v's full-graph SCC
	// has size > 1 while its positive-graph SCC does not (a cycle closes
	// only via at least one negated edge).
	fullSize := map[int]int{}
	for _, c := range fullComp {
		fullSize[c]++
	}
	posSize := map[int]int{}
	for _, c := range posComp {
		posSize[c]++
	}

	e.scc = make(map[atom.Atom]*SCCInfo, len(e.headIdx))
	for _, v := range e.headIdx {
		info := &SCCInfo{FullSCC: fullComp[v], PositiveSCC: posComp[v]}
		inPosLoop := posSize[posComp[v]] > 1
		inFullLoop := fullSize[fullComp[v]] > 1
		switch {
		case inPosLoop:
			info.Class = POSLOOP
		case inFullLoop:
			info.Class = MIXEDLOOP
		default:
			info.Class = NONDEFOCC
		}
		e.scc[v] = info
	}

	// BOTHLOOP: an atom that is both in a positive loop and reachable via
	// a separate negation cycle in the full graph gets upgraded.
	for _, v := range e.headIdx {
		info := e.scc[v]
		if info.Class == POSLOOP {
			for b := range e.fullAdjMap[v] {
				if !e.posAdjMap[v][b] && fullSize[fullComp[b]] > 1 {
					info.Class = BOTHLOOP
					break
				}
			}
		}
	}
}

// SCCOf returns the SCC tagging for a defined atom.
func (e *Engine) SCCOf(a atom.Atom) (*SCCInfo, bool) {
	info, ok := e.scc[a]
	return info, ok
}

// PositiveSCCMembers returns every defined atom sharing a's positive-graph
// SCC.
func (e *Engine) PositiveSCCMembers(a atom.Atom) []atom.Atom {
	info, ok := e.scc[a]
	if !ok {
		return nil
	}
	return e.sccMembers[info.PositiveSCC]
}
