// Package dimacs reads the plain DIMACS CNF clause format, for the tests
// and the demo binary only — not a stand-in for the ECNF/LParse/OPB/FlatZinc
// parser family named in §6, which remains out of scope. Grounded on the
// header/body split of go-air/gini's (vendored as irifrance/gini in the
// retrieval pack) dimacs.ReadCnf: a "p cnf <vars> <clauses>" header line,
// then whitespace/newline-separated signed integers terminated by 0, one
// clause per run. Unlike that package this one builds a single in-memory
// Problem rather than streaming through a CnfVis callback, since the only
// callers are tests and a demo CLI loading small inputs, and emits
// atom.Lit directly via atom.MkLit using dimacs's own 1-based/negative-sign
// convention instead of a second z.Lit-shaped literal type.
package dimacs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gosatid/satid/atom"
)

// Problem is a parsed CNF: NumVars is the header's declared variable count
// (atoms are numbered 0..NumVars-1), and Clauses holds one []atom.Lit per
// input clause in file order.
type Problem struct {
	NumVars int
	Clauses [][]atom.Lit
}

// Parse reads a DIMACS CNF file from r. A line starting with "c" is a
// comment and is skipped; the first non-comment line must be
// "p cnf <vars> <clauses>". Clause literals follow as dimacs-signed
// integers (1-based variable numbers, negative for a negated literal), one
// or more per line, each clause terminated by a literal 0 (which may share
// a line with the clause's other literals or stand alone).
func Parse(r io.Reader) (*Problem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	p := &Problem{}
	sawHeader := false
	var cur []atom.Lit
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "c") {
			continue
		}
		fields := strings.Fields(text)
		if fields[0] == "p" {
			if sawHeader {
				return nil, errors.Errorf("dimacs: line %d: more than one problem line", line)
			}
			if len(fields) != 4 || fields[1] != "cnf" {
				return nil, errors.Errorf("dimacs: line %d: expected 'p cnf <vars> <clauses>'", line)
			}
			nv, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, errors.Wrapf(err, "dimacs: line %d: problem line vars", line)
			}
			if _, err := strconv.Atoi(fields[3]); err != nil {
				return nil, errors.Wrapf(err, "dimacs: line %d: problem line clause count", line)
			}
			p.NumVars = nv
			sawHeader = true
			continue
		}
		if !sawHeader {
			return nil, errors.Errorf("dimacs: line %d: literal before problem line", line)
		}
		for _, tok := range fields {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil, errors.Wrapf(err, "dimacs: line %d: unexpected token %q", line, tok)
			}
			if n == 0 {
				p.Clauses = append(p.Clauses, cur)
				cur = nil
				continue
			}
			v, neg := n, false
			if v < 0 {
				v, neg = -v, true
			}
			cur = append(cur, atom.MkLit(atom.Atom(v-1), neg))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dimacs: scan")
	}
	if len(cur) != 0 {
		return nil, errors.New("dimacs: final clause not terminated by 0")
	}
	if !sawHeader {
		return nil, errors.New("dimacs: missing problem line")
	}
	return p, nil
}
