package dimacs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gosatid/satid/atom"
)

func TestParseSimpleCNF(t *testing.T) {
	src := "c a tiny example\np cnf 3 2\n1 -2 0\n-1 3 0\n"
	p, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 3, p.NumVars)
	require.Len(t, p.Clauses, 2)
	require.Equal(t, []atom.Lit{atom.MkLit(0, false), atom.MkLit(1, true)}, p.Clauses[0])
	require.Equal(t, []atom.Lit{atom.MkLit(0, true), atom.MkLit(2, false)}, p.Clauses[1])
}

func TestParseClauseSpanningMultipleLines(t *testing.T) {
	src := "p cnf 2 1\n1\n-2\n0\n"
	p, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, p.Clauses, 1)
	require.Equal(t, []atom.Lit{atom.MkLit(0, false), atom.MkLit(1, true)}, p.Clauses[0])
}

func TestParseRejectsMissingProblemLine(t *testing.T) {
	_, err := Parse(strings.NewReader("1 2 0\n"))
	require.Error(t, err)
}

func TestParseRejectsUnterminatedClause(t *testing.T) {
	_, err := Parse(strings.NewReader("p cnf 2 1\n1 2\n"))
	require.Error(t, err)
}

func TestParseSkipsCommentLines(t *testing.T) {
	src := "c this is a free-form comment with words\nc another one\np cnf 1 1\n1 0\n"
	p, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, p.NumVars)
	require.Len(t, p.Clauses, 1)
}
