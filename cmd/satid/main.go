// Command satid is a thin demonstration CLI over the coordinator package,
// exposing a representative slice of spec.md's `minisatid` CLI surface
// (`-n`, `--verbosity`, `--defsearch`, `--defsem`, `--watchedagg`,
// `--polarity`, `--format`, `-o`, `--config`) per SPEC_FULL.md §6. It
// drives the coordinator through its Go API (AddClause/FinishParsing/
// Solve) rather than through a text parser for rules or aggregates — only
// plain DIMACS CNF input is accepted, via internal/dimacs. Grounded on
// operator-framework-operator-lifecycle-manager's cmd/catalog/start.go
// newRootCmd/options-struct shape.
package main

import (
	"os"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(0)
	}
}
