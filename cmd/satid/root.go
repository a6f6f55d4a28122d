package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gosatid/satid/aggregate"
	"github.com/gosatid/satid/config"
	"github.com/gosatid/satid/coordinator"
	"github.com/gosatid/satid/definition"
	"github.com/gosatid/satid/internal/dimacs"
	"github.com/gosatid/satid/runtime"
)

// Exit codes, preserved from spec.md's CLI surface: 10 SAT, 20 UNSAT, 0
// indeterminate or aborted (also used for ordinary CLI usage errors, since
// the spec's exit-code contract is a closed three-value set).
const (
	exitSAT           = 10
	exitUNSAT         = 20
	exitIndeterminate = 0
)

type options struct {
	format     formatValue
	n          int
	verbosity  int
	output     string
	defsearch  string
	defsem     string
	watchedagg bool
	polarity   string
	configPath string
}

// formatValue is a pflag.Value restricting --format to spec.md's closed
// set of input-format names, so an unrecognized value is rejected at flag
// parse time rather than silently falling through to Fodot behavior.
type formatValue string

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string { return string(*f) }
func (f *formatValue) Type() string   { return "format" }
func (f *formatValue) Set(v string) error {
	switch v {
	case "fodot", "asp", "opb", "fz":
		*f = formatValue(v)
		return nil
	default:
		return fmt.Errorf("unknown --format %q (want fodot|asp|opb|fz)", v)
	}
}

func newRootCmd() *cobra.Command {
	o := options{format: "fodot"}

	cmd := &cobra.Command{
		Use:   "satid INPUT",
		Short: "Demonstration CDCL+aggregate+definition SAT(ID) solver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run(cmd, args[0], o)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.VarP(&o.format, "format", "f", "input format (fodot|asp|opb|fz); only fodot's plain clausal subset is implemented")
	flags.IntVarP(&o.n, "models", "n", 0, "model enumeration cap; 0 or 1 means a single model")
	flags.IntVar(&o.verbosity, "verbosity", 1, "log verbosity level")
	flags.StringVarP(&o.output, "output", "o", "", "output file (default stdout)")
	flags.StringVar(&o.defsearch, "defsearch", "", "unfounded-set check frequency: always|adaptive|lazy")
	flags.StringVar(&o.defsem, "defsem", "", "aggregate derivation semantics: stable|wellfounded")
	flags.BoolVar(&o.watchedagg, "watchedagg", true, "enable the watched/gini-backed cardinality aggregate strategy")
	flags.StringVar(&o.polarity, "polarity", "", "initial decision polarity: true|false|rand|user")
	flags.StringVar(&o.configPath, "config", "", "YAML config file (see config.Options); flags override its values")

	return cmd
}

// run loads opt (merging CLI flags over any --config file), parses the
// DIMACS input, drives the coordinator to a result, writes it, and exits
// with the preserved 10/20/0 exit code — matching the "abort with a
// diagnostic, print UNKNOWN" language of §7 for any internal panic.
func run(cmd *cobra.Command, inputPath string, o options) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitIndeterminate)
	}
	applyFlagOverrides(cmd, &cfg, o)

	rt := runtime.New(verbosityToLevel(cfg.Verbosity))

	defer func() {
		if r := recover(); r != nil {
			rt.Log.Errorf("internal error: %v", r)
			fmt.Println("s UNKNOWN")
			os.Exit(exitIndeterminate)
		}
	}()

	f, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitIndeterminate)
	}
	defer f.Close()

	problem, err := dimacs.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitIndeterminate)
	}

	co := coordinator.New(problem.NumVars, rt, coordinator.Options{
		Aggregate:  aggregate.Options{UseGiniCardinality: cfg.WatchedAggEnabled()},
		Definition: definition.Options{Freq: cfg.DefinitionFrequency()},
	})
	co.SetPolarityMode(cfg.PolarityMode())

	for _, cl := range problem.Clauses {
		if !co.AddClause(cl) {
			writeResultAndExit(cfg, &coordinator.Result{Status: coordinator.StatusUnsat})
		}
	}

	if _, unsat := co.FinishParsing(); unsat {
		writeResultAndExit(cfg, &coordinator.Result{Status: coordinator.StatusUnsat})
	}

	opt := coordinator.SolveOptions{}
	if cfg.N > 1 {
		opt.EnumerateModels = true
		opt.MaxModels = cfg.N
	}
	res := co.Solve(nil, opt)
	writeResultAndExit(cfg, res)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Options, o options) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = config.Format(o.format)
	}
	if flags.Changed("models") {
		cfg.N = o.n
	}
	if flags.Changed("verbosity") {
		cfg.Verbosity = o.verbosity
	}
	if flags.Changed("output") {
		cfg.Output = o.output
	}
	if flags.Changed("defsearch") {
		cfg.DefSearch = config.DefSearch(o.defsearch)
	}
	if flags.Changed("defsem") {
		cfg.DefSem = config.DefSem(o.defsem)
	}
	if flags.Changed("watchedagg") {
		v := o.watchedagg
		cfg.WatchedAgg = &v
	}
	if flags.Changed("polarity") {
		cfg.Polarity = config.Polarity(o.polarity)
	}
}

func verbosityToLevel(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.WarnLevel
	case v == 1:
		return logrus.InfoLevel
	case v == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

func writeResultAndExit(cfg config.Options, res *coordinator.Result) {
	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitIndeterminate)
		}
		defer f.Close()
		out = f
	}
	if err := res.Write(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitIndeterminate)
	}
	switch res.Status {
	case coordinator.StatusSat:
		os.Exit(exitSAT)
	case coordinator.StatusUnsat:
		os.Exit(exitUNSAT)
	default:
		os.Exit(exitIndeterminate)
	}
}
