package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gosatid/satid/config"
)

func TestNewRootCmdRegistersExpectedFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"format", "models", "verbosity", "output", "defsearch", "defsem", "watchedagg", "polarity", "config"} {
		f := cmd.Flags().Lookup(name)
		require.NotNilf(t, f, "expected flag %q to be registered", name)
	}
}

func TestVerbosityToLevelMapsThresholds(t *testing.T) {
	require.Equal(t, "warning", verbosityToLevel(0).String())
	require.Equal(t, "info", verbosityToLevel(1).String())
	require.Equal(t, "debug", verbosityToLevel(2).String())
	require.Equal(t, "trace", verbosityToLevel(9).String())
}

func TestApplyFlagOverridesOnlyTouchesChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Set("defsem", "wellfounded"))

	cfg := config.Default()
	applyFlagOverrides(cmd, &cfg, options{defsem: "wellfounded"})

	require.Equal(t, config.DefSemWellfounded, cfg.DefSem)
	// defsearch was never set on the command, so it must keep its default.
	require.Equal(t, config.Default().DefSearch, cfg.DefSearch)
}
