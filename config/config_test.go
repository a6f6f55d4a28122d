package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gosatid/satid/aggregate"
	"github.com/gosatid/satid/definition"
	"github.com/gosatid/satid/satengine"
)

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	opt, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), opt)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n: 5\ndefsem: wellfounded\npolarity: rand\n"), 0o644))

	opt, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, opt.N)
	require.Equal(t, DefSemWellfounded, opt.DefSem)
	require.Equal(t, Polarity("rand"), opt.Polarity)
	// Fields the file omitted keep their defaults.
	require.Equal(t, FormatFodot, opt.Format)
	require.True(t, opt.WatchedAggEnabled())
}

func TestLoadHonorsExplicitWatchedAggFalse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watchedagg: false\n"), 0o644))

	opt, err := Load(path)
	require.NoError(t, err)
	require.False(t, opt.WatchedAggEnabled())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefinitionFrequencyMapsDefSearch(t *testing.T) {
	o := Options{DefSearch: DefSearchAlways}
	require.Equal(t, definition.Always, o.DefinitionFrequency())

	o.DefSearch = DefSearchLazy
	require.Equal(t, definition.Lazy, o.DefinitionFrequency())

	o.DefSearch = ""
	require.Equal(t, definition.Adaptive, o.DefinitionFrequency())
}

func TestAggregateSemanticsMapsDefSem(t *testing.T) {
	o := Options{DefSem: DefSemWellfounded}
	require.Equal(t, aggregate.Definition, o.AggregateSemantics())

	o.DefSem = DefSemStable
	require.Equal(t, aggregate.Completion, o.AggregateSemantics())
}

func TestPolarityModeMapsPolarity(t *testing.T) {
	o := Options{Polarity: PolarityTrue}
	require.Equal(t, satengine.PolarityTrue, o.PolarityMode())

	o.Polarity = PolarityRand
	require.Equal(t, satengine.PolarityRand, o.PolarityMode())

	o.Polarity = PolarityFalse
	require.Equal(t, satengine.PolarityFalse, o.PolarityMode())
}
