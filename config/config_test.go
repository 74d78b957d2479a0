package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.Equal(c.GetString(ConfigAlgorithm), "BnB")
	is.Equal(c.GetInt(ConfigTime), 600)
	is.Equal(c.Cutoff(), 600*time.Second)
	is.Equal(c.GetInt(ConfigBnBMaxFrontier), 800000)
	is.Equal(c.GetDuration(ConfigBnBReportInterval), time.Second)
	is.Equal(c.GetFloat64(ConfigSAAlpha), 0.95)
	seeds, err := c.Seeds()
	is.NoErr(err)
	is.Equal(seeds, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
}

func TestFlagsOverrideDefaults(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.NoErr(c.Load([]string{"--inst", "data/small.in", "--alg", "LS1", "--time", "5",
		"--seed", "42", "--seeds", "3,4", "--sa-alpha", "0.9", "--debug"}))
	is.Equal(c.GetString(ConfigInstance), "data/small.in")
	is.Equal(c.GetString(ConfigAlgorithm), "LS1")
	is.Equal(c.Cutoff(), 5*time.Second)
	is.Equal(c.GetInt64(ConfigSeed), int64(42))
	is.Equal(c.GetFloat64(ConfigSAAlpha), 0.9)
	is.True(c.GetBool(ConfigDebug))
	seeds, err := c.Seeds()
	is.NoErr(err)
	is.Equal(seeds, []int64{3, 4})
	// untouched keys keep their defaults
	is.Equal(c.GetInt(ConfigHCNoImproveLimit), 20)
}

func TestEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("SETCOVER_HC_MAX_SUBSET_CHECKS", "7")
	t.Setenv("SETCOVER_SEEDS", "5, 6,7")
	c := DefaultConfig()
	is.NoErr(c.Load(nil))
	is.Equal(c.GetInt(ConfigHCMaxSubsetChecks), 7)
	seeds, err := c.Seeds()
	is.NoErr(err)
	is.Equal(seeds, []int64{5, 6, 7})
}

func TestConfigFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	is.NoErr(os.WriteFile(path, []byte("alg: LS2\nsa-moves-per-temp: 100\nseeds: [8, 9]\n"), 0o644))
	c := DefaultConfig()
	is.NoErr(c.Load([]string{"--config", path, "--alg", "Approx"}))
	// flags beat the file
	is.Equal(c.GetString(ConfigAlgorithm), "Approx")
	is.Equal(c.GetInt(ConfigSAMovesPerTemp), 100)
	seeds, err := c.Seeds()
	is.NoErr(err)
	is.Equal(seeds, []int64{8, 9})
}

func TestMissingConfigFile(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.True(c.Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}) != nil)
}

func TestBadFlag(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.True(c.Load([]string{"--no-such-flag"}) != nil)
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	c.Set(ConfigInstance, "a.in")
	c.Set(ConfigLogStream, "/abs/log.yaml")
	c.AdjustRelativePaths("/base")
	is.Equal(c.GetString(ConfigInstance), "/base/a.in")
	is.Equal(c.GetString(ConfigLogStream), "/abs/log.yaml")
	is.Equal(c.GetString(ConfigOutputDir), "/base")
	// empty paths stay empty
	is.Equal(c.GetString(ConfigCPUProfile), "")
}
