// Package config holds the run configuration of the set cover tools. Values
// come, in increasing precedence, from built-in defaults, an optional YAML
// file, SETCOVER_* environment variables and command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug       = "debug"
	ConfigFile        = "config"
	ConfigInstance    = "inst"
	ConfigAlgorithm   = "alg"
	ConfigTime        = "time"
	ConfigSeed        = "seed"
	ConfigOutputDir   = "output-dir"
	ConfigLogStream   = "log-stream"
	ConfigDataDir     = "data-dir"
	ConfigSeeds       = "seeds"
	ConfigSeedFile    = "seed-file"
	ConfigDeriveSeeds = "derive-seeds"
	ConfigThreads     = "threads"
	ConfigCPUProfile  = "cpu-profile"

	ConfigBnBMaxFrontier    = "bnb-max-frontier"
	ConfigBnBMemoryFraction = "bnb-memory-fraction"
	ConfigBnBReportInterval = "bnb-report-interval"

	ConfigHCNoImproveLimit  = "hc-no-improve-limit"
	ConfigHCMaxSubsetChecks = "hc-max-subset-checks"
	ConfigHCReoptimizeEvery = "hc-reoptimize-every"
	ConfigHCMaxSwapFraction = "hc-max-swap-fraction"
	ConfigHCMaxIterations   = "hc-max-iterations"

	ConfigSAInitialTemp  = "sa-initial-temp"
	ConfigSAFinalTemp    = "sa-final-temp"
	ConfigSAAlpha        = "sa-alpha"
	ConfigSAMovesPerTemp = "sa-moves-per-temp"
	ConfigSARestartRatio = "sa-restart-ratio"
)

const EnvPrefix = "setcover"

type option struct {
	key   string
	def   any
	usage string
}

var options = []option{
	{ConfigDebug, false, "debug logging"},
	{ConfigFile, "", "optional YAML config file"},
	{ConfigInstance, "", "instance file"},
	{ConfigAlgorithm, "BnB", "strategy: BnB, Approx, LS1 or LS2 (or the full names)"},
	{ConfigTime, 600, "cutoff in seconds"},
	{ConfigSeed, int64(0), "random seed"},
	{ConfigOutputDir, ".", "directory for .sol and .trace files"},
	{ConfigLogStream, "", "write every incumbent improvement to this YAML file"},
	{ConfigDataDir, "./data", "batch: directory holding *.in (and optional *.out) files"},
	{ConfigSeeds, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, "batch: seeds to run"},
	{ConfigSeedFile, "", "batch: read seeds from this file instead"},
	{ConfigDeriveSeeds, 0, "batch: derive this many seeds from --seed instead"},
	{ConfigThreads, runtime.NumCPU(), "batch: concurrent runs"},
	{ConfigCPUProfile, "", "write a CPU profile to this file"},

	{ConfigBnBMaxFrontier, 800000, "frontier node cap; 0 derives it from system memory"},
	{ConfigBnBMemoryFraction, 0.25, "fraction of system memory for a derived frontier cap"},
	{ConfigBnBReportInterval, time.Second, "progress log interval"},

	{ConfigHCNoImproveLimit, 20, "strikes before a perturbed restart"},
	{ConfigHCMaxSubsetChecks, 50, "repair candidates sampled per move"},
	{ConfigHCReoptimizeEvery, 10, "strikes between redundancy sweeps"},
	{ConfigHCMaxSwapFraction, 0.1, "swap size cap relative to the cover"},
	{ConfigHCMaxIterations, 0, "stop after this many moves (0: cutoff only)"},

	{ConfigSAInitialTemp, 1.0, "starting temperature"},
	{ConfigSAFinalTemp, 0.01, "temperature floor"},
	{ConfigSAAlpha, 0.95, "geometric cooling factor"},
	{ConfigSAMovesPerTemp, 10000, "moves per temperature level"},
	{ConfigSARestartRatio, 0.5, "reset to the greedy cover when a neighbour is this much worse than the best"},
}

type Config struct {
	*viper.Viper
}

// DefaultConfig is a configuration with every default set and no flags,
// file or environment applied.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	for _, o := range options {
		c.SetDefault(o.key, o.def)
	}
	return c
}

// FlagSet declares one flag per configuration key.
func FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	for _, o := range options {
		switch d := o.def.(type) {
		case bool:
			fs.Bool(o.key, d, o.usage)
		case string:
			fs.String(o.key, d, o.usage)
		case int:
			fs.Int(o.key, d, o.usage)
		case int64:
			fs.Int64(o.key, d, o.usage)
		case float64:
			fs.Float64(o.key, d, o.usage)
		case time.Duration:
			fs.Duration(o.key, d, o.usage)
		case []int:
			fs.IntSlice(o.key, d, o.usage)
		default:
			panic(fmt.Sprintf("config: no flag type for %s (%T)", o.key, d))
		}
	}
	return fs
}

// Load parses args and layers environment variables and the optional
// config file under them.
func (c *Config) Load(args []string) error {
	fs := FlagSet(EnvPrefix)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix(EnvPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigFile); path != "" {
		c.SetConfigFile(path)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return nil
}

// Seeds is the batch seed list. The environment and config files may give
// it as a comma-separated string.
func (c *Config) Seeds() ([]int64, error) {
	var raw []string
	switch v := c.Get(ConfigSeeds).(type) {
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		for _, s := range c.GetIntSlice(ConfigSeeds) {
			raw = append(raw, strconv.Itoa(s))
		}
	}
	seeds := make([]int64, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad seed %q: %w", s, err)
		}
		seeds = append(seeds, v)
	}
	return seeds, nil
}

// Cutoff is the time key as a duration.
func (c *Config) Cutoff() time.Duration {
	return time.Duration(c.GetFloat64(ConfigTime) * float64(time.Second))
}

// AdjustRelativePaths makes the path-valued keys relative to dir, for
// configs read from a file outside the working directory.
func (c *Config) AdjustRelativePaths(dir string) {
	for _, key := range []string{ConfigInstance, ConfigOutputDir, ConfigLogStream, ConfigDataDir,
		ConfigSeedFile, ConfigCPUProfile} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(dir, p))
	}
}

// SanitizedSettings is AllSettings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	delete(settings, ConfigFile)
	return settings
}
