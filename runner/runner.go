// Package runner ties configuration, instance loading and the search
// strategies together for a single run.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"

	"github.com/domino14/setcover/anneal"
	"github.com/domino14/setcover/artifact"
	"github.com/domino14/setcover/bnb"
	"github.com/domino14/setcover/cache"
	"github.com/domino14/setcover/config"
	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/greedy"
	"github.com/domino14/setcover/hillclimb"
	"github.com/domino14/setcover/instance"
)

// Runner runs strategies with options taken from its config. Instances it
// loads are cached by file name and content.
type Runner struct {
	cfg       *config.Config
	cache     *cache.Cache
	logStream io.Writer
}

func New(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg, cache: cache.New()}
}

// SetLogStream sends every incumbent improvement of later runs to w as YAML.
func (r *Runner) SetLogStream(w io.Writer) {
	r.logStream = w
}

func (r *Runner) Config() *config.Config {
	return r.cfg
}

// LoadInstance parses the instance at path, or returns the cached copy if
// the same file has been loaded before.
func (r *Runner) LoadInstance(path string) (*instance.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%016x", instance.Stem(path), xxhash.Sum64(data))
	obj, err := r.cache.Load(r.cfg, key, func(_ *config.Config, _ string) (any, error) {
		inst, err := instance.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		inst.Name = instance.Stem(path)
		log.Info().Str("instance", inst.Name).Int("n", inst.N()).Int("m", inst.M()).
			Msg("instance-loaded")
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*instance.Instance), nil
}

// Run solves inst with strategy s. The seed only matters to randomized
// strategies. The returned cover has been verified against inst.
func (r *Runner) Run(ctx context.Context, inst *instance.Instance, s Strategy,
	cutoff time.Duration, seed int64) (*cover.Result, error) {

	log.Debug().Str("instance", inst.Name).Stringer("strategy", s).
		Dur("cutoff", cutoff).Int64("seed", seed).Msg("run-starting")

	var res *cover.Result
	var err error
	switch s {
	case Approximation:
		res, err = greedy.Approximate(ctx, inst)
	case BranchAndBound:
		solver := &bnb.Solver{}
		if err = solver.Init(inst, r.BnBOptions()); err != nil {
			return nil, err
		}
		solver.SetLogStream(r.logStream)
		res, err = solver.Solve(ctx, cutoff)
	case HillClimbing:
		searcher := &hillclimb.Searcher{}
		if err = searcher.Init(inst, r.HillClimbOptions()); err != nil {
			return nil, err
		}
		searcher.SetLogStream(r.logStream)
		res, err = searcher.Search(ctx, cutoff, seed)
	case SimulatedAnnealing:
		searcher := &anneal.Searcher{}
		if err = searcher.Init(inst, r.AnnealOptions()); err != nil {
			return nil, err
		}
		searcher.SetLogStream(r.logStream)
		res, err = searcher.Search(ctx, cutoff, seed)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
	if err != nil {
		return nil, err
	}
	if err := cover.Verify(inst, res.Selection); err != nil {
		return nil, fmt.Errorf("%v returned a bad cover for %s: %w", s, inst.Name, err)
	}
	return res, nil
}

// RunFile loads path, runs s on it and writes the .sol and .trace
// artifacts to the output directory.
func (r *Runner) RunFile(ctx context.Context, path string, s Strategy,
	cutoffSec int, seed int64) (*cover.Result, error) {

	inst, err := r.LoadInstance(path)
	if err != nil {
		return nil, err
	}
	res, err := r.Run(ctx, inst, s, time.Duration(cutoffSec)*time.Second, seed)
	if err != nil {
		return nil, err
	}
	_, _, err = artifact.WriteFiles(r.cfg.GetString(config.ConfigOutputDir),
		artifact.Stem(inst.Name, s.Short(), cutoffSec, seed), res)
	return res, err
}
