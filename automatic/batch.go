// Package automatic runs strategies over many instances and seeds without
// supervision and summarizes how they did.
package automatic

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/setcover/artifact"
	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/instance"
	"github.com/domino14/setcover/runner"
)

var (
	RunCounter *expvar.Int
	IsRunning  *expvar.Int
)

var ErrBatchRunning = errors.New("a batch is already running, please wait till complete")

func init() {
	RunCounter = expvar.NewInt("setcoverRunCounter")
	IsRunning = expvar.NewInt("setcoverBatchRunning")
}

type BatchConfig struct {
	// Instances are instance file paths. A file with the same stem and an
	// .out extension next to an instance holds its known optimum.
	Instances []string
	Strategy  runner.Strategy
	CutoffSec int
	// Seeds for randomized strategies. Deterministic strategies run once,
	// with seed 0.
	Seeds     []int64
	OutputDir string
	Threads   int
}

// RunRecord is the outcome of one (instance, seed) run.
type RunRecord struct {
	Instance    string
	Seed        int64
	Cost        int
	TimeToBest  time.Duration
	Elapsed     time.Duration
	Termination cover.Termination
	Proven      bool
}

type Batch struct {
	runner *runner.Runner
}

func NewBatch(r *runner.Runner) *Batch {
	return &Batch{runner: r}
}

// FindInstances lists the *.in files of dir in name order.
func FindInstances(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.in"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

type job struct {
	inst    *instance.Instance
	instIdx int
	seed    int64
}

// Run performs every run of bc, at most bc.Threads at a time, writes each
// run's artifacts and returns one summary per instance in input order. The
// first failing run cancels the rest.
func (b *Batch) Run(ctx context.Context, bc BatchConfig) ([]*InstanceSummary, error) {
	if IsRunning.Value() > 0 {
		return nil, ErrBatchRunning
	}
	IsRunning.Add(1)
	defer IsRunning.Add(-1)

	seeds := bc.Seeds
	if !bc.Strategy.Randomized() || len(seeds) == 0 {
		seeds = []int64{0}
	}

	// instances are parsed up front so a bad file fails the batch early
	var jobs []job
	insts := make([]*instance.Instance, len(bc.Instances))
	for i, path := range bc.Instances {
		inst, err := b.runner.LoadInstance(path)
		if err != nil {
			return nil, err
		}
		insts[i] = inst
		for _, seed := range seeds {
			jobs = append(jobs, job{inst: inst, instIdx: i, seed: seed})
		}
	}
	log.Info().Int("instances", len(insts)).Int("runs", len(jobs)).
		Stringer("strategy", bc.Strategy).Int("threads", bc.Threads).Msg("batch-starting")

	records := make([]RunRecord, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, bc.Threads))
	cutoff := time.Duration(bc.CutoffSec) * time.Second
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			res, err := b.runner.Run(gctx, j.inst, bc.Strategy, cutoff, j.seed)
			if err != nil {
				return fmt.Errorf("%s seed %d: %w", j.inst.Name, j.seed, err)
			}
			stem := artifact.Stem(j.inst.Name, bc.Strategy.Short(), bc.CutoffSec, j.seed)
			if _, _, err := artifact.WriteFiles(bc.OutputDir, stem, res); err != nil {
				return err
			}
			records[i] = RunRecord{
				Instance:    j.inst.Name,
				Seed:        j.seed,
				Cost:        res.Cost,
				TimeToBest:  res.Trace.Best().Elapsed,
				Elapsed:     res.Elapsed,
				Termination: res.Termination,
				Proven:      res.Proven,
			}
			RunCounter.Add(1)
			n := RunCounter.Value()
			log.Debug().Int64("completed", n).Str("instance", j.inst.Name).
				Int64("seed", j.seed).Int("cost", res.Cost).Msg("run-finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]*InstanceSummary, len(insts))
	for i, inst := range insts {
		summaries[i] = NewInstanceSummary(inst.Name)
		optPath := strings.TrimSuffix(bc.Instances[i], filepath.Ext(bc.Instances[i])) + ".out"
		opt, err := artifact.ReadOptimum(optPath)
		switch {
		case err == nil:
			summaries[i].SetOptimum(opt)
		case !errors.Is(err, fs.ErrNotExist):
			log.Warn().Err(err).Str("path", optPath).Msg("bad-optimum-file")
		}
	}
	for i, rec := range records {
		summaries[jobs[i].instIdx].Add(rec)
	}
	log.Info().Int("runs", len(records)).Msg("batch-finished")
	return summaries, nil
}
