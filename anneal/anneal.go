// Package anneal is simulated annealing for set cover. A neighbour drops one
// random member of the current cover and repairs the hole greedily; worse
// neighbours are accepted with the Metropolis probability under a geometric
// cooling schedule.
package anneal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/greedy"
	"github.com/domino14/setcover/instance"
	"github.com/domino14/setcover/rng"
)

const StrategyName = "SimulatedAnnealing"

var (
	ErrNotInitialized = errors.New("searcher not initialized")
	ErrBadSchedule    = errors.New("bad cooling schedule")
)

type Options struct {
	InitialTemp  float64
	FinalTemp    float64
	Alpha        float64
	MovesPerTemp int
	// RestartRatio is the divergence guard: a neighbour at least this much
	// worse than the best cost (relative) sends the walk back to the initial
	// greedy cover.
	RestartRatio float64
}

func DefaultOptions() Options {
	return Options{
		InitialTemp:  1.0,
		FinalTemp:    0.01,
		Alpha:        0.95,
		MovesPerTemp: 10000,
		RestartRatio: 0.5,
	}
}

type Searcher struct {
	inst *instance.Instance
	opts Options

	rnd      *frand.RNG
	initial  []int
	cur      *cover.Coverage
	best     []int
	bestCost int
	trace    *cover.Trace
	tstart   time.Time

	iterations uint64
	accepted   uint64
	resets     int

	logStream io.Writer
}

func (s *Searcher) Init(inst *instance.Instance, opts Options) error {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		return fmt.Errorf("%w: alpha %v outside (0, 1)", ErrBadSchedule, opts.Alpha)
	}
	if opts.FinalTemp <= 0 || opts.InitialTemp < opts.FinalTemp {
		return fmt.Errorf("%w: need 0 < final temp <= initial temp, have %v and %v",
			ErrBadSchedule, opts.FinalTemp, opts.InitialTemp)
	}
	if opts.MovesPerTemp < 1 {
		return fmt.Errorf("%w: %d moves per temperature", ErrBadSchedule, opts.MovesPerTemp)
	}
	s.inst = inst
	s.opts = opts
	return nil
}

func (s *Searcher) SetLogStream(w io.Writer) {
	s.logStream = w
}

func (s *Searcher) commitBest() {
	if s.cur.Len() >= s.bestCost {
		return
	}
	s.best = s.cur.Selection()
	s.bestCost = len(s.best)
	elapsed := time.Since(s.tstart)
	s.trace.Record(elapsed, s.bestCost)
	log.Debug().Int("cost", s.bestCost).Uint64("iteration", s.iterations).
		Float64("elapsed-sec", elapsed.Seconds()).Msg("new-incumbent")
	cover.WriteLog(s.logStream, cover.LogImprovement{
		Strategy:   StrategyName,
		Source:     "neighbour",
		ElapsedSec: elapsed.Seconds(),
		Cost:       s.bestCost,
		Iteration:  s.iterations,
		Selection:  s.best,
	})
}

// step tries one neighbour at temperature temp.
func (s *Searcher) step(temp float64) {
	before := s.cur.Len()
	dropped := s.cur.Member(s.rnd.Intn(before))
	s.cur.Remove(dropped)
	added := greedy.RepairExcept(s.inst, s.cur, func(i int) bool { return i == dropped })
	if !s.cur.Covered() {
		// nothing else covers what dropped covered alone
		added = append(added, greedy.Repair(s.inst, s.cur)...)
	}
	neighbour := s.cur.Len()

	// the guard uses the best cost from before this move
	if float64(neighbour-s.bestCost)/float64(s.bestCost) >= s.opts.RestartRatio {
		s.cur.Reset(s.initial)
		s.resets++
		return
	}

	delta := neighbour - before
	if delta <= 0 || s.rnd.Float64() < math.Exp(-float64(delta)/temp) {
		s.accepted++
		s.commitBest()
		return
	}
	for _, i := range added {
		s.cur.Remove(i)
	}
	s.cur.Add(dropped)
}

// Search anneals from the greedy cover until the temperature reaches its
// floor or the cutoff passes, and returns the best cover seen.
func (s *Searcher) Search(ctx context.Context, cutoff time.Duration, seed int64) (*cover.Result, error) {
	if s.inst == nil {
		return nil, ErrNotInitialized
	}
	s.tstart = time.Now()
	initial, err := greedy.Construct(s.inst)
	if err != nil {
		log.Err(err).Str("instance", s.inst.Name).Msg("anneal-no-initial-cover")
		return nil, err
	}
	if cutoff > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cutoff)
		defer cancel()
	}

	s.rnd = rng.New(seed)
	s.initial = initial
	s.cur = cover.CoverageOf(s.inst, initial)
	s.best = s.cur.Selection()
	s.bestCost = len(s.best)
	s.trace = cover.NewTrace(s.bestCost)
	s.iterations = 0
	s.accepted = 0
	s.resets = 0
	cover.WriteLog(s.logStream, cover.LogImprovement{
		Strategy: StrategyName, Source: "greedy", Cost: s.bestCost, Selection: s.best,
	})
	log.Debug().Str("instance", s.inst.Name).Int("greedy-cost", s.bestCost).
		Int64("seed", seed).Dur("cutoff", cutoff).Interface("schedule", s.opts).
		Msg("anneal-config")

	floor := 0
	if s.inst.N() > 0 {
		floor = 1
	}

	term := cover.Cooled
	if s.bestCost <= floor {
		term = cover.Completed
	}
	temp := s.opts.InitialTemp
outer:
	for term == cover.Cooled && temp > s.opts.FinalTemp {
		for mv := 0; mv < s.opts.MovesPerTemp; mv++ {
			if ctx.Err() != nil {
				term = cover.Cutoff
				break outer
			}
			s.iterations++
			s.step(temp)
		}
		log.Debug().Float64("temp", temp).Int("current", s.cur.Len()).
			Int("best", s.bestCost).Uint64("accepted", s.accepted).
			Int("resets", s.resets).Msg("temperature-level")
		temp *= s.opts.Alpha
	}

	res := cover.NewResult(StrategyName, s.best, s.trace, term)
	res.Iterations = s.iterations
	res.Elapsed = time.Since(s.tstart)
	log.Info().
		Str("instance", s.inst.Name).
		Int("cost", res.Cost).
		Stringer("termination", res.Termination).
		Uint64("iterations", res.Iterations).
		Uint64("accepted", s.accepted).
		Int("resets", s.resets).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Msg("search-returning")
	return res, nil
}
