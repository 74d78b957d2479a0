// Package hillclimb is a destroy-and-repair local search for set cover. The
// least critical members of the current cover are removed, the hole is
// patched with the best of a bounded random sample of subsets, and the move
// is kept when the cover does not get bigger.
package hillclimb

import (
	"cmp"
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/greedy"
	"github.com/domino14/setcover/instance"
	"github.com/domino14/setcover/rng"
)

const StrategyName = "HillClimbing"

var ErrNotInitialized = errors.New("searcher not initialized")

type Options struct {
	// NoImproveLimit strikes trigger a restart from a perturbed greedy cover.
	NoImproveLimit int
	// MaxSubsetChecks bounds the repair candidates sampled per move.
	MaxSubsetChecks int
	// ReoptimizeEvery strikes, redundant members are swept out.
	ReoptimizeEvery int
	// MaxSwapFraction caps the swap size relative to the current cover.
	MaxSwapFraction float64
	// MaxIterations stops the search after this many moves. Zero means no
	// limit other than the cutoff.
	MaxIterations uint64
}

func DefaultOptions() Options {
	return Options{
		NoImproveLimit:  20,
		MaxSubsetChecks: 50,
		ReoptimizeEvery: 10,
		MaxSwapFraction: 0.1,
	}
}

type Searcher struct {
	inst *instance.Instance
	opts Options

	rnd      *frand.RNG
	cur      *cover.Coverage
	best     []int
	bestCost int
	trace    *cover.Trace
	tstart   time.Time

	iterations uint64
	swapSize   int
	strikes    int
	restarts   int

	logStream io.Writer
}

type candidate struct {
	idx  int
	gain int
}

func (s *Searcher) Init(inst *instance.Instance, opts Options) error {
	if opts.ReoptimizeEvery < 1 {
		opts.ReoptimizeEvery = 1
	}
	if opts.MaxSubsetChecks < 1 {
		opts.MaxSubsetChecks = 1
	}
	s.inst = inst
	s.opts = opts
	return nil
}

func (s *Searcher) SetLogStream(w io.Writer) {
	s.logStream = w
}

func (s *Searcher) maxSwap() int {
	return max(2, int(s.opts.MaxSwapFraction*float64(s.cur.Len())))
}

func (s *Searcher) commitBest(source string) {
	if s.cur.Len() >= s.bestCost {
		return
	}
	s.best = s.cur.Selection()
	s.bestCost = len(s.best)
	elapsed := time.Since(s.tstart)
	s.trace.Record(elapsed, s.bestCost)
	s.strikes = 0
	s.swapSize = 1
	log.Debug().Int("cost", s.bestCost).Str("source", source).
		Uint64("iteration", s.iterations).Float64("elapsed-sec", elapsed.Seconds()).
		Msg("new-incumbent")
	cover.WriteLog(s.logStream, cover.LogImprovement{
		Strategy:   StrategyName,
		Source:     source,
		ElapsedSec: elapsed.Seconds(),
		Cost:       s.bestCost,
		Iteration:  s.iterations,
		Selection:  s.best,
	})
}

func (s *Searcher) strike() {
	s.strikes++
	s.swapSize = min(s.swapSize+1, s.maxSwap())
}

// leastCritical returns the k members covering the fewest elements alone.
func (s *Searcher) leastCritical(k int) []int {
	members := s.cur.Members()
	scored := lo.Map(members, func(i int, _ int) candidate {
		return candidate{idx: i, gain: s.cur.Exclusive(i)}
	})
	slices.SortStableFunc(scored, func(a, b candidate) int {
		return cmp.Compare(a.gain, b.gain)
	})
	return lo.Map(scored[:k], func(c candidate, _ int) int { return c.idx })
}

// sampleRepairs walks the subsets in random order and keeps up to
// MaxSubsetChecks non-selected ones that cover something still uncovered.
func (s *Searcher) sampleRepairs() []candidate {
	uncovered := s.cur.UncoveredSet()
	var cands []candidate
	for _, j := range s.rnd.Perm(s.inst.M()) {
		if s.cur.Contains(j) {
			continue
		}
		g := int(s.inst.Bits(j).IntersectionCardinality(uncovered))
		if g == 0 {
			continue
		}
		cands = append(cands, candidate{idx: j, gain: g})
		if len(cands) >= s.opts.MaxSubsetChecks {
			break
		}
	}
	return cands
}

// move performs one destroy-and-repair step on the current cover.
func (s *Searcher) move() {
	startCost := s.cur.Len()
	k := min(s.swapSize, startCost)
	removed := s.leastCritical(k)
	for _, i := range removed {
		s.cur.Remove(i)
	}
	if s.cur.Covered() {
		// the removed members were redundant
		s.commitBest("removal")
		return
	}

	cands := s.sampleRepairs()
	if len(cands) == 0 {
		for _, i := range removed {
			s.cur.Add(i)
		}
		s.strike()
		return
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.gain, a.gain)
	})
	chosen := cands[:min(k, len(cands))]
	for _, c := range chosen {
		s.cur.Add(c.idx)
	}

	if s.cur.Covered() && s.cur.Len() <= startCost {
		if s.cur.Len() < s.bestCost {
			s.commitBest("swap")
		} else {
			// a sideways or downhill move that does not beat the incumbent
			s.strikes++
		}
		return
	}
	for _, c := range chosen {
		s.cur.Remove(c.idx)
	}
	for _, i := range removed {
		s.cur.Add(i)
	}
	s.strike()
}

// sweep drops every member whose removal keeps the cover intact, visiting
// members in random order.
func (s *Searcher) sweep() {
	order := s.cur.Members()
	s.rnd.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	before := s.cur.Len()
	for _, i := range order {
		s.cur.Remove(i)
		if !s.cur.Covered() {
			s.cur.Add(i)
		}
	}
	if s.cur.Len() < before {
		log.Debug().Int("before", before).Int("after", s.cur.Len()).Msg("redundancy-sweep")
	}
	s.commitBest("sweep")
}

// restart replaces the current cover with a perturbed greedy cover: one or
// two random members are dropped and the hole is repaired greedily without
// them, unless they turn out to be indispensable. Coverage counts are
// rebuilt from scratch.
func (s *Searcher) restart() {
	sel, err := greedy.Construct(s.inst)
	if err != nil {
		// cannot happen: the warm start already proved the instance coverable
		log.Err(err).Msg("restart-greedy-failed")
		return
	}
	cov := cover.CoverageOf(s.inst, sel)
	if cov.Len() > 1 {
		dropped := map[int]bool{}
		for d := 1 + s.rnd.Intn(2); d > 0 && cov.Len() > 1; d-- {
			i := cov.Member(s.rnd.Intn(cov.Len()))
			cov.Remove(i)
			dropped[i] = true
		}
		greedy.RepairExcept(s.inst, cov, func(i int) bool { return dropped[i] })
		if !cov.Covered() {
			greedy.Repair(s.inst, cov)
		}
	}
	s.cur = cover.CoverageOf(s.inst, cov.Members())
	s.restarts++
	s.strikes = 0
	s.swapSize = 1
	log.Debug().Int("cost", s.cur.Len()).Int("restarts", s.restarts).
		Uint64("iteration", s.iterations).Msg("perturbed-restart")
	s.commitBest("restart")
}

func (s *Searcher) diversify() {
	if s.strikes > 0 && s.strikes%s.opts.ReoptimizeEvery == 0 {
		s.sweep()
	}
	if s.strikes >= s.opts.NoImproveLimit {
		s.restart()
	}
}

// Search runs hill climbing from the greedy cover until the cutoff (or the
// iteration cap) and returns the best cover seen. Runs with the same
// instance, options and seed make the same moves.
func (s *Searcher) Search(ctx context.Context, cutoff time.Duration, seed int64) (*cover.Result, error) {
	if s.inst == nil {
		return nil, ErrNotInitialized
	}
	s.tstart = time.Now()
	initial, err := greedy.Construct(s.inst)
	if err != nil {
		log.Err(err).Str("instance", s.inst.Name).Msg("hillclimb-no-initial-cover")
		return nil, err
	}
	if cutoff > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cutoff)
		defer cancel()
	}

	s.rnd = rng.New(seed)
	s.cur = cover.CoverageOf(s.inst, initial)
	s.best = s.cur.Selection()
	s.bestCost = len(s.best)
	s.trace = cover.NewTrace(s.bestCost)
	s.iterations = 0
	s.swapSize = 1
	s.strikes = 0
	s.restarts = 0
	cover.WriteLog(s.logStream, cover.LogImprovement{
		Strategy: StrategyName, Source: "greedy", Cost: s.bestCost, Selection: s.best,
	})
	log.Debug().Str("instance", s.inst.Name).Int("greedy-cost", s.bestCost).
		Int64("seed", seed).Dur("cutoff", cutoff).Msg("hillclimb-config")

	// no cover can be cheaper than this
	floor := 0
	if s.inst.N() > 0 {
		floor = 1
	}

	var term cover.Termination
	for {
		if ctx.Err() != nil {
			term = cover.Cutoff
			break
		}
		if s.opts.MaxIterations > 0 && s.iterations >= s.opts.MaxIterations {
			term = cover.IterationLimit
			break
		}
		if s.bestCost <= floor {
			term = cover.Completed
			break
		}
		s.iterations++
		s.move()
		s.diversify()
	}

	res := cover.NewResult(StrategyName, s.best, s.trace, term)
	res.Iterations = s.iterations
	res.Elapsed = time.Since(s.tstart)
	log.Info().
		Str("instance", s.inst.Name).
		Int("cost", res.Cost).
		Stringer("termination", res.Termination).
		Uint64("iterations", res.Iterations).
		Int("restarts", s.restarts).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Msg("search-returning")
	return res, nil
}
