// Package bnb is the anytime branch-and-bound set cover solver. It explores
// the include/exclude decision tree over subset indices best-first, prunes
// on the incumbent cost and keeps tightening the incumbent until the
// frontier empties or the cutoff passes.
package bnb

import (
	"context"
	"errors"
	"io"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/greedy"
	"github.com/domino14/setcover/instance"
)

const StrategyName = "BranchAndBound"

// GainWeight scales the marginal coverage gain subtracted from an include
// child's priority. It only breaks ties between nodes of equal depth.
const GainWeight = 0.01

// MinDerivedFrontier is the smallest cap a memory-derived frontier gets.
const MinDerivedFrontier = 1 << 12

var ErrNotInitialized = errors.New("solver not initialized")

type Options struct {
	// MaxFrontier caps the number of queued nodes. Zero derives the cap
	// from MemoryFraction of total system memory.
	MaxFrontier    int
	MemoryFraction float64
	// ReportInterval is how often search progress is logged at debug level.
	// Zero turns the progress ticker off.
	ReportInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxFrontier:    800000,
		MemoryFraction: 0.25,
		ReportInterval: time.Second,
	}
}

type Solver struct {
	inst *instance.Instance
	opts Options

	maxFrontier int

	best     []int
	bestCost int
	trace    *cover.Trace
	tstart   time.Time
	seq      uint64
	drops    uint64

	nodes       atomic.Uint64
	frontierLen atomic.Int64

	logStream io.Writer
}

// Init prepares the solver for inst.
func (s *Solver) Init(inst *instance.Instance, opts Options) error {
	s.inst = inst
	s.opts = opts
	return nil
}

// SetLogStream makes the solver write every incumbent improvement to w.
func (s *Solver) SetLogStream(w io.Writer) {
	s.logStream = w
}

// MaxFrontier is the frontier cap in effect for the last Solve.
func (s *Solver) MaxFrontier() int {
	return s.maxFrontier
}

func (s *Solver) frontierCap(greedyCost int) int {
	if s.opts.MaxFrontier > 0 {
		return s.opts.MaxFrontier
	}
	totalMem := memory.TotalMemory()
	words := (s.inst.N() + 63) / 64
	// node header, bitset header and words, selected slice
	nodeBytes := 96 + 24 + 8*words + 8*greedyCost
	desired := s.opts.MemoryFraction * float64(totalMem) / float64(nodeBytes)
	limit := MinDerivedFrontier
	if desired > float64(limit) {
		limit = int(math.Min(desired, math.MaxInt32))
	}
	log.Info().Int("max-frontier", limit).
		Int("estimated-node-bytes", nodeBytes).
		Uint64("total-system-memory-bytes", totalMem).
		Float64("memory-fraction", s.opts.MemoryFraction).
		Msg("frontier-cap-derived")
	return limit
}

// improve commits sel as the new incumbent if it is strictly cheaper.
func (s *Solver) improve(sel []int, source string) {
	if len(sel) >= s.bestCost {
		return
	}
	s.best = slices.Clone(sel)
	s.bestCost = len(sel)
	elapsed := time.Since(s.tstart)
	s.trace.Record(elapsed, s.bestCost)
	log.Info().Int("cost", s.bestCost).Float64("elapsed-sec", elapsed.Seconds()).
		Int64("frontier", s.frontierLen.Load()).Msg("new-incumbent")
	cover.WriteLog(s.logStream, cover.LogImprovement{
		Strategy:   StrategyName,
		Source:     source,
		ElapsedSec: elapsed.Seconds(),
		Cost:       s.bestCost,
		Iteration:  s.nodes.Load(),
		Selection:  cover.Canonical(sel),
	})
}

func (s *Solver) push(f *frontier, nd *node) bool {
	if f.Len() >= s.maxFrontier {
		s.drops++
		return false
	}
	s.seq++
	nd.seq = s.seq
	f.push(nd)
	return true
}

// search runs the best-first loop until the frontier empties or ctx is done.
func (s *Solver) search(ctx context.Context) cover.Termination {
	n := s.inst.N()
	m := s.inst.M()
	f := &frontier{}
	s.push(f, &node{covered: bitset.New(uint(n))})

	for f.Len() > 0 {
		if ctx.Err() != nil {
			return cover.Cutoff
		}
		nd := f.pop()
		s.nodes.Add(1)
		s.frontierLen.Store(int64(f.Len()))

		if nd.bound >= s.bestCost {
			continue
		}
		if nd.coveredCount == n {
			s.improve(nd.selected, "leaf")
			continue
		}
		if nd.next >= m {
			continue
		}

		i := nd.next
		sub := s.inst.Bits(i)
		gain := int(sub.DifferenceCardinality(nd.covered))

		// include i
		lb := nd.bound + 1
		if lb < s.bestCost && gain > 0 {
			sel := make([]int, len(nd.selected)+1)
			copy(sel, nd.selected)
			sel[len(nd.selected)] = i
			s.push(f, &node{
				priority:     float64(lb) - GainWeight*float64(gain),
				bound:        lb,
				selected:     sel,
				covered:      nd.covered.Union(sub),
				coveredCount: nd.coveredCount + gain,
				next:         i + 1,
			})
		}
		// exclude i
		if nd.bound < s.bestCost {
			s.push(f, &node{
				priority:     nd.priority,
				bound:        nd.bound,
				selected:     nd.selected,
				covered:      nd.covered,
				coveredCount: nd.coveredCount,
				next:         i + 1,
			})
		}
	}
	return cover.Exhausted
}

// Solve searches for a minimum cover until the frontier is exhausted or the
// cutoff elapses, and returns the best cover found. If the greedy warm start
// cannot cover the universe it returns a *cover.InfeasibleError.
func (s *Solver) Solve(ctx context.Context, cutoff time.Duration) (*cover.Result, error) {
	if s.inst == nil {
		return nil, ErrNotInitialized
	}
	s.tstart = time.Now()
	initial, err := greedy.Construct(s.inst)
	if err != nil {
		log.Err(err).Str("instance", s.inst.Name).Msg("bnb-no-initial-cover")
		return nil, err
	}
	if cutoff > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cutoff)
		defer cancel()
	}

	s.best = slices.Clone(initial)
	s.bestCost = len(initial)
	s.trace = cover.NewTrace(s.bestCost)
	s.seq = 0
	s.drops = 0
	s.nodes.Store(0)
	s.frontierLen.Store(0)
	s.maxFrontier = s.frontierCap(s.bestCost)
	cover.WriteLog(s.logStream, cover.LogImprovement{
		Strategy: StrategyName, Source: "greedy", Cost: s.bestCost, Selection: cover.Canonical(initial),
	})
	log.Debug().Str("instance", s.inst.Name).Int("n", s.inst.N()).Int("m", s.inst.M()).
		Int("greedy-cost", s.bestCost).Int("max-frontier", s.maxFrontier).
		Dur("cutoff", cutoff).Msg("bnb-solve-config")

	var term cover.Termination
	g := &errgroup.Group{}
	done := make(chan bool)

	if s.opts.ReportInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(s.opts.ReportInterval)
			defer ticker.Stop()
			var lastNodes uint64
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					nodes := s.nodes.Load()
					log.Debug().Uint64("nps", uint64(float64(nodes-lastNodes)/s.opts.ReportInterval.Seconds())).
						Int64("frontier", s.frontierLen.Load()).Msg("nodes-per-second")
					lastNodes = nodes
				}
			}
		})
	}

	g.Go(func() error {
		defer close(done)
		term = s.search(ctx)
		return nil
	})

	err = g.Wait()

	res := cover.NewResult(StrategyName, s.best, s.trace, term)
	res.FrontierDrops = s.drops
	res.Proven = term == cover.Exhausted && s.drops == 0
	res.Iterations = s.nodes.Load()
	res.Elapsed = time.Since(s.tstart)

	log.Info().
		Str("instance", s.inst.Name).
		Int("cost", res.Cost).
		Bool("proven", res.Proven).
		Stringer("termination", res.Termination).
		Uint64("nodes", res.Iterations).
		Uint64("frontier-drops", res.FrontierDrops).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Msg("solve-returning")

	return res, err
}
