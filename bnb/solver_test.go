package bnb

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/instance"
	"github.com/domino14/setcover/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func solve(t *testing.T, inst *instance.Instance, opts Options, cutoff time.Duration) *cover.Result {
	t.Helper()
	s := &Solver{}
	if err := s.Init(inst, opts); err != nil {
		t.Fatal(err)
	}
	res, err := s.Solve(context.Background(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestTriangle(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.Triangle()
	res := solve(t, inst, DefaultOptions(), time.Millisecond*100)
	is.Equal(res.Cost, 2)
	is.NoErr(cover.Verify(inst, res.Selection))
	is.True(res.Proven)
	is.Equal(res.Termination, cover.Exhausted)
}

func TestDisjointSingletons(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.Singletons(4)
	res := solve(t, inst, DefaultOptions(), time.Second)
	is.Equal(res.Cost, 4)
	is.Equal(res.Selection, []int{0, 1, 2, 3})
	is.True(res.Proven)
}

func TestInfeasible(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.Uncoverable()
	s := &Solver{}
	is.NoErr(s.Init(inst, DefaultOptions()))
	res, err := s.Solve(context.Background(), time.Second)
	is.True(errors.Is(err, cover.ErrInfeasible))
	is.Equal(res, nil)
}

func TestNotInitialized(t *testing.T) {
	is := is.New(t)
	_, err := (&Solver{}).Solve(context.Background(), time.Second)
	is.True(errors.Is(err, ErrNotInitialized))
}

func TestImprovesOnGreedy(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.GreedyTrap()
	var stream bytes.Buffer
	s := &Solver{}
	is.NoErr(s.Init(inst, DefaultOptions()))
	s.SetLogStream(&stream)
	res, err := s.Solve(context.Background(), time.Second)
	is.NoErr(err)
	is.Equal(res.Cost, 2)
	is.Equal(res.Selection, []int{0, 1})
	is.Equal(res.Trace.Costs(), []int{3, 2})
	testhelpers.CheckTrace(t, res, 3)

	var evs []cover.LogImprovement
	is.NoErr(yaml.Unmarshal(stream.Bytes(), &evs))
	is.Equal(len(evs), 2)
	is.Equal(evs[0].Source, "greedy")
	is.Equal(evs[1].Selection, []int{0, 1})
}

func TestOptimalOnExhaustion(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		inst := testhelpers.RandomInstance(seed, 9, 11, 4)
		res := solve(t, inst, DefaultOptions(), 10*time.Second)
		assert.True(t, res.Proven, "seed %d", seed)
		assert.Equal(t, testhelpers.BruteForceOptimum(inst), res.Cost, "seed %d", seed)
		assert.NoError(t, cover.Verify(inst, res.Selection))
		testhelpers.CheckTrace(t, res, res.Trace.Events()[0].Cost)
	}
}

func TestFrontierCapIsObservable(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.GreedyTrap()
	opts := DefaultOptions()
	opts.MaxFrontier = 1
	res := solve(t, inst, opts, time.Second)
	is.Equal(res.Termination, cover.Exhausted)
	is.True(res.FrontierDrops > 0)
	is.True(!res.Proven)
	is.NoErr(cover.Verify(inst, res.Selection))
}

func TestDerivedFrontierCap(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.GreedyTrap()
	opts := DefaultOptions()
	opts.MaxFrontier = 0
	s := &Solver{}
	is.NoErr(s.Init(inst, opts))
	res, err := s.Solve(context.Background(), time.Second)
	is.NoErr(err)
	is.True(s.MaxFrontier() >= MinDerivedFrontier)
	is.Equal(res.Cost, 2)
}

func TestCutoffReturnsIncumbent(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.RandomInstance(99, 300, 400, 12)
	opts := DefaultOptions()
	opts.ReportInterval = 10 * time.Millisecond
	tstart := time.Now()
	res := solve(t, inst, opts, 100*time.Millisecond)
	is.True(time.Since(tstart) < 5*time.Second)
	is.Equal(res.Termination, cover.Cutoff)
	is.True(!res.Proven)
	is.NoErr(cover.Verify(inst, res.Selection))
	testhelpers.CheckTrace(t, res, res.Trace.Events()[0].Cost)
}

func TestCancelledContext(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.GreedyTrap()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Solver{}
	is.NoErr(s.Init(inst, DefaultOptions()))
	res, err := s.Solve(ctx, time.Second)
	is.NoErr(err)
	is.Equal(res.Termination, cover.Cutoff)
	is.Equal(res.Cost, 3)
	is.Equal(res.Trace.Len(), 1)
}

func TestEmptyUniverse(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.MustInstance(0, [][]int{{}, {}})
	res := solve(t, inst, DefaultOptions(), time.Second)
	is.Equal(res.Cost, 0)
	is.True(res.Proven)
}
