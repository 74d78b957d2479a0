package anneal

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
	"github.com/domino14/setcover/greedy"
	"github.com/domino14/setcover/instance"
	"github.com/domino14/setcover/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

// shortSchedule halves the temperature from 1 down past 0.01: seven levels.
func shortSchedule(moves int) Options {
	return Options{
		InitialTemp:  1.0,
		FinalTemp:    0.01,
		Alpha:        0.5,
		MovesPerTemp: moves,
		RestartRatio: 0.5,
	}
}

func search(t *testing.T, inst *instance.Instance, opts Options, seed int64) *cover.Result {
	t.Helper()
	s := &Searcher{}
	if err := s.Init(inst, opts); err != nil {
		t.Fatal(err)
	}
	res, err := s.Search(context.Background(), 10*time.Second, seed)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestCoolsDown(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.GreedyTrap()
	var stream bytes.Buffer
	s := &Searcher{}
	is.NoErr(s.Init(inst, shortSchedule(50)))
	s.SetLogStream(&stream)
	res, err := s.Search(context.Background(), 10*time.Second, 1)
	is.NoErr(err)
	is.Equal(res.Termination, cover.Cooled)
	is.Equal(res.Iterations, uint64(7*50))
	is.Equal(res.Cost, 2)
	is.Equal(res.Selection, []int{0, 1})
	is.Equal(res.Trace.Costs(), []int{3, 2})
	testhelpers.CheckTrace(t, res, 3)

	var evs []cover.LogImprovement
	is.NoErr(yaml.Unmarshal(stream.Bytes(), &evs))
	is.Equal(len(evs), 2)
	is.Equal(evs[1].Cost, 2)
}

func TestDisjointSingletons(t *testing.T) {
	is := is.New(t)
	res := search(t, testhelpers.Singletons(5), shortSchedule(20), 9)
	is.Equal(res.Cost, 5)
	is.Equal(res.Selection, []int{0, 1, 2, 3, 4})
}

func TestStopsAtTrivialBound(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.MustInstance(3, [][]int{{0}, {0, 1, 2}})
	res := search(t, inst, DefaultOptions(), 1)
	is.Equal(res.Cost, 1)
	is.Equal(res.Termination, cover.Completed)
	is.Equal(res.Iterations, uint64(0))
}

func TestEmptyUniverse(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.MustInstance(0, [][]int{{}})
	res := search(t, inst, DefaultOptions(), 1)
	is.Equal(res.Cost, 0)
	is.Equal(res.Termination, cover.Completed)
}

func TestInfeasible(t *testing.T) {
	is := is.New(t)
	s := &Searcher{}
	is.NoErr(s.Init(testhelpers.Uncoverable(), DefaultOptions()))
	res, err := s.Search(context.Background(), time.Second, 1)
	is.True(errors.Is(err, cover.ErrInfeasible))
	is.Equal(res, nil)
}

func TestBadSchedule(t *testing.T) {
	inst := testhelpers.Triangle()
	for _, opts := range []Options{
		{InitialTemp: 1, FinalTemp: 0.01, Alpha: 1, MovesPerTemp: 10},
		{InitialTemp: 1, FinalTemp: 0, Alpha: 0.9, MovesPerTemp: 10},
		{InitialTemp: 0.001, FinalTemp: 0.01, Alpha: 0.9, MovesPerTemp: 10},
		{InitialTemp: 1, FinalTemp: 0.01, Alpha: 0.9, MovesPerTemp: 0},
	} {
		err := (&Searcher{}).Init(inst, opts)
		assert.ErrorIs(t, err, ErrBadSchedule, "%+v", opts)
	}
}

func TestNeverWorseThanGreedy(t *testing.T) {
	is := is.New(t)
	for seed := int64(1); seed <= 8; seed++ {
		inst := testhelpers.RandomInstance(seed, 60, 80, 8)
		initial, err := greedy.Construct(inst)
		is.NoErr(err)
		res := search(t, inst, shortSchedule(40), seed)
		is.NoErr(cover.Verify(inst, res.Selection))
		is.True(res.Cost <= len(initial))
		testhelpers.CheckTrace(t, res, len(initial))
	}
}

func TestSameSeedSameRun(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.RandomInstance(3, 100, 120, 10)
	a := search(t, inst, shortSchedule(60), 77)
	b := search(t, inst, shortSchedule(60), 77)
	is.Equal(a.Selection, b.Selection)
	is.Equal(a.Cost, b.Cost)
	is.Equal(a.Trace.Costs(), b.Trace.Costs())
}

func TestDivergenceGuardResets(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.RandomInstance(5, 60, 80, 8)
	opts := shortSchedule(40)
	// any neighbour no better than the incumbent trips the guard
	opts.RestartRatio = 0
	s := &Searcher{}
	is.NoErr(s.Init(inst, opts))
	res, err := s.Search(context.Background(), 10*time.Second, 2)
	is.NoErr(err)
	is.True(s.resets > 0)
	is.NoErr(cover.Verify(inst, res.Selection))
}

func TestCutoff(t *testing.T) {
	is := is.New(t)
	inst := testhelpers.RandomInstance(99, 300, 400, 12)
	s := &Searcher{}
	is.NoErr(s.Init(inst, DefaultOptions()))
	tstart := time.Now()
	res, err := s.Search(context.Background(), 50*time.Millisecond, 1)
	is.NoErr(err)
	is.True(time.Since(tstart) < 5*time.Second)
	is.Equal(res.Termination, cover.Cutoff)
	is.NoErr(cover.Verify(inst, res.Selection))
}
