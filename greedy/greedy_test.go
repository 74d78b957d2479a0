package greedy

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/instance"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustInstance(t *testing.T, n int, subsets [][]int) *instance.Instance {
	t.Helper()
	inst, err := instance.New(n, subsets)
	if err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestConstructPicksLargestFirst(t *testing.T) {
	is := is.New(t)
	// universe {1,2}, subsets [{1},{2},{1,2}]
	inst := mustInstance(t, 2, [][]int{{0}, {1}, {0, 1}})
	sel, err := Construct(inst)
	is.NoErr(err)
	is.Equal(sel, []int{2})
}

func TestConstructDisjointSingletons(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 4, [][]int{{0}, {1}, {2}, {3}})
	sel, err := Construct(inst)
	is.NoErr(err)
	is.Equal(cover.Canonical(sel), []int{0, 1, 2, 3})
}

func TestConstructTieBreaksOnLowestIndex(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 3, [][]int{{0, 1}, {1, 2}, {0, 2}})
	sel, err := Construct(inst)
	is.NoErr(err)
	is.Equal(sel, []int{0, 1})
}

func TestConstructInfeasible(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 3, [][]int{{0}, {1}})
	sel, err := Construct(inst)
	is.True(errors.Is(err, cover.ErrInfeasible))
	var ie *cover.InfeasibleError
	is.True(errors.As(err, &ie))
	is.Equal(ie.Uncovered, []int{2})
	is.Equal(len(sel), 2)
	is.Equal(ie.Partial, sel)

	res, err := Approximate(context.Background(), inst)
	is.True(errors.Is(err, cover.ErrInfeasible))
	is.Equal(res, nil)
}

func TestConstructIdempotent(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 6, [][]int{{0, 1, 2}, {2, 3}, {3, 4, 5}, {0, 5}, {1, 4}})
	first, err := Construct(inst)
	is.NoErr(err)
	for i := 0; i < 5; i++ {
		again, err := Construct(inst)
		is.NoErr(err)
		is.Equal(again, first)
	}
	is.NoErr(cover.Verify(inst, first))
}

func TestRepairCompletesPartialCover(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 5, [][]int{{0, 1}, {2}, {2, 3, 4}, {4}})
	cov := cover.CoverageOf(inst, []int{1})
	added := Repair(inst, cov)
	// subsets 0 and 2 both gain 2 first; the lower index wins
	is.Equal(added, []int{0, 2})
	is.True(cov.Covered())
	is.Equal(len(Repair(inst, cov)), 0)
}

func TestApproximate(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 2, [][]int{{0}, {1}, {0, 1}})
	res, err := Approximate(context.Background(), inst)
	is.NoErr(err)
	is.Equal(res.Cost, 1)
	is.Equal(res.Selection, []int{2})
	is.Equal(res.Trace.Len(), 1)
	is.Equal(res.Termination, cover.Completed)
}

func TestRepairExceptHonoursBan(t *testing.T) {
	is := is.New(t)
	inst := mustInstance(t, 5, [][]int{{0, 1}, {2}, {2, 3, 4}, {4}})
	cov := cover.CoverageOf(inst, []int{1})
	added := RepairExcept(inst, cov, func(i int) bool { return i == 0 })
	is.Equal(added, []int{2})
	// only the banned subset covers elements 0 and 1
	is.Equal(cov.Uncovered(), []int{0, 1})
}
