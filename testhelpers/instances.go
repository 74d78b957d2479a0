// Package testhelpers builds small set cover instances for tests.
package testhelpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/domino14/setcover/cover"
	"github.com/domino14/setcover/instance"
	"github.com/domino14/setcover/rng"
)

func MustInstance(n int, subsets [][]int) *instance.Instance {
	inst, err := instance.New(n, subsets)
	if err != nil {
		panic(err)
	}
	return inst
}

// RandomInstance builds a coverable instance with m subsets of 1..maxSize
// random elements each. Every element is also forced into one random subset.
func RandomInstance(seed int64, n, m, maxSize int) *instance.Instance {
	r := rng.New(seed)
	subsets := make([][]int, m)
	for i := range subsets {
		size := 1 + r.Intn(maxSize)
		for j := 0; j < size; j++ {
			subsets[i] = append(subsets[i], r.Intn(n))
		}
	}
	for e := 0; e < n; e++ {
		k := r.Intn(m)
		subsets[k] = append(subsets[k], e)
	}
	return MustInstance(n, subsets)
}

// GreedyTrap is the textbook instance where greedy takes the big middle set
// first and needs 3 subsets while 2 suffice.
func GreedyTrap() *instance.Instance {
	return MustInstance(6, [][]int{{0, 1, 2}, {3, 4, 5}, {0, 1, 3, 4}})
}

// Triangle needs 2 of its 3 subsets.
func Triangle() *instance.Instance {
	return MustInstance(3, [][]int{{0, 1}, {1, 2}, {0, 2}})
}

// Singletons is n disjoint singletons; the only cover takes all of them.
func Singletons(n int) *instance.Instance {
	subsets := make([][]int, n)
	for i := range subsets {
		subsets[i] = []int{i}
	}
	return MustInstance(n, subsets)
}

// Uncoverable leaves element n-1 out of every subset.
func Uncoverable() *instance.Instance {
	return MustInstance(3, [][]int{{0}, {1}})
}

// BruteForceOptimum is the minimum cover size by exhaustive enumeration, or
// -1 when there is no cover. Only for tiny instances.
func BruteForceOptimum(inst *instance.Instance) int {
	for k := 0; k <= inst.M(); k++ {
		for _, c := range combin.Combinations(inst.M(), k) {
			if cover.Verify(inst, c) == nil {
				return k
			}
		}
	}
	return -1
}

// CheckTrace asserts the trace starts at (0, initial), strictly improves in
// both columns and ends at the reported cost.
func CheckTrace(t testing.TB, res *cover.Result, initial int) {
	t.Helper()
	ev := res.Trace.Events()
	assert.Equal(t, time.Duration(0), ev[0].Elapsed)
	assert.Equal(t, initial, ev[0].Cost)
	for i := 1; i < len(ev); i++ {
		assert.Greater(t, ev[i].Elapsed, ev[i-1].Elapsed)
		assert.Less(t, ev[i].Cost, ev[i-1].Cost)
	}
	assert.Equal(t, res.Cost, ev[len(ev)-1].Cost)
}
