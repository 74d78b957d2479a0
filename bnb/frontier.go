package bnb

import (
	"container/heap"

	"github.com/bits-and-blooms/bitset"
)

// node is a partial solution. Its undecided subsets are always the suffix
// next..m-1, because branching always takes the lowest undecided index.
// Nodes are immutable once pushed; exclude children share their parent's
// selected slice and covered bitset.
type node struct {
	priority float64
	seq      uint64

	bound        int
	selected     []int
	covered      *bitset.BitSet
	coveredCount int
	next         int
}

// frontier is a min-heap on (priority, seq). seq is the insertion order and
// makes the order total when priorities collide.
type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].priority == f[j].priority {
		return f[i].seq < f[j].seq
	}
	return f[i].priority < f[j].priority
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(*node))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	nd := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return nd
}

func (f *frontier) push(nd *node) { heap.Push(f, nd) }

func (f *frontier) pop() *node { return heap.Pop(f).(*node) }
