// Package cover is the solution representation shared by every search
// strategy: a selection of subset indices with live per-element coverage
// counts, the improvement trace and the final result.
package cover

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/samber/lo"

	"github.com/domino14/setcover/instance"
)

// Coverage tracks, for a selection of subsets, how many selected subsets
// cover each element. Add and Remove cost O(|S_i|); nothing is ever
// recomputed from scratch except by Reset.
type Coverage struct {
	inst      *instance.Instance
	counts    []int32
	uncovered int
	members   []int
	// position[i] is the index of subset i in members, or -1.
	position []int
}

// NewCoverage returns an empty selection over inst.
func NewCoverage(inst *instance.Instance) *Coverage {
	c := &Coverage{
		inst:     inst,
		counts:   make([]int32, inst.N()),
		position: make([]int, inst.M()),
	}
	c.clear()
	return c
}

// CoverageOf builds the coverage of sel.
func CoverageOf(inst *instance.Instance, sel []int) *Coverage {
	c := NewCoverage(inst)
	for _, i := range sel {
		c.Add(i)
	}
	return c
}

func (c *Coverage) clear() {
	clear(c.counts)
	for i := range c.position {
		c.position[i] = -1
	}
	c.members = c.members[:0]
	c.uncovered = len(c.counts)
}

// Reset replaces the selection with sel, rebuilding counts from scratch.
func (c *Coverage) Reset(sel []int) {
	c.clear()
	for _, i := range sel {
		c.Add(i)
	}
}

// Add selects subset i. It returns false if i was already selected.
func (c *Coverage) Add(i int) bool {
	if c.position[i] >= 0 {
		return false
	}
	c.position[i] = len(c.members)
	c.members = append(c.members, i)
	for _, e := range c.inst.Subset(i) {
		if c.counts[e] == 0 {
			c.uncovered--
		}
		c.counts[e]++
	}
	return true
}

// Remove deselects subset i. It returns false if i was not selected. The
// last member takes the removed member's slot.
func (c *Coverage) Remove(i int) bool {
	p := c.position[i]
	if p < 0 {
		return false
	}
	last := len(c.members) - 1
	moved := c.members[last]
	c.members[p] = moved
	c.position[moved] = p
	c.members = c.members[:last]
	c.position[i] = -1
	for _, e := range c.inst.Subset(i) {
		c.counts[e]--
		if c.counts[e] == 0 {
			c.uncovered++
		}
	}
	return true
}

// Contains reports whether subset i is selected.
func (c *Coverage) Contains(i int) bool { return c.position[i] >= 0 }

// Len is the number of selected subsets, i.e. the cost.
func (c *Coverage) Len() int { return len(c.members) }

// Count is the number of selected subsets covering element e.
func (c *Coverage) Count(e int) int { return int(c.counts[e]) }

// Covered reports whether every element is covered.
func (c *Coverage) Covered() bool { return c.uncovered == 0 }

// UncoveredCount is the number of elements no selected subset covers.
func (c *Coverage) UncoveredCount() int { return c.uncovered }

// Gain is the number of currently uncovered elements subset i would cover.
func (c *Coverage) Gain(i int) int {
	g := 0
	for _, e := range c.inst.Subset(i) {
		if c.counts[e] == 0 {
			g++
		}
	}
	return g
}

// Exclusive is the number of elements that subset i alone covers.
func (c *Coverage) Exclusive(i int) int {
	x := 0
	for _, e := range c.inst.Subset(i) {
		if c.counts[e] == 1 {
			x++
		}
	}
	return x
}

// Uncovered lists uncovered elements in ascending order.
func (c *Coverage) Uncovered() []int {
	out := make([]int, 0, c.uncovered)
	if c.uncovered == 0 {
		return out
	}
	for e, n := range c.counts {
		if n == 0 {
			out = append(out, e)
		}
	}
	return out
}

// UncoveredSet is Uncovered as a bitset of length N.
func (c *Coverage) UncoveredSet() *bitset.BitSet {
	bs := bitset.New(uint(len(c.counts)))
	for e, n := range c.counts {
		if n == 0 {
			bs.Set(uint(e))
		}
	}
	return bs
}

// Members returns a copy of the selection in its internal order. The order
// is deterministic for a given sequence of Add/Remove calls.
func (c *Coverage) Members() []int { return slices.Clone(c.members) }

// Selection returns the canonical (sorted) selection.
func (c *Coverage) Selection() []int { return Canonical(c.members) }

// Member returns the k-th member in internal order.
func (c *Coverage) Member(k int) int { return c.members[k] }

// Clone is a deep copy.
func (c *Coverage) Clone() *Coverage {
	return &Coverage{
		inst:      c.inst,
		counts:    slices.Clone(c.counts),
		uncovered: c.uncovered,
		members:   slices.Clone(c.members),
		position:  slices.Clone(c.position),
	}
}

// Instance is the instance this coverage is over.
func (c *Coverage) Instance() *instance.Instance { return c.inst }

// Canonical returns the sorted, duplicate-free copy of sel.
func Canonical(sel []int) []int {
	out := lo.Uniq(sel)
	slices.Sort(out)
	return out
}
