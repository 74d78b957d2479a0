// Package instance holds the immutable minimum set cover problem: a universe
// of n elements and a collection of m candidate subsets.
//
// Everything in this package is 0-based. The instance file lists element ids
// 1..n; the parser converts them on the way in and nothing else in the module
// ever sees a 1-based element id.
package instance

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash"
)

var (
	// ErrMalformed is wrapped by every parse or validation failure.
	ErrMalformed = errors.New("malformed instance")
)

// Instance is read-only after construction.
type Instance struct {
	Name string

	n       int
	subsets [][]int
	bits    []*bitset.BitSet
	fp      uint64
}

// New builds an instance from 0-based subsets. Subsets are copied, sorted
// and de-duplicated.
func New(n int, subsets [][]int) (*Instance, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative universe size %d", ErrMalformed, n)
	}
	inst := &Instance{
		n:       n,
		subsets: make([][]int, len(subsets)),
		bits:    make([]*bitset.BitSet, len(subsets)),
	}
	for i, s := range subsets {
		c := slices.Clone(s)
		slices.Sort(c)
		c = slices.Compact(c)
		bs := bitset.New(uint(n))
		for _, e := range c {
			if e < 0 || e >= n {
				return nil, fmt.Errorf("%w: subset %d has element %d outside universe of %d",
					ErrMalformed, i, e, n)
			}
			bs.Set(uint(e))
		}
		inst.subsets[i] = c
		inst.bits[i] = bs
	}
	inst.fp = inst.fingerprint()
	return inst, nil
}

// N is the universe size.
func (inst *Instance) N() int { return inst.n }

// M is the number of candidate subsets.
func (inst *Instance) M() int { return len(inst.subsets) }

// Subset returns the sorted elements of subset i. Callers must not modify it.
func (inst *Instance) Subset(i int) []int { return inst.subsets[i] }

// Size is the number of elements in subset i.
func (inst *Instance) Size(i int) int { return len(inst.subsets[i]) }

// Bits returns subset i as a bitset of length N. Callers must not modify it.
func (inst *Instance) Bits(i int) *bitset.BitSet { return inst.bits[i] }

// Universe returns a fresh bitset with all N elements set.
func (inst *Instance) Universe() *bitset.BitSet {
	u := bitset.New(uint(inst.n))
	if inst.n > 0 {
		u.FlipRange(0, uint(inst.n))
	}
	return u
}

// Coverable reports whether the union of all subsets is the universe.
func (inst *Instance) Coverable() bool {
	u := bitset.New(uint(inst.n))
	for _, b := range inst.bits {
		u.InPlaceUnion(b)
	}
	return int(u.Count()) == inst.n
}

// Fingerprint is a content hash of the instance; two instances with the same
// universe size and the same subsets in the same order share it.
func (inst *Instance) Fingerprint() uint64 { return inst.fp }

func (inst *Instance) fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	put(inst.n)
	put(len(inst.subsets))
	for _, s := range inst.subsets {
		put(len(s))
		for _, e := range s {
			put(e)
		}
	}
	return d.Sum64()
}

func (inst *Instance) String() string {
	return fmt.Sprintf("<instance %s: n=%d m=%d fp=%016x>", inst.Name, inst.n, len(inst.subsets), inst.fp)
}
