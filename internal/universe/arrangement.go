package universe

import (
	"math/rand/v2"
	"slices"
)

// Arrangement assigns the items 0..N-1 to positions 0..N-1.
// order[pos] is the item at pos and position[item] is where item sits;
// both slices are updated together so they stay inverse to each other.
type Arrangement struct {
	order    []int
	position []int
}

// Identity returns the arrangement where every item sits at its own index.
func Identity(n int) *Arrangement {
	a := &Arrangement{
		order:    make([]int, n),
		position: make([]int, n),
	}
	for i := range n {
		a.order[i] = i
		a.position[i] = i
	}
	return a
}

// Len returns the number of items.
func (a *Arrangement) Len() int {
	return len(a.order)
}

// PositionOf returns the position of item.
func (a *Arrangement) PositionOf(item int) int {
	return a.position[item]
}

// ItemAt returns the item at pos.
func (a *Arrangement) ItemAt(pos int) int {
	return a.order[pos]
}

// Shuffle applies a uniform random permutation (Fisher-Yates) and rebuilds
// the inverse.
func (a *Arrangement) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(a.order), func(i, j int) {
		a.order[i], a.order[j] = a.order[j], a.order[i]
	})
	for pos, item := range a.order {
		a.position[item] = pos
	}
}

// Snapshot freezes the current item-to-position mapping.
func (a *Arrangement) Snapshot() Permutation {
	positions := make([]int32, len(a.position))
	for item, pos := range a.position {
		positions[item] = int32(pos)
	}
	return Permutation{positions: positions}
}

// Permutation is a read-only item-to-position mapping taken from an
// Arrangement. Only the inverse side is kept since scoring only ever asks
// where an item landed.
type Permutation struct {
	positions []int32
}

// Len returns the number of items.
func (p Permutation) Len() int {
	return len(p.positions)
}

// PositionOf returns the position of item.
func (p Permutation) PositionOf(item int) int {
	return int(p.positions[item])
}

// Membership returns a length-N indicator marking where items landed.
// Items outside [0, N) are ignored.
func (p Permutation) Membership(items []int) []bool {
	indicator := make([]bool, len(p.positions))
	for _, item := range items {
		if item >= 0 && item < len(p.positions) {
			indicator[p.positions[item]] = true
		}
	}
	return indicator
}

// Map writes the positions of items into dst, sorted ascending, and returns
// it. dst is grown if needed. This is the sparse form of Membership.
func (p Permutation) Map(items []int, dst []int) []int {
	dst = dst[:0]
	for _, item := range items {
		dst = append(dst, int(p.positions[item]))
	}
	slices.Sort(dst)
	return dst
}
