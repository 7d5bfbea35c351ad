// Package universe maps a fixed set of distinct identifiers to dense
// positions in [0, N) and keeps that mapping a bijection under shuffling.
package universe

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrEmpty is returned when a universe is built from no identifiers.
	ErrEmpty = errors.New("universe: no identifiers")

	// ErrDuplicateID is returned when an identifier appears more than once.
	ErrDuplicateID = errors.New("universe: duplicate identifier")
)

// Universe is a bidirectional mapping between identifiers and positions.
// The forward map and the position slice are always rebuilt together.
type Universe[T comparable] struct {
	toIndex map[T]int
	toID    []T
}

// New builds a universe where ids[i] sits at position i.
func New[T comparable](ids []T) (*Universe[T], error) {
	if len(ids) == 0 {
		return nil, ErrEmpty
	}

	toIndex := make(map[T]int, len(ids))
	for i, id := range ids {
		if prev, ok := toIndex[id]; ok {
			return nil, fmt.Errorf("%w: %v at positions %d and %d", ErrDuplicateID, id, prev, i)
		}
		toIndex[id] = i
	}

	toID := make([]T, len(ids))
	copy(toID, ids)

	return &Universe[T]{toIndex: toIndex, toID: toID}, nil
}

// Size returns the number of identifiers.
func (u *Universe[T]) Size() int {
	return len(u.toID)
}

// IndexOf returns the current position of id.
func (u *Universe[T]) IndexOf(id T) (int, bool) {
	i, ok := u.toIndex[id]
	return i, ok
}

// IDAt returns the identifier at position i.
func (u *Universe[T]) IDAt(i int) T {
	return u.toID[i]
}

// Membership returns a length-N indicator marking the positions of ids.
// Identifiers outside the universe are ignored.
func (u *Universe[T]) Membership(ids []T) []bool {
	indicator := make([]bool, len(u.toID))
	for _, id := range ids {
		if i, ok := u.toIndex[id]; ok {
			indicator[i] = true
		}
	}
	return indicator
}

// Positions returns the sorted, de-duplicated positions of the members of ids
// that exist in the universe.
func (u *Universe[T]) Positions(ids []T) []int {
	indicator := u.Membership(ids)
	positions := make([]int, 0, len(ids))
	for i, hit := range indicator {
		if hit {
			positions = append(positions, i)
		}
	}
	return positions
}

// Shuffle applies a uniform random permutation to the positions.
func (u *Universe[T]) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(u.toID), func(i, j int) {
		u.toID[i], u.toID[j] = u.toID[j], u.toID[i]
	})
	for i, id := range u.toID {
		u.toIndex[id] = i
	}
}

// Clone returns an independent copy.
func (u *Universe[T]) Clone() *Universe[T] {
	toIndex := make(map[T]int, len(u.toIndex))
	for id, i := range u.toIndex {
		toIndex[id] = i
	}
	toID := make([]T, len(u.toID))
	copy(toID, u.toID)
	return &Universe[T]{toIndex: toIndex, toID: toID}
}
