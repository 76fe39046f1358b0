package sptensor

import (
	"errors"
	"fmt"
)

var (
	// ErrRankMismatch is returned when a key's length disagrees with the
	// tensor's rank. Use errors.Is; the concrete error is *RankMismatchError.
	ErrRankMismatch = errors.New("rank mismatch")

	// ErrInvalidIndexKind is returned for a selector that is neither an
	// index nor a valid range (for example the zero Selector, or step 0).
	ErrInvalidIndexKind = errors.New("selector must be an index or a range")

	// ErrCapacityExhausted is returned when growing the table would exceed
	// its maximum bucket count. The tensor is left unchanged.
	ErrCapacityExhausted = errors.New("hash table capacity exhausted")

	// ErrCoordinateRange is returned for a negative coordinate, or one too
	// wide to fit its axis' share of the 64-bit Morton code.
	ErrCoordinateRange = errors.New("coordinate out of encodable range")

	// ErrInvalidRank is returned for a rank outside 1..MaxRank, or a shape
	// with a negative extent.
	ErrInvalidRank = errors.New("invalid rank")
)

// RankMismatchError reports the established rank and the rank of the
// offending key.
type RankMismatchError struct {
	Want int
	Got  int
}

func (e *RankMismatchError) Error() string {
	return fmt.Sprintf("rank mismatch: tensor has rank %d, key has %d components", e.Want, e.Got)
}

func (e *RankMismatchError) Is(target error) bool { return target == ErrRankMismatch }

func rankMismatch(want, got int) error {
	return &RankMismatchError{Want: want, Got: got}
}
