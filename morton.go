package sptensor

import (
	"math/bits"
)

// MaxRank is the largest rank a Morton code can interleave. Every axis needs
// at least one bit of the 64-bit code.
const MaxRank = 64

// mortonEncoder interleaves the bits of a fixed-rank coordinate into a
// single uint64 (Z-order). Bit b of axis i lands at code bit b*rank+i.
//
// Axis i owns ceil((64-i)/rank) code bits. Coordinates wider than that
// cannot be encoded uniquely and are rejected rather than wrapped.
type mortonEncoder struct {
	masks  []uint64 // code bits owned by each axis
	limits []uint64 // largest encodable coordinate per axis
}

func newMortonEncoder(rank int) (*mortonEncoder, error) {
	if rank < 1 || rank > MaxRank {
		return nil, ErrInvalidRank
	}
	e := &mortonEncoder{
		masks:  make([]uint64, rank),
		limits: make([]uint64, rank),
	}
	for axis := 0; axis < rank; axis++ {
		var m uint64
		for pos := axis; pos < 64; pos += rank {
			m |= 1 << pos
		}
		e.masks[axis] = m
		n := bits.OnesCount64(m)
		if n == 64 {
			e.limits[axis] = ^uint64(0)
		} else {
			e.limits[axis] = 1<<n - 1
		}
	}
	return e, nil
}

func (e *mortonEncoder) rank() int { return len(e.masks) }

// encode returns the Z-order code for coord. The caller has already checked
// len(coord) against the rank.
func (e *mortonEncoder) encode(coord []int) (uint64, error) {
	var m uint64
	for axis, c := range coord {
		if c < 0 || uint64(c) > e.limits[axis] {
			return 0, ErrCoordinateRange
		}
		m |= deposit(uint64(c), e.masks[axis])
	}
	return m, nil
}

// Morton returns the Z-order code of coord, whose rank is len(coord).
func Morton(coord ...int) (uint64, error) {
	e, err := newMortonEncoder(len(coord))
	if err != nil {
		return 0, err
	}
	return e.encode(coord)
}

// MaxCoord reports the largest coordinate value that axis can hold in a
// tensor of the given rank, or -1 if rank or axis is out of bounds.
func MaxCoord(rank, axis int) int {
	if rank < 1 || rank > MaxRank || axis < 0 || axis >= rank {
		return -1
	}
	n := (64 - axis + rank - 1) / rank
	if n >= bits.UintSize-1 {
		// a single axis can use the full code, but not a full int
		return int(^uint(0) >> 1)
	}
	return 1<<n - 1
}

// depositGeneric scatters the low bits of x into the set bit positions of
// mask, lowest first. It matches the BMI2 PDEP instruction.
func depositGeneric(x, mask uint64) uint64 {
	var r uint64
	for m := mask; m != 0 && x != 0; x >>= 1 {
		low := m & -m
		if x&1 != 0 {
			r |= low
		}
		m &^= low
	}
	return r
}
