package sptensor

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func TestMorton(t *testing.T) {
	tests := []struct {
		name    string
		coord   []int
		want    uint64
		wantErr error
	}{
		{"rank 1 is identity", []int{42}, 42, nil},
		{"rank 2 axis 0 bit 0", []int{1, 0}, 1, nil},
		{"rank 2 axis 1 bit 0", []int{0, 1}, 2, nil},
		{"rank 2 axis 0 bit 1", []int{2, 0}, 4, nil},
		{"rank 2 mixed", []int{3, 5}, 0b100111, nil},
		{"rank 3 ones", []int{1, 1, 1}, 7, nil},
		{"rank 3 last axis", []int{0, 0, 1}, 4, nil},
		{"rank 3 axis 0 bit 1", []int{2, 0, 0}, 8, nil},
		{"rank 3 origin", []int{0, 0, 0}, 0, nil},
		{"rank 3 max axis 0", []int{1<<22 - 1, 0, 0}, 0x9249249249249249, nil},
		{"rank 3 past max axis 0", []int{1 << 22, 0, 0}, 0, ErrCoordinateRange},
		{"rank 3 past max axis 2", []int{0, 0, 1 << 21}, 0, ErrCoordinateRange},
		{"negative", []int{0, -1}, 0, ErrCoordinateRange},
		{"rank 0", nil, 0, ErrInvalidRank},
		{"rank 65", make([]int, 65), 0, ErrInvalidRank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Morton(tt.coord...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Morton(%v) err = %v, want %v", tt.coord, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Morton(%v) = %#x, want %#x", tt.coord, got, tt.want)
			}
		})
	}
}

func TestMaxCoord(t *testing.T) {
	tests := []struct {
		rank, axis int
		want       int
	}{
		{2, 0, 1<<32 - 1},
		{2, 1, 1<<32 - 1},
		{3, 0, 1<<22 - 1},
		{3, 1, 1<<21 - 1},
		{3, 2, 1<<21 - 1},
		{64, 0, 1},
		{64, 63, 1},
		{0, 0, -1},
		{3, 3, -1},
		{65, 0, -1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("rank %d axis %d", tt.rank, tt.axis), func(t *testing.T) {
			if got := MaxCoord(tt.rank, tt.axis); got != tt.want {
				t.Errorf("MaxCoord() = %d, want %d", got, tt.want)
			}
		})
	}

	// every axis must accept its ceiling and reject one more
	for rank := 2; rank <= MaxRank; rank++ {
		for axis := 0; axis < rank; axis++ {
			coord := make([]int, rank)
			coord[axis] = MaxCoord(rank, axis)
			if _, err := Morton(coord...); err != nil {
				t.Fatalf("Morton() at ceiling rank %d axis %d: %v", rank, axis, err)
			}
			coord[axis]++
			if _, err := Morton(coord...); !errors.Is(err, ErrCoordinateRange) {
				t.Fatalf("Morton() past ceiling rank %d axis %d: err = %v", rank, axis, err)
			}
		}
	}
}

func TestDeposit(t *testing.T) {
	tests := []struct {
		name string
		x    uint64
		mask uint64
		want uint64
	}{
		{"empty mask", 0xff, 0, 0},
		{"full mask", 0xdeadbeef, ^uint64(0), 0xdeadbeef},
		{"every other bit", 0b1011, 0x5555555555555555, 0b01000101},
		{"excess bits dropped", 0b111, 0b1001, 0b1001},
		{"high bit", 1, 1 << 63, 1 << 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := depositGeneric(tt.x, tt.mask); got != tt.want {
				t.Errorf("depositGeneric() = %#b, want %#b", got, tt.want)
			}
			if got := deposit(tt.x, tt.mask); got != tt.want {
				t.Errorf("deposit() = %#b, want %#b", got, tt.want)
			}
		})
	}

	// the platform deposit (PDEP where available) must agree with the loop
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100 * *repFlag; i++ {
		x, mask := rng.Uint64(), rng.Uint64()
		if got, want := deposit(x, mask), depositGeneric(x, mask); got != want {
			t.Fatalf("deposit(%#x, %#x) = %#x, want %#x", x, mask, got, want)
		}
	}
}

func TestMorton_Unique(t *testing.T) {
	for _, rank := range []int{1, 2, 3, 5, 8} {
		t.Run(fmt.Sprintf("rank %d", rank), func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(rank)))
			seen := make(map[uint64]string)
			for i := 0; i < 10 * *repFlag; i++ {
				coord := make([]int, rank)
				for axis := range coord {
					// MaxCoord is all ones, so it doubles as a mask
					coord[axis] = int(rng.Uint64() & uint64(MaxCoord(rank, axis)))
				}
				code, err := Morton(coord...)
				if err != nil {
					t.Fatal(err)
				}
				again, _ := Morton(coord...)
				if again != code {
					t.Fatalf("Morton(%v) not deterministic: %#x then %#x", coord, code, again)
				}
				key := fmt.Sprint(coord)
				if prev, ok := seen[code]; ok && prev != key {
					t.Fatalf("Morton(%v) = %#x, same as %v", coord, code, prev)
				}
				seen[code] = key
			}
		})
	}
}
