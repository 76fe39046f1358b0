package sptensor

import (
	"fmt"
	"math/bits"
)

// slot is one bucket of the table. Coordinates live in table.coords so a
// slot holds no pointers.
type slot struct {
	used   bool
	home   uint64 // bucket the entry hashed to, used by backward-shift deletion
	morton uint64
	value  float64
}

// table is a fixed-capacity open-addressing hash table from coordinate to
// value, probed linearly. It never grows itself; Tensor replaces it wholesale.
type table struct {
	slots  []slot
	coords []int // rank ints per slot, slot i at coords[i*rank:(i+1)*rank]
	rank   int
	mask   uint64
	enc    *mortonEncoder

	// finalizer shifts, from the table's bit width
	sx, sy, sz uint

	count int // occupied slots

	// stats
	accesses   int64
	collisions int64
	probes     int64
}

func newTable(nbuckets int, enc *mortonEncoder) *table {
	// sanity check power of 2
	if nbuckets < 2 || nbuckets&(nbuckets-1) != 0 {
		panic(fmt.Sprintf("impossible: table length %d is not a power of 2", nbuckets))
	}
	rank := enc.rank()

	// ceil(log2(nbuckets)), exact for a power of 2
	b := uint(bits.TrailingZeros(uint(nbuckets)))
	sx := (b+7)/8 - 1
	sy := uint(1)
	if 4*sx > 2 {
		sy = 4*sx - 1
	}
	sz := (b + 1) / 2

	if debug {
		fmt.Println("new: table length", nbuckets, "shifts", sx, sy, sz)
	}
	return &table{
		slots:  make([]slot, nbuckets),
		coords: make([]int, nbuckets*rank),
		rank:   rank,
		mask:   uint64(nbuckets) - 1,
		enc:    enc,
		sx:     sx,
		sy:     sy,
		sz:     sz,
	}
}

func (t *table) len() int { return len(t.slots) }

// hash returns the Morton code of coord and its home bucket.
func (t *table) hash(coord []int) (morton, home uint64, err error) {
	morton, err = t.enc.encode(coord)
	if err != nil {
		return 0, 0, err
	}
	return morton, t.bucket(morton), nil
}

// bucket finalizes a Morton code into a bucket index. The shifts mix the
// code's high bits into the low bits kept by the mask; overflow is intended.
func (t *table) bucket(morton uint64) uint64 {
	h := morton
	h += h << t.sx
	h ^= h >> t.sy
	h += h << t.sz
	return h & t.mask
}

// probe walks forward from home until it finds either the slot holding
// morton or an empty slot, and returns that slot's index. The caller
// decides what an empty result means.
func (t *table) probe(morton, home uint64) int {
	t.accesses++ // stats

	i := home
	if s := &t.slots[i]; s.used && s.morton != morton {
		t.collisions++ // stats
	}
	// This loop terminates because the tensor never lets the table fill up.
	for {
		s := &t.slots[i]
		if !s.used || s.morton == morton {
			return int(i)
		}
		i = (i + 1) & t.mask
		t.probes++ // stats
	}
}

func (t *table) coord(i int) []int {
	return t.coords[i*t.rank : (i+1)*t.rank]
}

// fill stores a new entry in the empty slot i.
func (t *table) fill(i int, morton, home uint64, coord []int, v float64) {
	if debug && t.slots[i].used {
		panic(fmt.Sprintf("fill: slot %d already used", i))
	}
	t.slots[i] = slot{used: true, home: home, morton: morton, value: v}
	copy(t.coord(i), coord)
	t.count++
}

// insert adds or overwrites coord without any growth check. It is used to
// populate a table that is known to have room, such as during a rehash.
func (t *table) insert(coord []int, v float64) error {
	morton, home, err := t.hash(coord)
	if err != nil {
		return err
	}
	i := t.probe(morton, home)
	if t.slots[i].used {
		t.slots[i].value = v
		return nil
	}
	t.fill(i, morton, home, coord, v)
	return nil
}

// removeAt empties slot i and repairs the probe chains running through it
// by shifting later entries back (Knuth's Algorithm R).
//
// Walking forward from the gap, an occupied slot j may move into the gap
// only when the gap lies on the cyclic path from j's home bucket to j.
// Otherwise j stays put and the walk goes on, since a later entry may still
// belong in the gap. The walk stops at the first empty slot.
func (t *table) removeAt(i int) {
	t.clear(i)
	t.count--

	gap := uint64(i)
	j := gap
	for {
		j = (j + 1) & t.mask
		s := &t.slots[j]
		if !s.used {
			return
		}
		if (j-s.home)&t.mask >= (j-gap)&t.mask {
			t.move(int(j), int(gap))
			gap = j
		}
	}
}

// move relocates the entry in slot from into the empty slot to.
func (t *table) move(from, to int) {
	t.slots[to] = t.slots[from]
	copy(t.coord(to), t.coord(from))
	t.clear(from)
}

func (t *table) clear(i int) {
	t.slots[i] = slot{}
	c := t.coord(i)
	for k := range c {
		c[k] = 0
	}
}

// rangeSlots calls f for each occupied slot in table order until f returns false.
func (t *table) rangeSlots(f func(coord []int, v float64) bool) {
	for i := range t.slots {
		if !t.slots[i].used {
			continue
		}
		if !f(t.coord(i), t.slots[i].value) {
			return
		}
	}
}

// check verifies every occupied slot: its Morton code and home bucket are
// reproducible from its coordinate, and no empty slot sits between its home
// bucket and the slot itself. It is used by tests and debug builds.
func (t *table) check() error {
	count := 0
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}
		count++
		morton, home, err := t.hash(t.coord(i))
		if err != nil {
			return fmt.Errorf("slot %d: %v", i, err)
		}
		if morton != s.morton {
			return fmt.Errorf("slot %d: stored morton %#x, coordinate %v encodes to %#x", i, s.morton, t.coord(i), morton)
		}
		if home != s.home {
			return fmt.Errorf("slot %d: stored home %d, recomputed %d", i, s.home, home)
		}
		for j := home; j != uint64(i); j = (j + 1) & t.mask {
			if !t.slots[j].used {
				return fmt.Errorf("slot %d: empty slot %d in probe chain from home %d", i, j, home)
			}
			if t.slots[j].morton == s.morton {
				return fmt.Errorf("slot %d: duplicate morton %#x at slot %d", i, s.morton, j)
			}
		}
	}
	if count != t.count {
		return fmt.Errorf("count %d does not match %d occupied slots", t.count, count)
	}
	return nil
}

// calcTableLength returns the bucket count for a requested capacity:
// the next power of 2, and at least 2 so the finalizer shifts are defined.
func calcTableLength(capacity int) int {
	n := 2
	for n < capacity && n > 0 {
		n <<= 1
	}
	if n <= 0 {
		// overflowed; the caller's max bucket check will reject growth
		return maxTableLength
	}
	return n
}

const maxTableLength = 1 << (bits.UintSize - 2)

const debug = false
