// Package sptensor stores sparse multidimensional arrays in an
// open-addressing hash table.
//
// Only nonzero entries are stored. Each is keyed by a coordinate of
// non-negative ints, one per axis. Coordinates are hashed by interleaving
// their bits into a 64-bit Morton (Z-order) code, finalizing it with a
// shift-xor-add mix, and probing linearly from the resulting bucket.
// The table doubles once it is more than 80% full, and deletions shift
// later entries back so lookups never need tombstones.
//
// A Tensor is not safe for concurrent use.
//
// The package logs through github.com/op/go-logging under the module name
// "sptensor". Each rehash is logged at DEBUG, and go-logging's default
// backend writes every level to stderr. Programs that want it quiet should
// install a backend and set a level, for example
// logging.SetLevel(logging.INFO, "sptensor").
package sptensor

import (
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("sptensor")

// Tensor is a sparse tensor of float64 values.
//
// The zero value is not ready for use; call New or NewWithShape.
type Tensor struct {
	cfg   config
	shape []int // per-axis lengths, nil until the rank is known
	enc   *mortonEncoder
	table *table // nil until the rank is known

	// stats carried over from tables replaced by a rehash
	rehashes int
	retired  Stats
}

// New returns an empty tensor whose rank is taken from the first Set.
func New(opts ...Option) *Tensor {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Tensor{cfg: cfg.resolve()}
}

// NewWithShape returns an empty tensor with the given per-axis lengths.
// The rank is len(shape). Lengths only grow as entries are set.
func NewWithShape(shape []int, opts ...Option) (*Tensor, error) {
	t := New(opts...)
	enc, err := newMortonEncoder(len(shape))
	if err != nil {
		return nil, err
	}
	for _, n := range shape {
		if n < 0 {
			return nil, ErrInvalidRank
		}
	}
	t.establish(enc, append([]int(nil), shape...))
	return t, nil
}

func (t *Tensor) establish(enc *mortonEncoder, shape []int) {
	t.enc = enc
	t.shape = shape
	t.table = newTable(t.cfg.buckets, enc)
}

// Rank returns the number of axes, or 0 if no rank has been established.
func (t *Tensor) Rank() int { return len(t.shape) }

// Shape returns a copy of the per-axis lengths. Each length is one more
// than the largest coordinate seen on that axis, or the length given to
// NewWithShape if that is larger.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Len returns the number of stored (nonzero) entries.
func (t *Tensor) Len() int {
	if t.table == nil {
		return 0
	}
	return t.table.count
}

// Buckets returns the current bucket count of the underlying table.
func (t *Tensor) Buckets() int {
	if t.table == nil {
		return t.cfg.buckets
	}
	return t.table.len()
}

// Set stores v at coord. Setting 0 removes any entry at coord.
//
// The first Set on a tensor created by New fixes its rank. Set either
// applies fully, updating the shape and the stored entry, or returns an
// error and leaves the tensor unchanged.
func (t *Tensor) Set(coord []int, v float64) error {
	if t.table == nil {
		enc, err := newMortonEncoder(len(coord))
		if err != nil {
			return err
		}
		if _, err := enc.encode(coord); err != nil {
			return err
		}
		t.establish(enc, make([]int, len(coord)))
	}
	if err := t.checkRank(len(coord)); err != nil {
		return err
	}

	morton, home, err := t.table.hash(coord)
	if err != nil {
		return err
	}
	i := t.table.probe(morton, home)

	switch {
	case v == 0:
		if t.table.slots[i].used {
			t.table.removeAt(i)
		}
	case t.table.slots[i].used:
		t.table.slots[i].value = v
	default:
		// Grow before filling, so a failed grow changes nothing.
		// This matches growing right after the count passes the load factor.
		if float64(t.table.count+1)/float64(t.table.len()) > loadFactor {
			if err := t.Rehash(); err != nil {
				return err
			}
			home = t.table.bucket(morton)
			i = t.table.probe(morton, home)
		}
		t.table.fill(i, morton, home, coord, v)
	}

	for axis, c := range coord {
		if c >= t.shape[axis] {
			t.shape[axis] = c + 1
		}
	}
	return nil
}

// Get returns the value at coord, or 0 if nothing is stored there.
// A tensor with no rank yet holds nothing, so any key reads as 0.
func (t *Tensor) Get(coord []int) (float64, error) {
	if t.table == nil {
		return 0, nil
	}
	if err := t.checkRank(len(coord)); err != nil {
		return 0, err
	}
	morton, home, err := t.table.hash(coord)
	if err != nil {
		return 0, err
	}
	i := t.table.probe(morton, home)
	if !t.table.slots[i].used {
		return 0, nil
	}
	return t.table.slots[i].value, nil
}

// Remove deletes the entry at coord and reports whether one was present.
// The shape is not reduced.
func (t *Tensor) Remove(coord []int) (bool, error) {
	if t.table == nil {
		return false, nil
	}
	if err := t.checkRank(len(coord)); err != nil {
		return false, err
	}
	morton, home, err := t.table.hash(coord)
	if err != nil {
		return false, err
	}
	i := t.table.probe(morton, home)
	if !t.table.slots[i].used {
		return false, nil
	}
	t.table.removeAt(i)
	return true, nil
}

// Rehash moves every entry into a new table with twice as many buckets.
// Set calls it automatically. If the new table would exceed the maximum
// bucket count, Rehash returns ErrCapacityExhausted and changes nothing.
func (t *Tensor) Rehash() error {
	if t.table == nil {
		return nil
	}
	old := t.table
	if old.len() >= t.cfg.maxBuckets {
		log.Warningf("rehash: cannot grow past %d buckets (%d entries)", old.len(), old.count)
		return ErrCapacityExhausted
	}

	// Insert straight into the new table. Going through Set would check the
	// load factor again mid-rehash.
	nt := newTable(old.len()*2, t.enc)
	var err error
	old.rangeSlots(func(coord []int, v float64) bool {
		err = nt.insert(coord, v)
		return err == nil
	})
	if err != nil {
		// impossible: every stored coordinate was encodable when set
		return err
	}

	t.retired.Accesses += old.accesses
	t.retired.Collisions += old.collisions
	t.retired.Probes += old.probes
	t.rehashes++
	t.table = nt
	log.Debugf("rehash: %d -> %d buckets, %d entries", old.len(), nt.len(), nt.count)
	return nil
}

// Range calls f for each stored entry, in table order, until f returns
// false. The coord slice is only valid during the call and must not be
// modified. f must not modify the tensor.
func (t *Tensor) Range(f func(coord []int, v float64) bool) {
	if t.table == nil {
		return
	}
	t.table.rangeSlots(f)
}

// Clear removes every entry. The rank, shape and bucket count are kept.
func (t *Tensor) Clear() {
	if t.table == nil {
		return
	}
	for i := range t.table.slots {
		if t.table.slots[i].used {
			t.table.clear(i)
		}
	}
	t.table.count = 0
}

// Stats describes table occupancy and probing work since the tensor was created.
type Stats struct {
	Len      int // stored entries
	Buckets  int // current bucket count
	Rehashes int // times the table doubled

	Accesses   int64 // probe sequences started
	Collisions int64 // probe sequences whose home bucket held another entry
	Probes     int64 // extra slots visited past the home bucket
}

// LoadFactor returns Len / Buckets.
func (s Stats) LoadFactor() float64 {
	if s.Buckets == 0 {
		return 0
	}
	return float64(s.Len) / float64(s.Buckets)
}

// Stats returns occupancy and probing statistics.
func (t *Tensor) Stats() Stats {
	s := t.retired
	s.Len = t.Len()
	s.Buckets = t.Buckets()
	s.Rehashes = t.rehashes
	if t.table != nil {
		s.Accesses += t.table.accesses
		s.Collisions += t.table.collisions
		s.Probes += t.table.probes
	}
	return s
}

func (t *Tensor) checkRank(n int) error {
	if n != len(t.shape) {
		return rankMismatch(len(t.shape), n)
	}
	return nil
}
