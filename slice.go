package sptensor

import (
	"fmt"
	"strconv"
	"strings"
)

type selectorKind uint8

const (
	invalidSelector selectorKind = iota
	indexSelector
	rangeSelector
)

// Selector picks part of one axis for Slice: either a single index, or a
// range of indexes with Python slice semantics.
//
// The zero Selector is invalid.
type Selector struct {
	kind     selectorKind
	index    int
	start    int
	stop     int
	step     int
	hasStart bool
	hasStop  bool
}

// Index selects the single coordinate i. A negative i counts back from the
// end of the axis.
func Index(i int) Selector {
	return Selector{kind: indexSelector, index: i}
}

// All selects the whole axis, like Python's [:].
func All() Selector {
	return Selector{kind: rangeSelector, step: 1}
}

// Span selects [start, stop), like Python's [start:stop]. Negative bounds
// count back from the end of the axis, and both are clamped to the axis.
func Span(start, stop int) Selector {
	return Selector{kind: rangeSelector, start: start, stop: stop, step: 1, hasStart: true, hasStop: true}
}

// From selects [start, end of axis), like Python's [start:].
func From(start int) Selector {
	return Selector{kind: rangeSelector, start: start, step: 1, hasStart: true}
}

// To selects [0, stop), like Python's [:stop].
func To(stop int) Selector {
	return Selector{kind: rangeSelector, stop: stop, step: 1, hasStop: true}
}

// Stride returns a copy of a range selector that takes every step'th
// coordinate. A negative step walks the axis backwards, so omitted bounds
// default to the end and the start of the axis respectively. Step 0 makes
// the selector invalid.
func (s Selector) Stride(step int) Selector {
	if s.kind != rangeSelector {
		return Selector{}
	}
	s.step = step
	return s
}

// IsIndex reports whether s selects a single index.
func (s Selector) IsIndex() bool { return s.kind == indexSelector }

// String formats s the way ParseSelector reads it.
func (s Selector) String() string {
	switch s.kind {
	case indexSelector:
		return strconv.Itoa(s.index)
	case rangeSelector:
		var b strings.Builder
		if s.hasStart {
			b.WriteString(strconv.Itoa(s.start))
		}
		b.WriteByte(':')
		if s.hasStop {
			b.WriteString(strconv.Itoa(s.stop))
		}
		if s.step != 1 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(s.step))
		}
		return b.String()
	default:
		return "<invalid>"
	}
}

// ParseSelector parses "i", "start:stop" or "start:stop:step", where any
// part of a range may be left out.
func ParseSelector(s string) (Selector, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 1 {
		i, err := strconv.Atoi(parts[0])
		if err != nil {
			return Selector{}, fmt.Errorf("%w: %q", ErrInvalidIndexKind, s)
		}
		return Index(i), nil
	}
	if len(parts) > 3 {
		return Selector{}, fmt.Errorf("%w: %q", ErrInvalidIndexKind, s)
	}

	sel := All()
	bound := func(p string) (int, bool, error) {
		if p == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q", ErrInvalidIndexKind, s)
		}
		return n, true, nil
	}
	var err error
	if sel.start, sel.hasStart, err = bound(parts[0]); err != nil {
		return Selector{}, err
	}
	if sel.stop, sel.hasStop, err = bound(parts[1]); err != nil {
		return Selector{}, err
	}
	if len(parts) == 3 {
		step, ok, err := bound(parts[2])
		if err != nil {
			return Selector{}, err
		}
		if ok {
			if step == 0 {
				return Selector{}, fmt.Errorf("%w: zero step in %q", ErrInvalidIndexKind, s)
			}
			sel.step = step
		}
	}
	return sel, nil
}

// span is a selector resolved against an axis length: the coordinates
// start, start+step, ... up to but excluding stop.
type span struct {
	start, stop, step int
}

// resolve clamps s to an axis of the given length, following Python's
// slice.indices.
func (s Selector) resolve(length int) (span, error) {
	switch s.kind {
	case indexSelector:
		i := s.index
		if i < 0 {
			i += length
		}
		if i < 0 {
			// matches nothing, but still one wide
			return span{start: -1, stop: 0, step: 1}, nil
		}
		return span{start: i, stop: i + 1, step: 1}, nil
	case rangeSelector:
	default:
		return span{}, ErrInvalidIndexKind
	}
	if s.step == 0 {
		return span{}, ErrInvalidIndexKind
	}

	lower, upper := 0, length
	if s.step < 0 {
		lower, upper = -1, length-1
	}
	clamp := func(v int, ok bool, def int) int {
		switch {
		case !ok:
			return def
		case v < 0:
			v += length
			if v < lower {
				v = lower
			}
		case v > upper:
			v = upper
		}
		return v
	}
	r := span{step: s.step}
	if s.step > 0 {
		r.start = clamp(s.start, s.hasStart, lower)
		r.stop = clamp(s.stop, s.hasStop, upper)
	} else {
		r.start = clamp(s.start, s.hasStart, upper)
		r.stop = clamp(s.stop, s.hasStop, lower)
	}
	return r, nil
}

// len is the number of coordinates in r.
func (r span) len() int {
	switch {
	case r.step > 0 && r.start < r.stop:
		return (r.stop-r.start-1)/r.step + 1
	case r.step < 0 && r.stop < r.start:
		return (r.start-r.stop-1)/(-r.step) + 1
	default:
		return 0
	}
}

func (r span) contains(c int) bool {
	if r.step > 0 {
		return c >= r.start && c < r.stop && (c-r.start)%r.step == 0
	}
	return c <= r.start && c > r.stop && (r.start-c)%(-r.step) == 0
}

// Slice returns a new tensor holding the entries of t whose coordinates fall
// inside sel, one selector per axis.
//
// Entries keep their original coordinates; the result is a filtered copy,
// not re-based to the slice's origin. Its shape starts as the number of
// coordinates each selector picks and then grows to cover the copied
// entries, as with Set. The result shares no storage with t.
func (t *Tensor) Slice(sel ...Selector) (*Tensor, error) {
	opts := []Option{WithMaxBuckets(t.cfg.maxBuckets)}
	if t.table == nil && len(sel) == 0 {
		return New(opts...), nil
	}
	if err := t.checkRank(len(sel)); err != nil {
		return nil, err
	}

	spans := make([]span, len(sel))
	shape := make([]int, len(sel))
	for axis, s := range sel {
		r, err := s.resolve(t.shape[axis])
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", axis, err)
		}
		spans[axis] = r
		shape[axis] = r.len()
	}

	out, err := NewWithShape(shape, opts...)
	if err != nil {
		return nil, err
	}
	t.Range(func(coord []int, v float64) bool {
		for axis, c := range coord {
			if !spans[axis].contains(c) {
				return true
			}
		}
		err = out.Set(coord, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
