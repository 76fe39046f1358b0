package sptensor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTensor_Slice(t *testing.T) {
	// entries at (0,0)=1, (1,2)=5, (2,2)=9 in a 3x3 tensor
	newSmall := func(t *testing.T) *Tensor {
		tns, err := NewWithShape([]int{3, 3})
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range []struct {
			coord []int
			v     float64
		}{
			{[]int{0, 0}, 1},
			{[]int{1, 2}, 5},
			{[]int{2, 2}, 9},
		} {
			if err := tns.Set(e.coord, e.v); err != nil {
				t.Fatal(err)
			}
		}
		return tns
	}

	tests := []struct {
		name      string
		sel       []Selector
		want      map[string]float64
		wantShape []int
	}{
		{
			name:      "range and index",
			sel:       []Selector{Span(0, 2), Index(2)},
			want:      map[string]float64{"[1 2]": 5},
			wantShape: []int{2, 3}, // the copied (1,2) widens the collapsed axis
		},
		{
			name:      "all",
			sel:       []Selector{All(), All()},
			want:      map[string]float64{"[0 0]": 1, "[1 2]": 5, "[2 2]": 9},
			wantShape: []int{3, 3},
		},
		{
			name:      "point",
			sel:       []Selector{Index(0), Index(0)},
			want:      map[string]float64{"[0 0]": 1},
			wantShape: []int{1, 1},
		},
		{
			name:      "negative index",
			sel:       []Selector{Index(-1), Index(-1)},
			want:      map[string]float64{"[2 2]": 9},
			wantShape: []int{3, 3},
		},
		{
			name:      "from",
			sel:       []Selector{From(1), All()},
			want:      map[string]float64{"[1 2]": 5, "[2 2]": 9},
			wantShape: []int{3, 3},
		},
		{
			name:      "to",
			sel:       []Selector{To(-1), To(1)},
			want:      map[string]float64{"[0 0]": 1},
			wantShape: []int{2, 1},
		},
		{
			name:      "stride",
			sel:       []Selector{All().Stride(2), All()},
			want:      map[string]float64{"[0 0]": 1, "[2 2]": 9},
			wantShape: []int{3, 3},
		},
		{
			name:      "reverse stride",
			sel:       []Selector{All().Stride(-1), From(2).Stride(-2)},
			want:      map[string]float64{"[0 0]": 1, "[1 2]": 5, "[2 2]": 9},
			wantShape: []int{3, 3},
		},
		{
			name:      "clamped past end",
			sel:       []Selector{Span(1, 100), Span(-100, 100)},
			want:      map[string]float64{"[1 2]": 5, "[2 2]": 9},
			wantShape: []int{3, 3},
		},
		{
			name:      "empty range",
			sel:       []Selector{Span(2, 1), All()},
			want:      map[string]float64{},
			wantShape: []int{0, 3},
		},
		{
			name:      "index past end",
			sel:       []Selector{Index(7), All()},
			want:      map[string]float64{},
			wantShape: []int{1, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSmall(t)
			got, err := src.Slice(tt.sel...)
			if err != nil {
				t.Fatalf("Tensor.Slice(%v) error: %v", tt.sel, err)
			}
			if diff := cmp.Diff(tt.want, entries(got)); diff != "" {
				t.Errorf("Tensor.Slice(%v) entries mismatch (-want +got):\n%s", tt.sel, diff)
			}
			if diff := cmp.Diff(tt.wantShape, got.Shape()); diff != "" {
				t.Errorf("Tensor.Slice(%v) shape mismatch (-want +got):\n%s", tt.sel, diff)
			}

			// the result is independent of its source
			if err := got.Set([]int{0, 1}, 42); err != nil {
				t.Fatal(err)
			}
			if v, _ := src.Get([]int{0, 1}); v != 0 {
				t.Errorf("source saw a write to the slice: %v", v)
			}
			if src.Len() != 3 {
				t.Errorf("source Len() = %d, want 3", src.Len())
			}
		})
	}
}

func TestTensor_SliceErrors(t *testing.T) {
	tns := New()
	if err := tns.Set([]int{1, 2}, 1); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		sel     []Selector
		wantErr error
	}{
		{"too few", []Selector{All()}, ErrRankMismatch},
		{"too many", []Selector{All(), All(), All()}, ErrRankMismatch},
		{"zero selector", []Selector{All(), {}}, ErrInvalidIndexKind},
		{"zero step", []Selector{All().Stride(0), All()}, ErrInvalidIndexKind},
		{"stride on index", []Selector{Index(1).Stride(2), All()}, ErrInvalidIndexKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tns.Slice(tt.sel...); !errors.Is(err, tt.wantErr) {
				t.Errorf("Tensor.Slice() err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// a tensor with no rank yet slices to another empty tensor
	empty, err := New().Slice()
	if err != nil || empty.Len() != 0 || empty.Rank() != 0 {
		t.Errorf("New().Slice() = %v, %v", empty, err)
	}
}

func TestTensor_SliceLarge(t *testing.T) {
	tns := New()
	want := make(map[string]float64)
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			v := float64(x*40+y) + 1
			if err := tns.Set([]int{x, y, x + y}, v); err != nil {
				t.Fatal(err)
			}
			if x >= 10 && x < 30 && y%3 == 0 {
				want[fmt.Sprint([]int{x, y, x + y})] = v
			}
		}
	}
	got, err := tns.Slice(Span(10, 30), All().Stride(3), All())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, entries(got)); diff != "" {
		t.Errorf("Tensor.Slice() entries mismatch (-want +got):\n%s", diff)
	}
	if err := got.table.check(); err != nil {
		t.Error(err)
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    string // String() of the parsed selector
		wantErr bool
	}{
		{"3", "3", false},
		{"-1", "-1", false},
		{":", ":", false},
		{"::", ":", false},
		{"1:4", "1:4", false},
		{"1:", "1:", false},
		{":4", ":4", false},
		{"::2", "::2", false},
		{"4:1:-1", "4:1:-1", false},
		{" 2 ", "2", false},
		{"", "", true},
		{"a", "", true},
		{"1:b", "", true},
		{"::0", "", true},
		{"1:2:3:4", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelector(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSelector(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidIndexKind) {
					t.Errorf("ParseSelector(%q) err = %v, want ErrInvalidIndexKind", tt.in, err)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseSelector(%q) = %q, want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}

func TestSelector_resolve(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selector
		length  int
		want    []int // coordinates selected, in order
		wantLen int
	}{
		{"all", All(), 4, []int{0, 1, 2, 3}, 4},
		{"span", Span(1, 3), 4, []int{1, 2}, 2},
		{"negative bounds", Span(-3, -1), 4, []int{1, 2}, 2},
		{"stride", All().Stride(3), 7, []int{0, 3, 6}, 3},
		{"reverse", All().Stride(-1), 3, []int{2, 1, 0}, 3},
		{"reverse stride", Span(6, 0).Stride(-2), 8, []int{6, 4, 2}, 3},
		{"reverse clamped", Span(100, -100).Stride(-3), 5, []int{4, 1}, 2},
		{"empty axis", All(), 0, nil, 0},
		{"index", Index(2), 4, []int{2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.sel.resolve(tt.length)
			if err != nil {
				t.Fatal(err)
			}
			if got := r.len(); got != tt.wantLen {
				t.Errorf("span.len() = %d, want %d", got, tt.wantLen)
			}
			var got []int
			for c := r.start; (r.step > 0 && c < r.stop) || (r.step < 0 && c > r.stop); c += r.step {
				if !r.contains(c) {
					t.Errorf("span.contains(%d) = false inside %+v", c, r)
				}
				got = append(got, c)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolve() coordinates mismatch (-want +got):\n%s", diff)
			}
			for c := -2; c < tt.length+2; c++ {
				in := false
				for _, w := range tt.want {
					in = in || w == c
				}
				if r.contains(c) != in {
					t.Errorf("span.contains(%d) = %v, want %v", c, !in, in)
				}
			}
		})
	}
}
