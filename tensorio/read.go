// Package tensorio reads and writes sparse tensors as text, one entry per
// line: the coordinates as whitespace-separated integers, then the value.
//
// Written files start with a header line holding the rank followed by each
// axis length. A length is one more than the largest coordinate on that
// axis, not the coordinate itself. A tensor with no entries and no rank is
// written as the lone header "0". Files may be compressed; see CodecFor.
package tensorio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/thepudds/sptensor"
)

var log = logging.MustGetLogger("tensorio")

// DefaultProgress is how many rows Read handles between progress logs.
const DefaultProgress = 1000

// ParseError reports a malformed row.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errShortRow   = errors.New("need at least one coordinate and a value")
	errBadHeader  = errors.New("header must be a rank followed by that many axis lengths")
	errBadInteger = errors.New("coordinate is not an integer")
	errBadValue   = errors.New("value is not a number")
)

type readConfig struct {
	header   bool
	progress int
	opts     []sptensor.Option
}

// ReadOption configures Read.
type ReadOption func(*readConfig)

// WithHeader makes Read expect the header line that Write produces.
func WithHeader() ReadOption {
	return func(c *readConfig) { c.header = true }
}

// WithProgress sets how many rows are read between debug progress logs.
// Zero or less disables them.
func WithProgress(rows int) ReadOption {
	return func(c *readConfig) { c.progress = rows }
}

// WithTensorOptions passes options to the tensor that Read creates.
func WithTensorOptions(opts ...sptensor.Option) ReadOption {
	return func(c *readConfig) { c.opts = append(c.opts, opts...) }
}

// Read builds a tensor from r, calling Set for each row. Blank lines and
// lines starting with '#' are skipped. The rank comes from the header if
// WithHeader is given, and otherwise from the first row.
func Read(r io.Reader, opts ...ReadOption) (*sptensor.Tensor, error) {
	cfg := readConfig{progress: DefaultProgress}
	for _, o := range opts {
		o(&cfg)
	}

	var tns *sptensor.Tensor
	if !cfg.header {
		tns = sptensor.New(cfg.opts...)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		line  int
		rows  int
		coord []int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)

		if tns == nil {
			shape, err := parseHeader(fields)
			if err != nil {
				return nil, &ParseError{Line: line, Text: text, Err: err}
			}
			if len(shape) == 0 {
				// rank 0: written from a tensor that never had an entry
				tns = sptensor.New(cfg.opts...)
				continue
			}
			tns, err = sptensor.NewWithShape(shape, cfg.opts...)
			if err != nil {
				return nil, &ParseError{Line: line, Text: text, Err: err}
			}
			continue
		}

		if len(fields) < 2 {
			return nil, &ParseError{Line: line, Text: text, Err: errShortRow}
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: errBadValue}
		}
		coord = coord[:0]
		for _, f := range fields[:len(fields)-1] {
			c, err := strconv.Atoi(f)
			if err != nil {
				return nil, &ParseError{Line: line, Text: text, Err: errBadInteger}
			}
			coord = append(coord, c)
		}
		if err := tns.Set(coord, v); err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}

		rows++
		if cfg.progress > 0 && rows%cfg.progress == 0 {
			s := tns.Stats()
			log.Debugf("read %d rows: %d entries, %d buckets, %d collisions, %d probes",
				rows, s.Len, s.Buckets, s.Collisions, s.Probes)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading line %d", line+1)
	}
	if tns == nil {
		// header expected but the input was empty
		tns = sptensor.New(cfg.opts...)
	}
	return tns, nil
}

func parseHeader(fields []string) ([]int, error) {
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, errBadHeader
		}
		nums[i] = n
	}
	if nums[0] < 0 || len(nums) != nums[0]+1 {
		return nil, errBadHeader
	}
	return nums[1:], nil
}
