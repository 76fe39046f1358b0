package tensorio

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/thepudds/sptensor"
)

// Write writes a header line with the rank and axis lengths, then one line
// per stored entry in table order. Values are written in the shortest form
// that reads back exactly.
func Write(w io.Writer, t *sptensor.Tensor) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 128)

	buf = strconv.AppendInt(buf, int64(t.Rank()), 10)
	for _, n := range t.Shape() {
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(n), 10)
	}
	buf = append(buf, '\n')
	if _, err := bw.Write(buf); err != nil {
		return errors.Wrap(err, "writing header")
	}

	var err error
	t.Range(func(coord []int, v float64) bool {
		buf = buf[:0]
		for _, c := range coord {
			buf = strconv.AppendInt(buf, int64(c), 10)
			buf = append(buf, ' ')
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		buf = append(buf, '\n')
		_, err = bw.Write(buf)
		return err == nil
	})
	if err != nil {
		return errors.Wrap(err, "writing entries")
	}
	return errors.Wrap(bw.Flush(), "flushing")
}
