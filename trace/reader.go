package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// A Reader produces the events of a text trace, one line at a time. Lines
// that cannot be parsed are skipped and counted.
type Reader struct {
	name    string
	src     io.Reader
	closer  io.Closer
	size    int64
	offset  int64
	line    int
	skipped int
	err     error
}

// NewReader creates a reader over r. The name is only used in errors.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{
		name: name,
		src:  r,
		size: -1,
	}
}

// Open opens the trace file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r := NewReader(path, f)
	r.closer = f
	r.size = info.Size()

	return r, nil
}

// MaxLineLength is the length, newline included, from which a line is too
// long to be a reference. Such lines are skipped.
const MaxLineLength = 4096

// Events returns the sequence of parsed events. The sequence can be consumed
// once; reading stops early if the consumer stops or the source fails.
func (r *Reader) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		br := bufio.NewReaderSize(r.src, MaxLineLength)
		tooLong := false

		for {
			chunk, err := br.ReadSlice('\n')
			r.offset += int64(len(chunk))

			if errors.Is(err, bufio.ErrBufferFull) {
				tooLong = true
				continue
			}

			if len(chunk) > 0 || tooLong {
				r.line++

				e, ok := r.parse(chunk, tooLong)
				tooLong = false

				if ok && !yield(e) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				r.err = fmt.Errorf("%s:%d: %w", r.name, r.line+1, err)
				return
			}
		}
	}
}

func (r *Reader) parse(chunk []byte, tooLong bool) (Event, bool) {
	if tooLong {
		r.skipped++
		return Event{}, false
	}

	text := strings.TrimSuffix(string(chunk), "\n")
	text = strings.TrimSuffix(text, "\r")

	e, err := ParseLine(text)
	if err != nil {
		r.skipped++
		return Event{}, false
	}

	return e, true
}

// Err returns the error that stopped reading, if any.
func (r *Reader) Err() error {
	return r.err
}

// Skipped returns the number of lines that were not references.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Lines returns the number of lines read so far.
func (r *Reader) Lines() int {
	return r.line
}

// Progress returns the number of bytes consumed, line endings included, and
// the total size of the trace. The total is -1 when it is not known.
func (r *Reader) Progress() (done, total int64) {
	done = r.offset
	if r.size >= 0 && done > r.size {
		done = r.size
	}

	return done, r.size
}

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}
