// Package trace reads Valgrind memory traces and replays them against a
// cache.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the kind of a memory reference, named by its letter in the trace.
type Kind byte

// The kinds of references found in a trace.
const (
	KindOther       Kind = 0
	KindInstruction Kind = 'I'
	KindLoad        Kind = 'L'
	KindStore       Kind = 'S'
	KindModify      Kind = 'M'
)

func (k Kind) String() string {
	switch k {
	case KindInstruction, KindLoad, KindStore, KindModify:
		return string(rune(k))
	default:
		return "?"
	}
}

// IsData reports whether references of this kind go through the data cache.
func (k Kind) IsData() bool {
	return k == KindLoad || k == KindStore || k == KindModify
}

// An Event is one reference of a trace.
type Event struct {
	Kind    Kind
	Address uint64
	Size    uint32
}

func (e Event) String() string {
	return fmt.Sprintf("%s %x,%d", e.Kind, e.Address, e.Size)
}

// ErrMalformedLine is returned by ParseLine for lines that are not
// references.
var ErrMalformedLine = errors.New("malformed trace line")

// ParseLine parses one line of a trace. Data references are indented by one
// space (" L 7ff0005c8,8"); instruction fetches are not ("I  0400d7d4,8").
// The size after the comma is optional.
func ParseLine(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")

	if len(line) < 3 {
		return Event{}, ErrMalformedLine
	}

	var kind Kind
	switch {
	case line[0] == byte(KindInstruction) && line[1] == ' ':
		kind = KindInstruction
	case line[0] == ' ' && line[2] == ' ' && Kind(line[1]).IsData():
		kind = Kind(line[1])
	default:
		return Event{}, ErrMalformedLine
	}

	addrStr, sizeStr, hasSize := strings.Cut(strings.TrimSpace(line[2:]), ",")

	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: bad address %q", ErrMalformedLine, addrStr)
	}

	e := Event{Kind: kind, Address: addr}

	if hasSize {
		size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 10, 32)
		if err != nil {
			return Event{}, fmt.Errorf("%w: bad size %q", ErrMalformedLine, sizeStr)
		}

		e.Size = uint32(size)
	}

	return e, nil
}
