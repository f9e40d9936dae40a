package structio

import (
	"errors"
	"fmt"
)

// Struct is an opaque handle to a struct being decoded. The zero value,
// NoStruct, stands for reads outside any struct.
type Struct struct {
	depth int
}

// NoStruct is the handle for reads that are not struct members, and the
// parent of a top-level struct.
var NoStruct Struct

// frame is the accounting record of one open struct.
type frame struct {
	bytes uint32 // consumed so far, padding included
	align int
	buf   uint32 // current bitfield unit
	bits  uint   // bits of buf not yet consumed
	root  bool   // started with NoStruct; size is not folded into a parent
}

var (
	errNotTop      = errors.New("struct is not the innermost open struct")
	errParent      = errors.New("parent is not the innermost open struct")
	errBadWidth    = errors.New("width must be 1, 2 or 4")
	errBadBitWidth = errors.New("bitfield width out of range")
)

// Depth is the number of structs currently open.
func (s *Session) Depth() int {
	return len(s.stack)
}

// index resolves h to its stack slot. Only the innermost struct accepts
// reads; any other handle is stale or out of order. While sizing, structs
// of the real decode are out of reach.
func (s *Session) index(op string, h Struct) (int, error) {
	if h.depth <= s.rootDepth() || h.depth != len(s.stack) {
		return 0, s.fail(op, ErrContract, errNotTop)
	}
	return h.depth - 1, nil
}

// StartStruct opens a struct nested in parent, which must be the innermost
// open struct. NoStruct starts a top-level struct: when none is open, or in
// sizing mode when no struct opened since StartCount is. The parent is padded
// up to the new struct's alignment before the first member is read.
func (s *Session) StartStruct(parent Struct, hasBitfields bool, maxMember Width) (Struct, error) {
	const op = "start_struct"
	root := parent == NoStruct
	if root {
		if len(s.stack) != s.rootDepth() {
			return NoStruct, s.fail(op, ErrContract, errParent)
		}
	} else if parent.depth != len(s.stack) || parent.depth <= s.rootDepth() {
		// A sized struct cannot nest in a struct of the real decode.
		return NoStruct, s.fail(op, ErrContract, errParent)
	}
	if !maxMember.Valid() {
		return NoStruct, s.fail(op, ErrContract, errBadWidth)
	}
	align, err := s.cfg.StructAlignment(hasBitfields, int(maxMember))
	if err != nil {
		return NoStruct, s.fail(op, ErrConfig, err)
	}

	if !root {
		n := len(s.stack)
		if p := s.stack[n-1].align; p < align {
			return NoStruct, s.fail(op, ErrConfig, fmt.Errorf("struct alignment %d exceeds parent alignment %d", align, p))
		}
		if err := s.align(op, n-1, align); err != nil {
			return NoStruct, err
		}
	}

	s.stack = append(s.stack, frame{align: align, root: root})
	return Struct{depth: len(s.stack)}, nil
}

// EndStruct drains any partially read bitfield unit, pads the struct to its
// own alignment, folds its size into the parent and closes it. The returned
// size is also what GetCount reports.
func (s *Session) EndStruct(h Struct) (uint32, error) {
	const op = "end_struct"
	i, err := s.index(op, h)
	if err != nil {
		return 0, err
	}
	if err := s.drain(op, i); err != nil {
		return 0, err
	}
	if err := s.align(op, i, s.stack[i].align); err != nil {
		return 0, err
	}

	size := s.stack[i].bytes
	root := s.stack[i].root
	s.lastSize = size
	s.stack = s.stack[:i]
	if !root {
		s.stack[i-1].bytes += size
	} else if !s.counting {
		s.log.Debug("struct decoded", "bytes", size, "offset", s.Offset())
	}
	return size, nil
}

// Align pads h up to an n-byte boundary.
func (s *Session) Align(h Struct, n Width) error {
	const op = "align"
	if !n.Valid() {
		return s.fail(op, ErrContract, errBadWidth)
	}
	i, err := s.index(op, h)
	if err != nil {
		return err
	}
	return s.align(op, i, int(n))
}

// Consumed returns the bytes h has consumed so far, including padding and
// any nested structs already ended.
func (s *Session) Consumed(h Struct) (uint32, error) {
	i, err := s.index("consumed", h)
	if err != nil {
		return 0, err
	}
	return s.stack[i].bytes, nil
}

// align reads and discards padding until frame i sits on an n-byte boundary.
func (s *Session) align(op string, i, n int) error {
	var pad [1]byte
	for s.stack[i].bytes%uint32(n) != 0 {
		if err := s.fill(op, pad[:]); err != nil {
			return err
		}
		if s.strictPad && pad[0] != 0 {
			return s.fail(op, ErrFormat, fmt.Errorf("%w: 0x%02x", errNonZeroPad, pad[0]))
		}
		s.stack[i].bytes++
	}
	return nil
}
