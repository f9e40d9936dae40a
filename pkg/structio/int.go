package structio

import "fmt"

// ReadRaw reads count items of width bytes. Inside a struct the pending
// bitfield unit is drained and the member is aligned first.
func (s *Session) ReadRaw(width Width, count int, h Struct) ([]byte, error) {
	const op = "read_raw"
	if !width.Valid() {
		return nil, s.fail(op, ErrContract, errBadWidth)
	}
	if count <= 0 {
		return nil, s.fail(op, ErrContract, fmt.Errorf("item count %d", count))
	}
	i := -1
	if h != NoStruct {
		var err error
		if i, err = s.index(op, h); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, int(width)*count)
	if err := s.readRaw(op, buf, width, i); err != nil {
		return nil, err
	}
	return buf, nil
}

// readRaw charges len(buf) bytes of width-sized members to frame i (or to
// nothing when i < 0) and fills buf.
func (s *Session) readRaw(op string, buf []byte, width Width, i int) error {
	if i >= 0 {
		if err := s.drain(op, i); err != nil {
			return err
		}
		if err := s.align(op, i, s.cfg.MemberAlignment(int(width))); err != nil {
			return err
		}
		s.stack[i].bytes += uint32(len(buf))
	}
	return s.fill(op, buf)
}

// ReadInt reads a source-width integer, corrects its byte order and widens
// it to the target width.
func (s *Session) ReadInt(target, source Width, h Struct) (Value, error) {
	const op = "read_int"
	if !target.Valid() || !source.Valid() {
		return Value{}, s.fail(op, ErrContract, errBadWidth)
	}
	if target < source {
		return Value{}, s.fail(op, ErrContract, fmt.Errorf("target width %d narrower than source width %d", target, source))
	}
	i := -1
	if h != NoStruct {
		var err error
		if i, err = s.index(op, h); err != nil {
			return Value{}, err
		}
	}
	return s.readInt(op, target, source, i)
}

func (s *Session) readInt(op string, target, source Width, i int) (Value, error) {
	var buf [4]byte
	b := buf[:source]
	if err := s.readRaw(op, b, source, i); err != nil {
		return Value{}, err
	}
	v := decodeHost(b)
	if s.cfg.ReverseBytes {
		v = swap(v, source)
	}
	return Value{Width: target, raw: v}, nil
}
