package structio

import "fmt"

// ReadBits reads a width-bit bitfield member of h.
//
// A unit is refilled when fewer than width bits remain. With FieldSpan the
// remaining bits are used first and the rest come from the next unit;
// without it the leftover bits are discarded.
func (s *Session) ReadBits(h Struct, width uint) (uint32, error) {
	const op = "read_bits"
	i, err := s.index(op, h)
	if err != nil {
		return 0, err
	}
	if width == 0 || width > s.cfg.FieldUnitBits() {
		return 0, s.fail(op, ErrContract, fmt.Errorf("%w: %d bits in a %d-bit unit", errBadBitWidth, width, s.cfg.FieldUnitBits()))
	}
	return s.readBits(op, i, width)
}

func (s *Session) readBits(op string, i int, n uint) (uint32, error) {
	f := &s.stack[i]
	unit := s.cfg.FieldUnitBits()

	var spanned uint
	if f.bits < n {
		if f.bits > 0 && s.cfg.FieldSpan {
			spanned = n - f.bits
			n = f.bits
		} else if err := s.refill(op, i); err != nil {
			return 0, err
		}
	}

	var shift uint
	if s.cfg.FieldMSBFirst {
		shift = f.bits - n
	} else {
		shift = unit - f.bits
	}
	v := (f.buf >> shift) & (uint32(1)<<n - 1)
	f.bits -= n

	if spanned == 0 {
		return v, nil
	}

	// f.bits is now zero, so this refills and cannot span again.
	rest, err := s.readBits(op, i, spanned)
	if err != nil {
		return 0, err
	}
	if s.cfg.FieldMSBFirst {
		return v<<spanned | rest, nil
	}
	return rest<<n | v, nil
}

// refill loads the next bitfield unit of frame i, discarding what is left
// of the current one.
func (s *Session) refill(op string, i int) error {
	v, err := s.readInt(op, W4, Width(s.cfg.FieldUnitWidth), i)
	if err != nil {
		return err
	}
	f := &s.stack[i]
	f.buf = v.Uint32()
	f.bits = s.cfg.FieldUnitBits()
	return nil
}

// drain consumes whatever is left of frame i's bitfield unit.
func (s *Session) drain(op string, i int) error {
	if n := s.stack[i].bits; n > 0 {
		_, err := s.readBits(op, i, n)
		return err
	}
	return nil
}
