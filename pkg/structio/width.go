package structio

import (
	"encoding/binary"
	"math/bits"

	"github.com/samcharles93/graft/pkg/layout"
)

// Width is the size in bytes of an integer or a bitfield unit.
type Width uint8

const (
	W1 Width = 1
	W2 Width = 2
	W4 Width = 4
)

// Valid reports whether w is one of the supported widths.
func (w Width) Valid() bool {
	return w == W1 || w == W2 || w == W4
}

// Bits is the width in bits.
func (w Width) Bits() uint {
	return uint(w) * 8
}

// Value is an integer read at a caller-chosen target width. The source bytes
// are zero-extended; signed accessors reinterpret the target-width pattern.
type Value struct {
	Width Width
	raw   uint32
}

func (v Value) Uint8() uint8   { return uint8(v.raw) }
func (v Value) Uint16() uint16 { return uint16(v.raw) }
func (v Value) Uint32() uint32 { return v.raw }
func (v Value) Int8() int8     { return int8(v.raw) }
func (v Value) Int16() int16   { return int16(v.raw) }
func (v Value) Int32() int32   { return int32(v.raw) }

// Int sign-extends from the target width.
func (v Value) Int() int64 {
	switch v.Width {
	case W1:
		return int64(v.Int8())
	case W2:
		return int64(v.Int16())
	default:
		return int64(v.Int32())
	}
}

// swap reverses the byte order of the low w bytes of v.
func swap(v uint32, w Width) uint32 {
	switch w {
	case W2:
		return uint32(bits.ReverseBytes16(uint16(v)))
	case W4:
		return bits.ReverseBytes32(v)
	default:
		return v
	}
}

var hostOrder binary.ByteOrder = binary.LittleEndian

func init() {
	if layout.HostByteOrder() == layout.BigEndian {
		hostOrder = binary.BigEndian
	}
}

// decodeHost interprets b as a host-order integer of len(b) bytes.
func decodeHost(b []byte) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(hostOrder.Uint16(b))
	default:
		return hostOrder.Uint32(b)
	}
}
