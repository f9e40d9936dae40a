package structio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/samcharles93/graft/pkg/layout"
)

// sourceOrder is the byte order a stream written under cfg uses on this host.
func sourceOrder(cfg layout.Config) binary.ByteOrder {
	big := layout.HostByteOrder() == layout.BigEndian
	if cfg.ReverseBytes {
		big = !big
	}
	if big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// streamBuilder emits bytes the way a program built with cfg would.
type streamBuilder struct {
	cfg layout.Config
	buf bytes.Buffer
}

func (b *streamBuilder) int(v uint32, w Width) *streamBuilder {
	var tmp [4]byte
	order := sourceOrder(b.cfg)
	switch w {
	case W1:
		tmp[0] = byte(v)
	case W2:
		order.PutUint16(tmp[:], uint16(v))
	case W4:
		order.PutUint32(tmp[:], v)
	}
	b.buf.Write(tmp[:w])
	return b
}

func (b *streamBuilder) raw(p ...byte) *streamBuilder {
	b.buf.Write(p)
	return b
}

func (b *streamBuilder) pad(n int) *streamBuilder {
	b.buf.Write(make([]byte, n))
	return b
}

func (b *streamBuilder) data() []byte {
	return b.buf.Bytes()
}

// bitPacker packs bitfields into units the way the decoder unpacks them.
type bitPacker struct {
	unitBits uint
	msb      bool
	span     bool
	units    []uint32
	cur      uint32
	used     uint
}

func newBitPacker(cfg layout.Config) *bitPacker {
	return &bitPacker{unitBits: cfg.FieldUnitBits(), msb: cfg.FieldMSBFirst, span: cfg.FieldSpan}
}

func lowBits(v uint32, n uint) uint32 {
	return v & (uint32(1)<<n - 1)
}

func (p *bitPacker) put(v uint32, n uint) {
	if p.used+n > p.unitBits {
		if p.span && p.used > 0 {
			first := p.unitBits - p.used
			second := n - first
			if p.msb {
				p.put(v>>second, first)
				p.put(lowBits(v, second), second)
			} else {
				p.put(lowBits(v, first), first)
				p.put(v>>first, second)
			}
			return
		}
		p.flush()
	}
	if p.msb {
		p.cur |= lowBits(v, n) << (p.unitBits - p.used - n)
	} else {
		p.cur |= lowBits(v, n) << p.used
	}
	p.used += n
	if p.used == p.unitBits {
		p.flush()
	}
}

func (p *bitPacker) flush() {
	if p.used == 0 {
		return
	}
	p.units = append(p.units, p.cur)
	p.cur, p.used = 0, 0
}

func (p *bitPacker) write(b *streamBuilder, unit Width) {
	p.flush()
	for _, u := range p.units {
		b.int(u, unit)
	}
}

func newSession(t *testing.T, cfg layout.Config, data []byte, opts ...Option) *Session {
	t.Helper()
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if data != nil {
		if err := s.OpenReader(bytes.NewReader(data), "test"); err != nil {
			t.Fatalf("OpenReader: %v", err)
		}
	}
	return s
}

func mustStart(t *testing.T, s *Session, parent Struct, bitfields bool, widest Width) Struct {
	t.Helper()
	h, err := s.StartStruct(parent, bitfields, widest)
	if err != nil {
		t.Fatalf("StartStruct: %v", err)
	}
	return h
}

func mustEnd(t *testing.T, s *Session, h Struct) uint32 {
	t.Helper()
	n, err := s.EndStruct(h)
	if err != nil {
		t.Fatalf("EndStruct: %v", err)
	}
	return n
}

func mustBits(t *testing.T, s *Session, h Struct, n uint) uint32 {
	t.Helper()
	v, err := s.ReadBits(h, n)
	if err != nil {
		t.Fatalf("ReadBits(%d): %v", n, err)
	}
	return v
}

func mustInt(t *testing.T, s *Session, target, source Width, h Struct) Value {
	t.Helper()
	v, err := s.ReadInt(target, source, h)
	if err != nil {
		t.Fatalf("ReadInt(%d, %d): %v", target, source, err)
	}
	return v
}
