package structio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samcharles93/graft/pkg/layout"
)

func bitConfig(unit int, msb, span bool) layout.Config {
	cfg := layout.Default()
	cfg.FieldUnitWidth = unit
	cfg.FieldMSBFirst = msb
	cfg.FieldSpan = span
	return cfg
}

func TestReadBitsHandPacked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    layout.Config
		data   []byte
		widths []uint
		want   []uint32
	}{
		// 0xAC = 101 01100
		{"msb byte", bitConfig(1, true, false), []byte{0xac}, []uint{3, 5}, []uint32{5, 12}},
		// 0xAC = 10101 100
		{"lsb byte", bitConfig(1, false, false), []byte{0xac}, []uint{3, 5}, []uint32{4, 21}},
		// 0xAB = 10101 011, 0xCD = 110 01101
		{"msb span", bitConfig(1, true, true), []byte{0xab, 0xcd}, []uint{5, 6}, []uint32{21, 3<<3 | 6}},
		// 0xAB = 101 01011, 0xCD = 11001 101
		{"lsb span", bitConfig(1, false, true), []byte{0xab, 0xcd}, []uint{5, 6}, []uint32{11, 5<<3 | 5}},
		// without spanning the 6-bit field starts the second unit
		{"msb no span", bitConfig(1, true, false), []byte{0xab, 0xcd}, []uint{5, 6}, []uint32{21, 0xcd >> 2}},
		{"lsb no span", bitConfig(1, false, false), []byte{0xab, 0xcd}, []uint{5, 6}, []uint32{11, 0xcd & 0x3f}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession(t, tc.cfg, tc.data)
			h := mustStart(t, s, NoStruct, true, W1)
			for i, w := range tc.widths {
				if got := mustBits(t, s, h, w); got != tc.want[i] {
					t.Errorf("field %d (%d bits): got %d, want %d", i, w, got, tc.want[i])
				}
			}
			if n := mustEnd(t, s, h); n != uint32(len(tc.data)) {
				t.Errorf("size: got %d, want %d", n, len(tc.data))
			}
			if err := s.VerifyExhausted(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func roundTrip(t *testing.T, cfg layout.Config, widths []uint, values []uint32) uint32 {
	t.Helper()

	p := newBitPacker(cfg)
	for i, w := range widths {
		p.put(values[i], w)
	}
	b := &streamBuilder{cfg: cfg}
	p.write(b, Width(cfg.FieldUnitWidth))

	s := newSession(t, cfg, b.data())
	h := mustStart(t, s, NoStruct, true, W1)
	for i, w := range widths {
		if got := mustBits(t, s, h, w); got != values[i] {
			t.Errorf("field %d (%d bits): got %#x, want %#x", i, w, got, values[i])
		}
	}
	size := mustEnd(t, s, h)
	if err := s.VerifyExhausted(); err != nil {
		t.Fatalf("VerifyExhausted: %v", err)
	}
	return size
}

func TestBitfieldRoundTripNoSpan(t *testing.T) {
	t.Parallel()

	// 3+5 fill the first 8-bit unit; the 8-bit field takes a fresh unit.
	cfg := bitConfig(1, true, false)
	size := roundTrip(t, cfg, []uint{3, 5, 8}, []uint32{0b101, 0b10011, 0xa5})
	if size != 2 {
		t.Fatalf("size: got %d, want 2", size)
	}

	// An 8-bit field never shares a unit with 7 used bits.
	cfg.FieldMSBFirst = false
	if size := roundTrip(t, cfg, []uint{3, 4, 8}, []uint32{6, 9, 0x3c}); size != 2 {
		t.Fatalf("size: got %d, want 2", size)
	}
}

func TestBitfieldRoundTripSpan(t *testing.T) {
	t.Parallel()

	for _, msb := range []bool{true, false} {
		t.Run(fmt.Sprintf("msb=%t", msb), func(t *testing.T) {
			cfg := bitConfig(1, msb, true)
			size := roundTrip(t, cfg, []uint{5, 6}, []uint32{0b10110, 0b101101})
			if size != 2 {
				t.Fatalf("size: got %d, want 2", size)
			}
		})
	}
}

func TestBitfieldRoundTripWideUnits(t *testing.T) {
	t.Parallel()

	widths := []uint{1, 7, 12, 3, 16, 9, 32, 5}
	values := []uint32{1, 0x55, 0xabc, 5, 0xbeef, 0x1ff, 0xdeadbeef, 0x11}
	for _, unit := range []int{2, 4} {
		for _, msb := range []bool{true, false} {
			for _, span := range []bool{true, false} {
				for _, reverse := range []bool{true, false} {
					name := fmt.Sprintf("unit=%d/msb=%t/span=%t/reverse=%t", unit, msb, span, reverse)
					t.Run(name, func(t *testing.T) {
						cfg := bitConfig(unit, msb, span)
						cfg.ReverseBytes = reverse
						var ws []uint
						var vs []uint32
						for i, w := range widths {
							if w <= cfg.FieldUnitBits() {
								ws = append(ws, w)
								vs = append(vs, values[i])
							}
						}
						roundTrip(t, cfg, ws, vs)
					})
				}
			}
		}
	}
}

func TestMemberReadDrainsBitfield(t *testing.T) {
	t.Parallel()

	// struct { unsigned a:3; short s; } with 16-bit units: the short starts
	// after the whole unit.
	cfg := bitConfig(2, false, false)
	b := &streamBuilder{cfg: cfg}
	b.int(0b110, W2).int(0x4242, W2)

	s := newSession(t, cfg, b.data())
	h := mustStart(t, s, NoStruct, true, W2)
	if v := mustBits(t, s, h, 3); v != 6 {
		t.Fatalf("bitfield: got %d", v)
	}
	if v := mustInt(t, s, W2, W2, h); v.Uint16() != 0x4242 {
		t.Fatalf("short: got %#x", v.Uint16())
	}
	if n := mustEnd(t, s, h); n != 4 {
		t.Fatalf("size: got %d, want 4", n)
	}
}

func TestBitfieldStructAlignsToUnit(t *testing.T) {
	t.Parallel()

	// struct { char c; struct { unsigned f:1; } b; } with 32-bit units and
	// member_align=4: the inner struct aligns to 4.
	cfg := bitConfig(4, false, false)
	b := &streamBuilder{cfg: cfg}
	b.int(7, W1).pad(3).int(1, W4)

	s := newSession(t, cfg, b.data())
	outer := mustStart(t, s, NoStruct, true, W1)
	mustInt(t, s, W1, W1, outer)
	inner := mustStart(t, s, outer, true, W1)
	if v := mustBits(t, s, inner, 1); v != 1 {
		t.Fatalf("flag: got %d", v)
	}
	if n := mustEnd(t, s, inner); n != 4 {
		t.Fatalf("inner size: got %d, want 4", n)
	}
	if n := mustEnd(t, s, outer); n != 8 {
		t.Fatalf("outer size: got %d, want 8", n)
	}
}

func TestReadBitsContract(t *testing.T) {
	t.Parallel()

	s := newSession(t, bitConfig(1, true, false), []byte{0, 0})
	if _, err := s.ReadBits(NoStruct, 1); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract outside a struct, got %v", err)
	}
	h := mustStart(t, s, NoStruct, true, W1)
	if _, err := s.ReadBits(h, 9); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for 9 bits in 8-bit unit, got %v", err)
	}
	if _, err := s.ReadBits(h, 0); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for zero width, got %v", err)
	}
}
