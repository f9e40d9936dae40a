package structio

import (
	"errors"
	"testing"

	"github.com/samcharles93/graft/pkg/layout"
)

func TestSwapRoundTrip(t *testing.T) {
	t.Parallel()
	for _, v := range []uint32{0, 1, 0x1234, 0xff00, 0xbeef} {
		if got := swap(swap(v, W2), W2); got != v {
			t.Errorf("16-bit %#x: got %#x", v, got)
		}
	}
	for _, v := range []uint32{0, 1, 0x12345678, 0xff000000, 0xdeadbeef} {
		if got := swap(swap(v, W4), W4); got != v {
			t.Errorf("32-bit %#x: got %#x", v, got)
		}
	}
	if swap(0x1234, W2) != 0x3412 || swap(0x12345678, W4) != 0x78563412 {
		t.Fatal("swap does not reverse bytes")
	}
	if swap(0xab, W1) != 0xab {
		t.Fatal("1-byte swap must be identity")
	}
}

func TestReadIntByteOrder(t *testing.T) {
	t.Parallel()

	for _, reverse := range []bool{false, true} {
		cfg := layout.Default()
		cfg.ReverseBytes = reverse
		b := &streamBuilder{cfg: cfg}
		b.int(0x7f, W1).int(0x1234, W2).int(0x89abcdef, W4)

		s := newSession(t, cfg, b.data())
		if v := mustInt(t, s, W1, W1, NoStruct); v.Uint8() != 0x7f {
			t.Errorf("reverse=%t byte: got %#x", reverse, v.Uint8())
		}
		if v := mustInt(t, s, W2, W2, NoStruct); v.Uint16() != 0x1234 {
			t.Errorf("reverse=%t short: got %#x", reverse, v.Uint16())
		}
		if v := mustInt(t, s, W4, W4, NoStruct); v.Uint32() != 0x89abcdef {
			t.Errorf("reverse=%t long: got %#x", reverse, v.Uint32())
		}
	}
}

func TestReadIntFixedBytes(t *testing.T) {
	t.Parallel()

	// The same two bytes decode differently depending on ReverseBytes; the
	// source order is whichever one the config implies on this host.
	data := []byte{0x12, 0x34}
	for _, reverse := range []bool{false, true} {
		cfg := layout.Default()
		cfg.ReverseBytes = reverse
		s := newSession(t, cfg, data)
		want := sourceOrder(cfg).Uint16(data)
		if v := mustInt(t, s, W2, W2, NoStruct); v.Uint16() != want {
			t.Errorf("reverse=%t: got %#x, want %#x", reverse, v.Uint16(), want)
		}
	}
}

func TestReadIntWidens(t *testing.T) {
	t.Parallel()

	cfg := layout.Default()
	b := &streamBuilder{cfg: cfg}
	b.int(0xfffe, W2).int(0x80, W1)

	s := newSession(t, cfg, b.data())
	v := mustInt(t, s, W4, W2, NoStruct)
	if v.Width != W4 || v.Uint32() != 0xfffe {
		t.Fatalf("widened short: width %d value %#x", v.Width, v.Uint32())
	}
	if v.Int() != 0xfffe {
		t.Fatalf("zero-extension lost: Int()=%d", v.Int())
	}
	c := mustInt(t, s, W1, W1, NoStruct)
	if c.Int() != -128 || c.Int8() != -128 {
		t.Fatalf("signed char: got %d", c.Int())
	}

	if _, err := s.ReadInt(W1, W2, NoStruct); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract narrowing, got %v", err)
	}
	if _, err := s.ReadInt(Width(3), W1, NoStruct); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for width 3, got %v", err)
	}
}

func TestIntSourceWidthFromLayout(t *testing.T) {
	t.Parallel()

	// A 16-bit platform int read into a 32-bit caller int.
	cfg := layout.Default()
	cfg.IntWidth = 2
	cfg.MemberAlign = 2
	b := &streamBuilder{cfg: cfg}
	b.int(1, W1).pad(1).int(300, W2)

	s := newSession(t, cfg, b.data())
	h := mustStart(t, s, NoStruct, false, Width(cfg.IntWidth))
	mustInt(t, s, W1, W1, h)
	if v := mustInt(t, s, W4, Width(cfg.IntWidth), h); v.Uint32() != 300 {
		t.Fatalf("int: got %d", v.Uint32())
	}
	if n := mustEnd(t, s, h); n != 4 {
		t.Fatalf("size: got %d, want 4", n)
	}
}
