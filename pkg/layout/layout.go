// Package layout describes the struct-layout rules of a source platform:
// integer and pointer widths, member and struct alignment, bitfield unit
// packing, byte order and the optional zero-run compression of the stream.
//
// A Config carries no behaviour beyond validation and the alignment rule
// every decoder must agree on; it is built once and treated as immutable.
package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid layout config")

// Config is the complete set of layout parameters for one source platform.
type Config struct {
	// ReverseBytes is set when the source byte order differs from the host's.
	ReverseBytes bool `yaml:"reverse_bytes" json:"reverse_bytes"`

	IntWidth       int `yaml:"int_width" json:"int_width"`
	PointerWidth   int `yaml:"pointer_width" json:"pointer_width"`
	FieldUnitWidth int `yaml:"field_unit_width" json:"field_unit_width"`

	// MemberAlign caps the alignment of any member.
	MemberAlign int `yaml:"member_align" json:"member_align"`
	// StructAlign applies to structs without bitfields; 0 derives it from members.
	StructAlign int `yaml:"struct_align" json:"struct_align"`
	// FieldAlign applies to structs that contain bitfields.
	FieldAlign int `yaml:"field_align" json:"field_align"`

	FieldMSBFirst bool `yaml:"field_msb_first" json:"field_msb_first"`
	FieldSpan     bool `yaml:"field_span" json:"field_span"`
	ZeroCompress  bool `yaml:"zero_compress" json:"zero_compress"`
}

// Default returns the layout of a 32-bit little-endian host with 16-bit
// bitfield units and no compression.
func Default() Config {
	return Config{
		IntWidth:       4,
		PointerWidth:   4,
		FieldUnitWidth: 2,
		MemberAlign:    4,
	}
}

func validWidth(n int) bool {
	return n == 1 || n == 2 || n == 4
}

func validOptionalAlign(n int) bool {
	return n == 0 || validWidth(n)
}

// Validate checks every field against its accepted domain.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, field string, v int, domain string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s=%d, want one of %s", ErrInvalidConfig, field, v, domain))
		}
	}
	check(validWidth(c.IntWidth), "int_width", c.IntWidth, "1,2,4")
	check(validWidth(c.PointerWidth), "pointer_width", c.PointerWidth, "1,2,4")
	check(validWidth(c.FieldUnitWidth), "field_unit_width", c.FieldUnitWidth, "1,2,4")
	check(validWidth(c.MemberAlign), "member_align", c.MemberAlign, "1,2,4")
	check(validOptionalAlign(c.StructAlign), "struct_align", c.StructAlign, "0,1,2,4")
	check(validOptionalAlign(c.FieldAlign), "field_align", c.FieldAlign, "0,1,2,4")
	return errors.Join(errs...)
}

// FieldUnitBits is the number of bits in one bitfield storage unit.
func (c Config) FieldUnitBits() uint {
	return uint(c.FieldUnitWidth) * 8
}

// MemberAlignment is the padding boundary of a scalar member of the given width.
func (c Config) MemberAlignment(width int) int {
	return min(width, c.MemberAlign)
}

// StructAlignment computes the alignment of a struct whose widest member is
// maxMember bytes. A struct with bitfields is first widened to the bitfield
// unit, then every struct is capped by MemberAlign before StructAlign or
// FieldAlign apply.
func (c Config) StructAlignment(hasBitfields bool, maxMember int) (int, error) {
	if !validWidth(maxMember) {
		return 0, fmt.Errorf("%w: max member width %d, want one of 1,2,4", ErrInvalidConfig, maxMember)
	}

	bound := maxMember
	if hasBitfields && c.FieldUnitWidth > bound {
		bound = c.FieldUnitWidth
	}
	bound = min(bound, c.MemberAlign)

	var align int
	switch {
	case hasBitfields:
		align = max(c.FieldAlign, bound)
	case c.StructAlign != 0:
		align = min(c.StructAlign, bound)
	default:
		align = bound
	}

	if !validWidth(align) {
		return 0, fmt.Errorf("%w: derived struct alignment %d, want one of 1,2,4", ErrInvalidConfig, align)
	}
	return align, nil
}

func (c Config) String() string {
	order := "native"
	if c.ReverseBytes {
		order = "reversed"
	}
	bits := "lsb"
	if c.FieldMSBFirst {
		bits = "msb"
	}
	return fmt.Sprintf("order=%s int=%d ptr=%d unit=%d member=%d struct=%d field=%d bits=%s span=%t zerocomp=%t",
		order, c.IntWidth, c.PointerWidth, c.FieldUnitWidth, c.MemberAlign,
		c.StructAlign, c.FieldAlign, bits, c.FieldSpan, c.ZeroCompress)
}
