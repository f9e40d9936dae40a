// Package schema interprets declarative C struct descriptions against a
// structio.Session.
//
// A schema file lists named records; each record is a sequence of fields in
// declaration order. Decoding a record issues exactly the StartStruct, read
// and EndStruct calls a hand-written reader for that struct would issue.
//
//	records:
//	  - name: coord
//	    fields:
//	      - {name: x, type: char}
//	      - {name: y, type: char}
//	  - name: trap
//	    fields:
//	      - {name: ntrap, type: pointer}
//	      - {name: pos, type: struct, record: coord}
//	      - {name: ttyp, type: bits, bits: 5}
//	      - {name: tseen, type: bits, bits: 1}
//	sequence:
//	  - {record: trap, repeat: 2}
package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/graft/pkg/layout"
)

// ErrInvalidSchema is wrapped by every schema validation failure.
var ErrInvalidSchema = errors.New("invalid schema")

// Type names a field's C type.
type Type string

const (
	Char    Type = "char"
	UChar   Type = "uchar"
	Short   Type = "short"
	UShort  Type = "ushort"
	Int     Type = "int"
	UInt    Type = "uint"
	Long    Type = "long"
	ULong   Type = "ulong"
	Pointer Type = "pointer"
	Bits    Type = "bits"
	String  Type = "string" // char[count], NUL terminated
	Bytes   Type = "bytes"  // raw char[count]
	Struct  Type = "struct"
)

type Field struct {
	Name   string `yaml:"name" json:"name"`
	Type   Type   `yaml:"type" json:"type"`
	Bits   uint   `yaml:"bits,omitempty" json:"bits,omitempty"`
	Count  int    `yaml:"count,omitempty" json:"count,omitempty"`
	Record string `yaml:"record,omitempty" json:"record,omitempty"`
}

type Record struct {
	Name string `yaml:"name" json:"name"`
	// Align overrides the widest-member width used to derive the alignment.
	Align  int     `yaml:"align,omitempty" json:"align,omitempty"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Item is one entry of a stream sequence.
type Item struct {
	Record string `yaml:"record" json:"record"`
	Repeat int    `yaml:"repeat,omitempty" json:"repeat,omitempty"`
}

// File is the on-disk form of a schema.
type File struct {
	Records  []Record `yaml:"records" json:"records"`
	Sequence []Item   `yaml:"sequence,omitempty" json:"sequence,omitempty"`
}

// Schema is a validated File.
type Schema struct {
	records  map[string]*Record
	order    []string
	sequence []Item
}

// Load reads a schema from a .json, .yaml or .yml file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a schema in the given format ("json" or "yaml").
func Parse(data []byte, format string) (*Schema, error) {
	var f File
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &f)
	case "yaml", "":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidSchema, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return New(f)
}

// New validates f: field types, bit widths, record references, and the
// absence of recursive nesting.
func New(f File) (*Schema, error) {
	s := &Schema{records: make(map[string]*Record, len(f.Records))}
	for i := range f.Records {
		r := &f.Records[i]
		if r.Name == "" {
			return nil, fmt.Errorf("%w: record %d has no name", ErrInvalidSchema, i)
		}
		if _, dup := s.records[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate record %q", ErrInvalidSchema, r.Name)
		}
		s.records[r.Name] = r
		s.order = append(s.order, r.Name)
	}
	for _, name := range s.order {
		if err := s.checkRecord(s.records[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range s.order {
		if err := s.checkCycle(name, nil); err != nil {
			return nil, err
		}
	}
	for _, it := range f.Sequence {
		if _, ok := s.records[it.Record]; !ok {
			return nil, fmt.Errorf("%w: sequence names unknown record %q", ErrInvalidSchema, it.Record)
		}
		if it.Repeat < 0 {
			return nil, fmt.Errorf("%w: sequence item %q has negative repeat", ErrInvalidSchema, it.Record)
		}
	}
	s.sequence = f.Sequence
	return s, nil
}

func (s *Schema) checkRecord(r *Record) error {
	if r.Align != 0 && r.Align != 1 && r.Align != 2 && r.Align != 4 {
		return fmt.Errorf("%w: record %q: align %d", ErrInvalidSchema, r.Name, r.Align)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("%w: record %q has no fields", ErrInvalidSchema, r.Name)
	}
	for _, f := range r.Fields {
		where := r.Name + "." + f.Name
		if f.Name == "" {
			return fmt.Errorf("%w: record %q has an unnamed field", ErrInvalidSchema, r.Name)
		}
		if f.Count < 0 {
			return fmt.Errorf("%w: %s: negative count", ErrInvalidSchema, where)
		}
		switch f.Type {
		case Char, UChar, Short, UShort, Int, UInt, Long, ULong, Pointer:
		case Bits:
			if f.Bits == 0 || f.Bits > 32 {
				return fmt.Errorf("%w: %s: bits must be 1..32", ErrInvalidSchema, where)
			}
			if f.Count > 1 {
				return fmt.Errorf("%w: %s: bitfields cannot be arrays", ErrInvalidSchema, where)
			}
		case String, Bytes:
			if f.Count < 1 {
				return fmt.Errorf("%w: %s: %s needs a count", ErrInvalidSchema, where, f.Type)
			}
		case Struct:
			if _, ok := s.records[f.Record]; !ok {
				return fmt.Errorf("%w: %s: unknown record %q", ErrInvalidSchema, where, f.Record)
			}
		default:
			return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidSchema, where, f.Type)
		}
	}
	return nil
}

func (s *Schema) checkCycle(name string, seen []string) error {
	for _, n := range seen {
		if n == name {
			return fmt.Errorf("%w: record %q contains itself via %s", ErrInvalidSchema, name, strings.Join(append(seen, name), " -> "))
		}
	}
	seen = append(seen, name)
	for _, f := range s.records[name].Fields {
		if f.Type == Struct {
			if err := s.checkCycle(f.Record, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// Records returns record names in file order.
func (s *Schema) Records() []string {
	return append([]string(nil), s.order...)
}

// Sequence returns the stream sequence, if the file declared one.
func (s *Schema) Sequence() []Item {
	return append([]Item(nil), s.sequence...)
}

// Record looks up a record by name.
func (s *Schema) Record(name string) (*Record, bool) {
	r, ok := s.records[name]
	return r, ok
}

// sourceWidth is the number of bytes a scalar field occupies in the stream.
func sourceWidth(t Type, cfg layout.Config) int {
	switch t {
	case Char, UChar, String, Bytes:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt:
		return cfg.IntWidth
	case Pointer:
		return cfg.PointerWidth
	default:
		return 4
	}
}

// shape returns whether r has bitfields and the width its alignment derives from.
func (s *Schema) shape(r *Record, cfg layout.Config) (bool, int, error) {
	hasBits := false
	widest := 1
	for _, f := range r.Fields {
		switch f.Type {
		case Bits:
			hasBits = true
		case Struct:
			align, err := s.alignment(s.records[f.Record], cfg)
			if err != nil {
				return false, 0, err
			}
			widest = max(widest, align)
		default:
			widest = max(widest, sourceWidth(f.Type, cfg))
		}
	}
	if r.Align != 0 {
		widest = r.Align
	}
	return hasBits, widest, nil
}

// alignment is the struct alignment of r under cfg.
func (s *Schema) alignment(r *Record, cfg layout.Config) (int, error) {
	hasBits, widest, err := s.shape(r, cfg)
	if err != nil {
		return 0, err
	}
	return cfg.StructAlignment(hasBits, widest)
}
