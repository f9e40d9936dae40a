package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/graft/pkg/structio"
)

// Entry is one decoded field or sequence item.
type Entry struct {
	Name  string
	Value any
}

// Values is an ordered set of decoded fields. It marshals to a JSON object
// that keeps declaration order.
type Values []Entry

// Get returns the value of the named field.
func (v Values) Get(name string) (any, bool) {
	for _, e := range v {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", e.Name, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode reads one top-level record from sess.
func (s *Schema) Decode(sess *structio.Session, name string) (Values, error) {
	r, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown record %q", ErrInvalidSchema, name)
	}
	return s.decodeRecord(sess, structio.NoStruct, r, name)
}

// Size reports the encoded size of a record by decoding it in sizing mode.
func (s *Schema) Size(sess *structio.Session, name string) (uint32, error) {
	if err := sess.StartCount(); err != nil {
		return 0, err
	}
	if _, err := s.Decode(sess, name); err != nil {
		_, _ = sess.GetCount()
		return 0, err
	}
	return sess.GetCount()
}

// DecodeStream decodes the file's sequence and checks that the input ends
// exactly after it. Repeated items decode to a list.
func (s *Schema) DecodeStream(sess *structio.Session) (Values, error) {
	if len(s.sequence) == 0 {
		return nil, fmt.Errorf("%w: schema declares no sequence", ErrInvalidSchema)
	}
	out := make(Values, 0, len(s.sequence))
	for _, it := range s.sequence {
		if it.Repeat == 0 {
			v, err := s.Decode(sess, it.Record)
			if err != nil {
				return nil, err
			}
			out = append(out, Entry{Name: it.Record, Value: v})
			continue
		}
		list := make([]any, 0, it.Repeat)
		for i := range it.Repeat {
			v, err := s.decodeRecord(sess, structio.NoStruct, s.records[it.Record], it.Record+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		out = append(out, Entry{Name: it.Record, Value: list})
	}
	if err := sess.VerifyExhausted(); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldError locates a decode failure within the schema.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(path string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	return &FieldError{Path: path, Err: err}
}

func (s *Schema) decodeRecord(sess *structio.Session, parent structio.Struct, r *Record, path string) (Values, error) {
	hasBits, widest, err := s.shape(r, sess.Config())
	if err != nil {
		return nil, fieldErr(path, err)
	}
	st, err := sess.StartStruct(parent, hasBits, structio.Width(widest))
	if err != nil {
		return nil, fieldErr(path, err)
	}

	out := make(Values, 0, len(r.Fields))
	for _, f := range r.Fields {
		fpath := path + "." + f.Name
		v, err := s.decodeField(sess, st, f, fpath)
		if err != nil {
			return nil, fieldErr(fpath, err)
		}
		out = append(out, Entry{Name: f.Name, Value: v})
	}

	if _, err := sess.EndStruct(st); err != nil {
		return nil, fieldErr(path, err)
	}
	return out, nil
}

func (s *Schema) decodeField(sess *structio.Session, st structio.Struct, f Field, path string) (any, error) {
	switch f.Type {
	case Bits:
		return sess.ReadBits(st, f.Bits)
	case String, Bytes:
		raw, err := sess.ReadRaw(structio.W1, f.Count, st)
		if err != nil {
			return nil, err
		}
		if f.Type == Bytes {
			return raw, nil
		}
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		return string(raw), nil
	}

	if f.Count <= 1 {
		return s.decodeOne(sess, st, f, path)
	}
	list := make([]any, 0, f.Count)
	for i := range f.Count {
		v, err := s.decodeOne(sess, st, f, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

func (s *Schema) decodeOne(sess *structio.Session, st structio.Struct, f Field, path string) (any, error) {
	if f.Type == Struct {
		return s.decodeRecord(sess, st, s.records[f.Record], path)
	}

	w := structio.Width(sourceWidth(f.Type, sess.Config()))
	switch f.Type {
	case Char, Short, Int, Long:
		// Signed values are sign-extended from their width in the stream.
		v, err := sess.ReadInt(w, w, st)
		if err != nil {
			return nil, err
		}
		return v.Int(), nil
	default:
		v, err := sess.ReadInt(structio.W4, w, st)
		if err != nil {
			return nil, err
		}
		return v.Uint32(), nil
	}
}
