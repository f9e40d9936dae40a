package structio

import (
	"errors"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by a Session matches exactly one of them
// with errors.Is.
var (
	// ErrConfig reports layout parameters outside their domain, or a nested
	// struct whose alignment exceeds its parent's.
	ErrConfig = errors.New("configuration error")
	// ErrIO reports a failure to open or read the input other than end of stream.
	ErrIO = errors.New("i/o error")
	// ErrFormat reports input that does not fit the layout: a short stream,
	// trailing bytes, or a stream that ends inside a zero run.
	ErrFormat = errors.New("format error")
	// ErrContract reports caller misuse of the session API.
	ErrContract = errors.New("contract violation")
)

// Error describes a failed session operation.
type Error struct {
	Op     string // operation, e.g. "read_int"
	Kind   error  // one of ErrConfig, ErrIO, ErrFormat, ErrContract
	Path   string // input name, if known
	Offset int64  // raw input offset, or -1
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("structio: ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.Error())
	}
	if e.Offset >= 0 {
		b.WriteString(" (offset ")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var (
	errTrailingData  = errors.New("trailing data after last struct")
	errMidZeroRun    = errors.New("stream ends mid zero-run")
	errShortStream   = errors.New("unexpected end of stream")
	errNonZeroPad    = errors.New("non-zero struct padding")
	errNoStream      = errors.New("no open stream")
	errStreamOpen    = errors.New("a stream is already open")
	errCountNested   = errors.New("sizing mode already active")
	errCountInactive = errors.New("sizing mode not active")
)
