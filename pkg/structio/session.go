package structio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/graft/pkg/layout"
)

// Logger receives debug events from a Session. internal/logger.Logger and
// *slog.Logger both satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStrictPadding makes alignment padding that is not zero a format
// error. By default padding is discarded unchecked, since compilers leave
// uninitialised memory there.
func WithStrictPadding() Option {
	return func(s *Session) {
		s.strictPad = true
	}
}

// Session is one decode run: the layout, at most one open stream, the stack
// of structs being decoded and the sizing-mode flag. A Session is not safe
// for concurrent use.
type Session struct {
	cfg       layout.Config
	log       Logger
	strictPad bool

	stream   *byteStream
	counting bool
	lastSize uint32
	stack    []frame

	// countBase is the stack depth at which sizing started; a sizing
	// traversal roots its structs there.
	countBase int
}

// New validates cfg and returns an idle session.
func New(cfg layout.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Op: "new", Kind: ErrConfig, Offset: -1, Err: err}
	}
	s := &Session{cfg: cfg, log: nopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the layout the session decodes with.
func (s *Session) Config() layout.Config {
	return s.cfg
}

// Open opens path for reading. Opening while another stream is open is a
// contract violation.
func (s *Session) Open(path string) error {
	if s.stream != nil {
		return s.fail("open", ErrContract, errStreamOpen)
	}
	f, err := os.Open(path)
	if err != nil {
		return &Error{Op: "open", Kind: ErrIO, Path: path, Offset: -1, Err: err}
	}
	s.attach(newByteStream(f, f, path))
	return nil
}

// OpenReader decodes from r. The session does not close r.
func (s *Session) OpenReader(r io.Reader, name string) error {
	if s.stream != nil {
		return s.fail("open", ErrContract, errStreamOpen)
	}
	s.attach(newByteStream(r, nil, name))
	return nil
}

func (s *Session) attach(bs *byteStream) {
	s.stream = bs
	s.stack = s.stack[:0]
	s.countBase = 0
	s.log.Debug("stream opened", "path", bs.name, "layout", s.cfg.String())
}

// Close releases the stream, drops any structs left open and leaves sizing
// mode, so the session can be reused after a failed decode. It is idempotent.
func (s *Session) Close() error {
	s.stack = s.stack[:0]
	s.counting = false
	s.countBase = 0
	if s.stream == nil {
		return nil
	}
	bs := s.stream
	s.stream = nil
	s.log.Debug("stream closed", "path", bs.name, "offset", bs.off)
	if err := bs.close(); err != nil {
		return &Error{Op: "close", Kind: ErrIO, Path: bs.name, Offset: bs.off, Err: err}
	}
	return nil
}

// Offset returns the number of raw bytes consumed from the open stream.
func (s *Session) Offset() int64 {
	if s.stream == nil {
		return 0
	}
	return s.stream.off
}

// PendingZeros returns the zeros still owed by the current compressed run.
func (s *Session) PendingZeros() uint8 {
	if s.stream == nil {
		return 0
	}
	return s.stream.pending
}

// VerifyExhausted succeeds only when no input remains and no zero run is
// still being expanded.
func (s *Session) VerifyExhausted() error {
	const op = "verify_exhausted"
	if s.stream == nil {
		return s.fail(op, ErrContract, errNoStream)
	}
	eof, err := s.stream.atEOF()
	if err != nil {
		return s.fail(op, ErrIO, err)
	}
	if !eof {
		return s.fail(op, ErrFormat, errTrailingData)
	}
	if s.stream.pending > 0 {
		return s.fail(op, ErrFormat, fmt.Errorf("%w: %d zeros outstanding", errMidZeroRun, s.stream.pending))
	}
	return nil
}

// StartCount enters sizing mode. Sizing sessions cannot nest, but one may
// start while structs of a real decode are open: its top-level structs are
// independent of them.
func (s *Session) StartCount() error {
	if s.counting {
		return s.fail("start_count", ErrContract, errCountNested)
	}
	s.counting = true
	s.countBase = len(s.stack)
	return nil
}

// GetCount leaves sizing mode and returns the size of the last struct ended.
// Structs the sizing traversal left open are discarded.
func (s *Session) GetCount() (uint32, error) {
	if !s.counting {
		return 0, s.fail("get_count", ErrContract, errCountInactive)
	}
	if len(s.stack) > s.countBase {
		s.stack = s.stack[:s.countBase]
	}
	s.counting = false
	s.countBase = 0
	s.log.Debug("sized struct", "bytes", s.lastSize)
	return s.lastSize, nil
}

// rootDepth is the stack depth at which a struct with no parent starts.
func (s *Session) rootDepth() int {
	if s.counting {
		return s.countBase
	}
	return 0
}

// Counting reports whether sizing mode is active.
func (s *Session) Counting() bool {
	return s.counting
}

// LastSize is the size of the most recently ended struct.
func (s *Session) LastSize() uint32 {
	return s.lastSize
}

// fill produces len(buf) decoded bytes. In sizing mode it yields zeros and
// leaves the stream and its run state untouched.
func (s *Session) fill(op string, buf []byte) error {
	if s.counting {
		clear(buf)
		return nil
	}
	if s.stream == nil {
		return s.fail(op, ErrContract, errNoStream)
	}
	for i := range buf {
		b, err := s.stream.next(s.cfg.ZeroCompress)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s.fail(op, ErrFormat, fmt.Errorf("%w: %w", errShortStream, io.ErrUnexpectedEOF))
			}
			return s.fail(op, ErrIO, err)
		}
		buf[i] = b
	}
	return nil
}

func (s *Session) fail(op string, kind, err error) error {
	e := &Error{Op: op, Kind: kind, Offset: -1, Err: err}
	if s.stream != nil {
		e.Path = s.stream.name
		if !s.counting {
			e.Offset = s.stream.off
		}
	}
	return e
}
