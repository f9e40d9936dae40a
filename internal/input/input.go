// Package input opens decoder input, undoing any whole-file compression
// applied to an archived dump before it reaches the struct decoder.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compression names a whole-stream compression format.
type Compression string

const (
	Auto Compression = "auto"
	None Compression = "none"
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
	S2   Compression = "s2"
)

var ErrUnknownCompression = errors.New("unknown compression")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	s2Magic   = []byte("\xff\x06\x00\x00S2sTwO")
)

// ParseCompression accepts the flag spellings of a Compression. The empty
// string means None: raw dumps may begin with any byte pattern, so sniffing
// is opt-in.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return None, nil
	case Auto, None, Gzip, Zstd, S2:
		return c, nil
	case "zst":
		return Zstd, nil
	case "gz":
		return Gzip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// Open opens path for decoding; "-" reads standard input.
func Open(path string, c Compression) (io.ReadCloser, error) {
	if path == "-" {
		return Wrap(io.NopCloser(os.Stdin), c)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := Wrap(f, c)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return rc, nil
}

// Wrap layers a decompressor over rc. Auto sniffs the magic number and a
// plausible header, and hands back the raw bytes when either is missing.
// Closing the result closes rc.
func Wrap(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	auto := c == Auto
	if auto {
		c = sniff(br)
	}

	var (
		r   io.Reader
		end func()
	)
	switch c {
	case None, "":
		r = br
	case Gzip:
		src := &replay{r: br, on: auto}
		zr, err := gzip.NewReader(src)
		switch {
		case err != nil && auto:
			r = src.rewind()
		case err != nil:
			return nil, fmt.Errorf("gzip: %w", err)
		default:
			src.stop()
			r, end = zr, func() { _ = zr.Close() }
		}
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		r, end = zr, zr.Close
	case S2:
		r = s2.NewReader(br)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, c)
	}
	return &reader{Reader: r, end: end, under: rc}, nil
}

// sniffLen covers the longest zstd frame header plus the first block header.
const sniffLen = 24

func sniff(br *bufio.Reader) Compression {
	head, _ := br.Peek(sniffLen)
	switch {
	case bytes.HasPrefix(head, s2Magic):
		return S2
	case bytes.HasPrefix(head, zstdMagic):
		var h zstd.Header
		if h.Decode(head) == nil && h.FirstBlock.OK {
			return Zstd
		}
	case bytes.HasPrefix(head, gzipMagic):
		// Deflate method, reserved flag bits clear, full fixed header.
		if len(head) >= 10 && head[2] == 8 && head[3]&0xe0 == 0 {
			return Gzip
		}
	}
	return None
}

// replay records what a decompressor pulls from r while it parses its
// header, so a rejected header can be handed back as raw input.
type replay struct {
	r   io.Reader
	buf bytes.Buffer
	on  bool
}

func (p *replay) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if p.on {
		p.buf.Write(b[:n])
	}
	return n, err
}

func (p *replay) stop() {
	p.on = false
	p.buf = bytes.Buffer{}
}

func (p *replay) rewind() io.Reader {
	return io.MultiReader(&p.buf, p.r)
}

type reader struct {
	io.Reader
	end   func()
	under io.Closer
}

func (r *reader) Close() error {
	if r.end != nil {
		r.end()
	}
	return r.under.Close()
}
