package structio

import (
	"bufio"
	"errors"
	"io"
)

// byteStream is the single open input of a session. It tracks the raw
// offset and the zeros still owed by the current compressed run.
type byteStream struct {
	r       *bufio.Reader
	closer  io.Closer
	name    string
	off     int64
	pending uint8
}

func newByteStream(r io.Reader, c io.Closer, name string) *byteStream {
	return &byteStream{r: bufio.NewReader(r), closer: c, name: name}
}

func (bs *byteStream) readByte() (byte, error) {
	b, err := bs.r.ReadByte()
	if err != nil {
		return 0, err
	}
	bs.off++
	return b, nil
}

// next produces one decoded byte. A literal zero is always followed by a
// count of further zeros implied by the run.
func (bs *byteStream) next(zeroCompress bool) (byte, error) {
	if !zeroCompress {
		return bs.readByte()
	}
	if bs.pending > 0 {
		bs.pending--
		return 0, nil
	}
	b, err := bs.readByte()
	if err != nil {
		return 0, err
	}
	if b == 0 {
		n, err := bs.readByte()
		if err != nil {
			return 0, err
		}
		bs.pending = n
	}
	return b, nil
}

// atEOF reports whether no raw bytes remain.
func (bs *byteStream) atEOF() (bool, error) {
	_, err := bs.r.Peek(1)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

func (bs *byteStream) close() error {
	if bs.closer == nil {
		return nil
	}
	err := bs.closer.Close()
	bs.closer = nil
	return err
}
