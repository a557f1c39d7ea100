package proto

import (
	"bytes"
	"errors"
)

// ErrFrameTooLong reports an unterminated inbound run that exceeded the
// decoder's buffer bound. The decoder discards the run and keeps decoding, so
// the connection can survive the violation.
var ErrFrameTooLong = errors.New("proto: unterminated frame exceeds inbound limit")

// maxBuffered mirrors the original per-connection scratch buffer: a few full
// inbound messages worth of partial data.
const maxBuffered = MaxInboundMessageLen * 3

// Decoder reassembles frames from an arbitrary chunked byte stream. A read
// may carry a fraction of a frame or several frames; Feed returns every
// complete line in arrival order and retains the trailing partial one.
//
// Decoder is not safe for concurrent use; each connection owns one.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, MaxInboundMessageLen)}
}

// Feed appends a chunk and extracts all complete lines, terminator stripped.
// When the pending partial data outgrows maxBuffered, the pending run is
// dropped and ErrFrameTooLong is returned alongside any lines completed
// before the overflow.
func (d *Decoder) Feed(p []byte) ([][]byte, error) {
	d.buf = append(d.buf, p...)

	var lines [][]byte
	for {
		idx := bytes.Index(d.buf, []byte(terminator))
		if idx < 0 {
			break
		}
		line := make([]byte, idx)
		copy(line, d.buf[:idx])
		lines = append(lines, line)
		d.buf = d.buf[idx+len(terminator):]
	}

	if len(d.buf) > maxBuffered {
		d.buf = d.buf[:0]
		return lines, ErrFrameTooLong
	}
	return lines, nil
}

// Pending reports how many bytes of a partial frame are buffered.
func (d *Decoder) Pending() int {
	return len(d.buf)
}
