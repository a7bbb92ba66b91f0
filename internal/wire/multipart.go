package wire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

const (
	// Boundary is the multipart boundary token
	Boundary = "stream"

	// MultipartContentType is the top-level Content-Type of image streams
	MultipartContentType = "multipart/x-mixed-replace; boundary=" + Boundary

	// PartContentType is declared by every part. PNG waveform parts carry it
	// too unless the framer is configured otherwise.
	PartContentType = "image/jpg"

	crlf = "\r\n"
)

var boundaryBytes = []byte(crlf + "--" + Boundary + crlf)

// BoundaryBytes returns the delimiter written after every part
func BoundaryBytes() []byte {
	out := make([]byte, len(boundaryBytes))
	copy(out, boundaryBytes)
	return out
}

// FrameHeaders returns the header block that precedes a payload of n bytes
func FrameHeaders(n int) []byte {
	return appendHeaders(nil, PartContentType, n)
}

func appendHeaders(dst []byte, contentType string, n int) []byte {
	dst = appendHeader(dst, "Content-Type", contentType)
	dst = appendHeader(dst, "Content-Length", strconv.Itoa(n))
	return append(dst, crlf...)
}

func appendHeader(dst []byte, key, value string) []byte {
	dst = append(dst, key...)
	dst = append(dst, ": "...)
	dst = append(dst, value...)
	return append(dst, crlf...)
}

// PushFrame writes one complete part (headers, payload, boundary) to w
// in a single Write call
func PushFrame(w io.Writer, payload []byte) error {
	return NewFramer(PartContentType).Push(w, payload)
}

// Framer frames parts for one stream, reusing its buffer between frames.
// A Framer is not safe for concurrent use.
type Framer struct {
	partType string
	hdr      []byte
	buf      bytes.Buffer
}

// NewFramer creates a framer declaring partType on every part.
// An empty partType falls back to PartContentType.
func NewFramer(partType string) *Framer {
	if partType == "" {
		partType = PartContentType
	}
	return &Framer{partType: partType}
}

// PartType returns the Content-Type declared on each part
func (f *Framer) PartType() string {
	return f.partType
}

// Push writes one complete part to w in a single Write call
func (f *Framer) Push(w io.Writer, payload []byte) error {
	f.hdr = appendHeaders(f.hdr[:0], f.partType, len(payload))

	f.buf.Reset()
	f.buf.Grow(len(f.hdr) + len(payload) + len(boundaryBytes))
	f.buf.Write(f.hdr)
	f.buf.Write(payload)
	f.buf.Write(boundaryBytes)
	return writeAll(w, f.buf.Bytes())
}

func writeAll(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes: %w", n, len(data), io.ErrShortWrite)
	}
	return nil
}
