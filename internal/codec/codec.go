// Package codec converts producer frames into encoded JPEG or PNG payloads.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// Media types of encoded payloads
const (
	MediaTypeJPEG = "image/jpg"
	MediaTypePNG  = "image/png"
)

// DefaultJPEGQuality is used when a non-positive quality is requested
const DefaultJPEGQuality = 80

// CodecError reports that a frame or image could not be encoded
type CodecError struct {
	Format string
	Err    error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s encode failed: %v", e.Format, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// ErrUnsupportedLayout is returned when a frame's channel count cannot be mapped to an image
var ErrUnsupportedLayout = errors.New("unsupported channel layout")

// Frame is a producer-native pixel buffer.
//
// Channels selects the layout of Pix:
//   - 1: 8-bit gray
//   - 3: 8-bit BGR
//   - 4: 8-bit BGRA
type Frame struct {
	Width    int
	Height   int
	Channels int
	// Stride is the number of bytes per row; 0 means Width*Channels
	Stride int
	Pix    []byte
}

func (f *Frame) stride() int {
	if f.Stride > 0 {
		return f.Stride
	}
	return f.Width * f.Channels
}

// Image converts the frame to an image.Image without retaining Pix
func (f *Frame) Image() (image.Image, error) {
	if f == nil {
		return nil, errors.New("nil frame")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}

	stride := f.stride()
	if stride < f.Width*f.Channels {
		return nil, fmt.Errorf("stride %d smaller than row size %d", stride, f.Width*f.Channels)
	}
	if need := stride*(f.Height-1) + f.Width*f.Channels; len(f.Pix) < need {
		return nil, fmt.Errorf("pixel buffer too short: got %d bytes, need %d", len(f.Pix), need)
	}

	rect := image.Rect(0, 0, f.Width, f.Height)

	switch f.Channels {
	case 1:
		img := image.NewGray(rect)
		for y := 0; y < f.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+f.Width], f.Pix[y*stride:])
		}
		return img, nil
	case 3, 4:
		img := image.NewRGBA(rect)
		for y := 0; y < f.Height; y++ {
			src := f.Pix[y*stride:]
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < f.Width; x++ {
				s := x * f.Channels
				d := x * 4
				dst[d+0] = src[s+2]
				dst[d+1] = src[s+1]
				dst[d+2] = src[s+0]
				if f.Channels == 4 {
					dst[d+3] = src[s+3]
				} else {
					dst[d+3] = 0xFF
				}
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, f.Channels)
	}
}

// EncodeJPEG encodes a frame as JPEG
func EncodeJPEG(frame *Frame, quality int) ([]byte, error) {
	return NewEncoder(quality).JPEG(frame)
}

// EncodePNG encodes an already rendered image as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	return NewEncoder(0).PNG(img)
}

// Encoder encodes frames for a single stream and reuses its output buffer
// between calls. The returned slices are only valid until the next call.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	quality int
	png     png.Encoder
	buf     bytes.Buffer
}

// NewEncoder creates an encoder using the given JPEG quality (1-100)
func NewEncoder(quality int) *Encoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Encoder{
		quality: quality,
		png:     png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// JPEG encodes a frame as JPEG
func (e *Encoder) JPEG(frame *Frame) ([]byte, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, &CodecError{Format: "jpeg", Err: err}
	}

	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, &CodecError{Format: "jpeg", Err: err}
	}
	return e.buf.Bytes(), nil
}

// PNG encodes an image as PNG
func (e *Encoder) PNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, &CodecError{Format: "png", Err: errors.New("nil image")}
	}
	if b := img.Bounds(); b.Empty() {
		return nil, &CodecError{Format: "png", Err: fmt.Errorf("empty image bounds %v", b)}
	}

	e.buf.Reset()
	if err := e.png.Encode(&e.buf, img); err != nil {
		return nil, &CodecError{Format: "png", Err: err}
	}
	return e.buf.Bytes(), nil
}
