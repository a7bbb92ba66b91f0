package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WaveHeaderSize is the size of a canonical RIFF/WAVE header with a single
// fmt and data subchunk
const WaveHeaderSize = 44

// WaveSizeSentinel is declared for both the RIFF and data chunk sizes.
// A live stream has no final length, so the header claims the largest
// signed 32-bit value and lenient players read until the connection closes.
// Strict validators may reject it.
const WaveSizeSentinel uint32 = math.MaxInt32

// WaveFormat describes the fmt subchunk of a WAVE header
type WaveFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// StreamingFormat is the PCM layout carried by the audio stream:
// 16-bit little-endian, 2 interleaved channels, 16 kHz
var StreamingFormat = WaveFormat{
	AudioFormat:   1,
	Channels:      2,
	SampleRate:    16000,
	ByteRate:      64000,
	BlockAlign:    4,
	BitsPerSample: 16,
}

var streamingWaveHeader = buildWaveHeader(StreamingFormat, WaveSizeSentinel)

func buildWaveHeader(f WaveFormat, size uint32) []byte {
	var buf bytes.Buffer
	buf.Grow(WaveHeaderSize)

	buf.Write(EncodeString("RIFF"))
	buf.Write(EncodeUint32LE(size))
	buf.Write(EncodeString("WAVE"))

	buf.Write(EncodeString("fmt "))
	buf.Write(EncodeUint32LE(16))
	buf.Write(EncodeUint16LE(f.AudioFormat))
	buf.Write(EncodeUint16LE(f.Channels))
	buf.Write(EncodeUint32LE(f.SampleRate))
	buf.Write(EncodeUint32LE(f.ByteRate))
	buf.Write(EncodeUint16LE(f.BlockAlign))
	buf.Write(EncodeUint16LE(f.BitsPerSample))

	buf.Write(EncodeString("data"))
	buf.Write(EncodeUint32LE(size))

	return buf.Bytes()
}

// StreamingWaveHeader returns the 44-byte header written once at the start
// of every audio stream. Each call returns a new copy of the same bytes.
func StreamingWaveHeader() []byte {
	out := make([]byte, len(streamingWaveHeader))
	copy(out, streamingWaveHeader)
	return out
}

// ParseWaveFormat decodes the fmt subchunk of a canonical 44-byte header
func ParseWaveFormat(header []byte) (WaveFormat, error) {
	if len(header) < WaveHeaderSize {
		return WaveFormat{}, fmt.Errorf("wave header too short: got %d bytes, expected %d", len(header), WaveHeaderSize)
	}

	if string(header[0:4]) != "RIFF" {
		return WaveFormat{}, fmt.Errorf("invalid wave header: expected 'RIFF' tag, got %q", string(header[0:4]))
	}
	if string(header[8:12]) != "WAVE" {
		return WaveFormat{}, fmt.Errorf("invalid wave header: expected 'WAVE' tag, got %q", string(header[8:12]))
	}
	if string(header[12:16]) != "fmt " {
		return WaveFormat{}, fmt.Errorf("invalid wave header: expected 'fmt ' tag, got %q", string(header[12:16]))
	}
	if size := binary.LittleEndian.Uint32(header[16:20]); size != 16 {
		return WaveFormat{}, fmt.Errorf("unsupported fmt chunk size: %d", size)
	}
	if string(header[36:40]) != "data" {
		return WaveFormat{}, fmt.Errorf("invalid wave header: expected 'data' tag, got %q", string(header[36:40]))
	}

	return WaveFormat{
		AudioFormat:   binary.LittleEndian.Uint16(header[20:22]),
		Channels:      binary.LittleEndian.Uint16(header[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(header[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(header[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(header[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(header[34:36]),
	}, nil
}
