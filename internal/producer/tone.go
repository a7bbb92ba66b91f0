package producer

import (
	"encoding/binary"
	"math"

	"streamer/internal/wire"
)

// toneGenerator produces interleaved 16-bit little-endian PCM in the
// streaming wave format. Not safe for concurrent use.
type toneGenerator struct {
	freq      float64
	amplitude float64
	phase     float64
	format    wire.WaveFormat
}

func newToneGenerator(freq, amplitude float64) *toneGenerator {
	return &toneGenerator{
		freq:      freq,
		amplitude: amplitude,
		format:    wire.StreamingFormat,
	}
}

// chunkSize returns the number of bytes covering n samples per channel
func (g *toneGenerator) chunkSize(samples int) int {
	return samples * int(g.format.BlockAlign)
}

// fill writes as many whole sample frames as fit in buf
func (g *toneGenerator) fill(buf []byte) {
	block := int(g.format.BlockAlign)
	step := 2 * math.Pi * g.freq / float64(g.format.SampleRate)
	channels := int(g.format.Channels)

	for off := 0; off+block <= len(buf); off += block {
		s := math.Sin(g.phase)
		for ch := 0; ch < channels; ch++ {
			// Right channel runs slightly quieter so the two traces differ
			amp := g.amplitude
			if ch%2 == 1 {
				amp *= 0.6
			}
			v := int16(s * amp * math.MaxInt16)
			binary.LittleEndian.PutUint16(buf[off+ch*2:], uint16(v))
		}

		g.phase += step
		if g.phase > 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}
}
