package producer

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	waveformBackground = color.RGBA{R: 0x12, G: 0x14, B: 0x1c, A: 0xFF}
	waveformAxis       = color.RGBA{R: 0x3a, G: 0x3f, B: 0x4f, A: 0xFF}
	waveformChannels   = []color.RGBA{
		{R: 0x4c, G: 0xd1, B: 0x7a, A: 0xFF},
		{R: 0x4c, G: 0x9a, B: 0xf0, A: 0xFF},
	}
)

// RenderWaveform draws interleaved 16-bit little-endian PCM as a min/max
// envelope, one horizontal lane per channel
func RenderWaveform(pcm []byte, channels, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: waveformBackground}, image.Point{}, draw.Src)

	if channels <= 0 || width <= 0 || height <= 0 {
		return img
	}

	frames := len(pcm) / (2 * channels)
	laneHeight := height / channels

	for ch := 0; ch < channels; ch++ {
		top := ch * laneHeight
		mid := top + laneHeight/2
		col := waveformChannels[ch%len(waveformChannels)]

		for x := 0; x < width; x++ {
			img.SetRGBA(x, mid, waveformAxis)
		}
		if frames == 0 {
			continue
		}

		for x := 0; x < width; x++ {
			start := x * frames / width
			end := (x + 1) * frames / width
			if end <= start {
				end = start + 1
			}

			lo, hi := math.MaxInt16, math.MinInt16
			for i := start; i < end && i < frames; i++ {
				off := (i*channels + ch) * 2
				s := int(int16(binary.LittleEndian.Uint16(pcm[off:])))
				lo = min(lo, s)
				hi = max(hi, s)
			}

			y0 := mid - hi*(laneHeight/2)/math.MaxInt16
			y1 := mid - lo*(laneHeight/2)/math.MaxInt16
			for y := max(y0, top); y <= min(y1, top+laneHeight-1); y++ {
				img.SetRGBA(x, y, col)
			}
		}
	}

	return img
}
