// Package stream implements the unbounded write loops that turn live
// producers into HTTP response bodies.
//
// Each client connection runs one Driver. A driver pulls from its producer,
// encodes, frames and writes, over and over, until a write fails, a frame
// cannot be encoded, or the request context is cancelled. Nothing is
// retried: the connection ends and the producer subscription is released.
//
// Drivers:
//   - VideoDriver: camera frames as JPEG parts of a multipart/x-mixed-replace body
//   - WaveformDriver: speaker or microphone waveform images as PNG parts
//   - AudioDriver: a streaming WAV header followed by raw microphone PCM
//
// Output decouples the drivers from the transport. HTTPOutput frames images
// as multipart parts and flushes after every write; WebSocketOutput sends
// every image or audio chunk as one binary message.
package stream
