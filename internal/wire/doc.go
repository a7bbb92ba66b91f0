// Package wire builds the byte-exact framing used by the live streams.
//
// It covers three layers:
//   - little-endian primitive encoders (EncodeString, EncodeUint16LE, EncodeUint32LE)
//   - the 44-byte streaming RIFF/WAVE header (StreamingWaveHeader)
//   - multipart/x-mixed-replace part framing (FrameHeaders, BoundaryBytes, PushFrame, Framer)
//
// A multipart stream is a repetition of
//
//	Content-Type: image/jpg\r\n
//	Content-Length: <n>\r\n
//	\r\n
//	<n payload bytes>
//	\r\n--stream\r\n
//
// starting at the first byte of the response body, with no preamble.
package wire
