package wire

import "encoding/binary"

// EncodeString returns the raw bytes of s with no terminator or length prefix
func EncodeString(s string) []byte {
	return []byte(s)
}

// EncodeUint16LE encodes v as 2 bytes, least-significant byte first
func EncodeUint16LE(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// EncodeUint32LE encodes v as 4 bytes, least-significant byte first
func EncodeUint32LE(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}
