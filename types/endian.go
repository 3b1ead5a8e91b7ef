package types

import "github.com/calmh/xdr"

// SOM is a big-endian format end to end: header, dictionaries, string
// tables and fixup streams all read the same way regardless of host
// byte order. The 16/32/64-bit primitives are coded directly here. The
// length-prefixed byte strings are delegated to calmh/xdr, whose
// Reader/Writer already speak XDR's big-endian, 4-byte-padded wire
// format -- which is also exactly the space- and symbol-string table
// layout described by the format (a 32-bit length, the bytes, 0..3 zero
// pad bytes).

// GetBE16 decodes a big-endian 16-bit field.
func GetBE16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// PutBE16 encodes v as a big-endian 16-bit field into b.
func PutBE16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// GetBE32 decodes a big-endian 32-bit field.
func GetBE32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// PutBE32 encodes v as a big-endian 32-bit field into b.
func PutBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// GetBE64 decodes a big-endian 64-bit field.
func GetBE64(b []byte) uint64 {
	return uint64(GetBE32(b))<<32 | uint64(GetBE32(b[4:]))
}

// PutBE64 encodes v as a big-endian 64-bit field into b.
func PutBE64(b []byte, v uint64) {
	PutBE32(b, uint32(v>>32))
	PutBE32(b[4:], uint32(v))
}

// NewWriter adapts an io.Writer (typically a bytes.Buffer accumulating a
// dictionary or string-table region) to the xdr.Writer used for the
// length-prefixed strings of the on-disk format.
var NewWriter = xdr.NewWriter

// NewReader adapts an io.Reader to the xdr.Reader used for decoding the
// same strings.
var NewReader = xdr.NewReader
