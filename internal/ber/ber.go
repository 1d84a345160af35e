// Package ber implements the ASN.1 Basic Encoding Rules length prefix used
// throughout MXF KLV triples (spec.md §6): a single byte 0x00-0x7F for
// lengths under 128, or 0x8n followed by n big-endian length bytes for
// longer values. Grounded on the length-prefixing style of
// zsiec-prism/internal/moq/format.go, adapted to BER's variable-width rule
// instead of a fixed 4-byte prefix.
package ber

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned when a BER length prefix cannot be fully read
// from the supplied buffer.
var ErrTruncated = errors.New("ber: truncated length")

// Encode returns the BER encoding of length n. MXF conventionally emits
// the long form even for short lengths inside partition packs (a fixed
// 4-byte-length-field convention, "BER4"), so EncodeFixed4 is provided for
// that case; Encode here always picks the shortest valid form.
func Encode(n int) []byte {
	if n < 0 {
		panic("ber: negative length")
	}
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var be []byte
	v := uint64(n)
	for v > 0 {
		be = append([]byte{byte(v & 0xFF)}, be...)
		v >>= 8
	}
	out := make([]byte, 0, len(be)+1)
	out = append(out, 0x80|byte(len(be)))
	out = append(out, be...)
	return out
}

// EncodeFixed4 encodes n as a long-form BER length using exactly 4 length
// octets (0x84 followed by 4 big-endian bytes), the
// convention MXF partition/KLV writers use so that length fields can be
// patched in place after the value is known.
func EncodeFixed4(n int) []byte {
	if n < 0 || n > 0xFFFFFFFF {
		panic("ber: length out of range for fixed-4 encoding")
	}
	return []byte{
		0x84,
		byte(n >> 24),
		byte(n >> 16),
		byte(n >> 8),
		byte(n),
	}
}

// Decode reads a BER length prefix from buf, returning the decoded length
// and the number of bytes the prefix occupied.
func Decode(buf []byte) (length int, consumed int, err error) {
	if len(buf) == 0 {
		return 0, 0, ErrTruncated
	}
	first := buf[0]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}
	n := int(first & 0x7F)
	if n == 0 {
		return 0, 0, fmt.Errorf("ber: indefinite length not supported")
	}
	if len(buf) < 1+n {
		return 0, 0, ErrTruncated
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(buf[1+i])
	}
	return int(v), 1 + n, nil
}
