// Package wire holds big-endian byte-twiddling and ASCII helpers; within
// this module only the message package imports it (for ToLower).
package wire

import (
	"reflect"
	"unsafe"
)

// Uint24ToBytes writes the low 24 bits of n into b[0:3], big-endian.
func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2] // bound check hint
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a big-endian 24-bit integer from b[0:3].
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes writes n into b[0:4], big-endian.
func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a big-endian 32-bit integer from b[0:4].
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// AppendUint32 appends the big-endian encoding of n to dst.
func AppendUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AppendUint16 appends the big-endian encoding of n to dst.
func AppendUint16(dst []byte, n uint16) []byte {
	return append(dst, byte(n>>8), byte(n))
}

// EqualFold reports whether a and b are equal ASCII strings, ignoring case.
// Only the one bit that separates 'a'-'z' from 'A'-'Z' is toggled, so it is
// not a general Unicode case fold — callers only ever pass header names and
// HTTP tokens, which are restricted to that range by construction.
func EqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}
	return true
}

// Resize grows b (reusing its backing array where possible) so that
// len(b) == neededLen.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// B2S converts a byte slice to a string without copying.
//
// copied from https://github.com/valyala/fasthttp
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2B converts a string to a byte slice without copying. The returned slice
// must not be mutated.
//
// copied from https://github.com/valyala/fasthttp
func S2B(s string) []byte {
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{Data: sh.Data, Len: sh.Len, Cap: sh.Len}
	return *(*[]byte)(unsafe.Pointer(&bh))
}

// ToLower lowercases b in place, ASCII-only (see EqualFold).
func ToLower(b []byte) []byte {
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] |= 0x20
		}
	}
	return b
}
