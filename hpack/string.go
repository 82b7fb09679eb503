package hpack

// appendString appends the RFC 7541 §5.2 string literal representation of
// s to dst, Huffman-coding it whenever that is strictly shorter than the
// raw bytes (unless huffman is forced off, e.g. for interop testing against a
// peer that doesn't support it).
func appendString(dst []byte, s string, huffman bool) []byte {
	if huffman && huffmanEncodedLen(s) < len(s) {
		dst = appendInt(dst, 0x80, 7, uint64(huffmanEncodedLen(s)))
		return huffmanEncode(dst, s)
	}
	dst = appendInt(dst, 0x00, 7, uint64(len(s)))
	return append(dst, s...)
}

// readString reads an RFC 7541 §5.2 string literal from b.
func readString(b []byte) (s string, rest []byte, err error) {
	length, firstByte, rest, err := readInt(7, b)
	if err != nil {
		return "", b, err
	}
	if uint64(len(rest)) < length {
		return "", b, ErrUnexpectedEOF
	}
	data := rest[:length]
	rest = rest[length:]

	if firstByte&0x80 != 0 {
		s, err = huffmanDecode(data)
		return s, rest, err
	}
	return string(data), rest, nil
}
