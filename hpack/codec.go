package hpack

import "errors"

var (
	ErrInvalidIndex          = errors.New("hpack: header field index out of range")
	ErrInvalidRepresentation = errors.New("hpack: unrecognized header field representation")
)

// Encoder holds one direction's HPACK compression state (RFC 7541 §2.2).
// A connection needing to compress header blocks in both directions uses
// one Encoder and one Decoder, never a single shared type: decoding the
// peer's blocks and encoding blocks addressed to the peer draw on
// completely independent dynamic tables.
type Encoder struct {
	dyn                 *dynamicTable
	neverIndex          *NeverIndexSet
	disableCompression  bool
	pendingSizeUpdate   bool
	pendingSize         int
}

// NewEncoder creates an Encoder whose dynamic table may grow up to
// maxTableSize octets, per RFC 7541 §4.2. maxTableSize should track the
// SETTINGS_HEADER_TABLE_SIZE value advertised to the peer.
func NewEncoder(maxTableSize int) *Encoder {
	return &Encoder{dyn: newDynamicTable(maxTableSize), neverIndex: NewNeverIndexSet()}
}

// SetNeverIndexSet installs a connection-wide policy of names that must
// always be encoded as literal-never-indexed, regardless of a given
// Field's Sensitive flag. Typically shared across every Encoder for a
// connection so the policy applies uniformly in both directions.
func (e *Encoder) SetNeverIndexSet(s *NeverIndexSet) {
	e.neverIndex = s
}

// SetMaxTableSize changes the dynamic table's target size, usually in
// response to the peer's SETTINGS_HEADER_TABLE_SIZE. The change is
// signaled to the peer with a Dynamic Table Size Update at the start of
// the next Encode call.
func (e *Encoder) SetMaxTableSize(n int) {
	if n > e.dyn.limit {
		e.dyn.limit = n
	}
	e.dyn.maxSize = n
	e.dyn.evictTo(n)
	e.pendingSizeUpdate = true
	e.pendingSize = n
}

// DisableCompression forces every subsequent field to be emitted as a
// raw (non-Huffman) literal. Useful for interop testing, or while
// debugging a header block with a packet capture tool.
func (e *Encoder) DisableCompression(disable bool) {
	e.disableCompression = disable
}

// Add inserts name/value into the dynamic table without emitting any
// bytes, for pre-seeding state shared out of band (e.g. in tests that
// reproduce RFC 7541 Appendix C's pre-populated-table examples).
func (e *Encoder) Add(name, value string) {
	e.dyn.add(Field{Name: name, Value: value})
}

// Encode appends the HPACK encoding of fields to dst and returns the
// extended slice.
func (e *Encoder) Encode(dst []byte, fields []Field) []byte {
	if e.pendingSizeUpdate {
		dst = appendInt(dst, 0x20, 5, uint64(e.pendingSize))
		e.pendingSizeUpdate = false
	}
	for _, f := range fields {
		dst = e.encodeField(dst, f)
	}
	return dst
}

func (e *Encoder) encodeField(dst []byte, f Field) []byte {
	sensitive := f.Sensitive || e.neverIndex.Contains(f.Name)
	full, nameOnly := e.findIndex(f.Name, f.Value)
	if !sensitive && full > 0 {
		return appendInt(dst, 0x80, 7, uint64(full))
	}

	huffman := !e.disableCompression
	if sensitive {
		dst = e.encodeNameRef(dst, 0x10, 4, nameOnly, f.Name, huffman)
		return appendString(dst, f.Value, huffman)
	}

	dst = e.encodeNameRef(dst, 0x40, 6, nameOnly, f.Name, huffman)
	dst = appendString(dst, f.Value, huffman)
	e.dyn.add(Field{Name: f.Name, Value: f.Value})
	return dst
}

func (e *Encoder) encodeNameRef(dst []byte, prefix byte, prefixBits uint, nameOnly int, name string, huffman bool) []byte {
	if nameOnly > 0 {
		return appendInt(dst, prefix, prefixBits, uint64(nameOnly))
	}
	dst = appendInt(dst, prefix, prefixBits, 0)
	return appendString(dst, name, huffman)
}

// findIndex returns the combined static+dynamic table index (RFC 7541
// §2.3.3) of an exact name+value match, and separately the index of any
// name-only match (0 if neither exists).
func (e *Encoder) findIndex(name, value string) (full int, nameOnly int) {
	for i := 1; i <= staticTableSize; i++ {
		f := staticTable[i]
		if f.Name == name {
			if nameOnly == 0 {
				nameOnly = i
			}
			if f.Value == value {
				return i, nameOnly
			}
		}
	}
	dfull, dnameOnly := e.dyn.findInDynamic(name, value)
	if dfull > 0 {
		return staticTableSize + dfull, staticTableSize + dnameOnly
	}
	if dnameOnly > 0 && nameOnly == 0 {
		nameOnly = staticTableSize + dnameOnly
	}
	return 0, nameOnly
}

// Decoder holds the other direction's HPACK state, mirroring Encoder.
type Decoder struct {
	dyn        *dynamicTable
	neverIndex *NeverIndexSet
}

// NewDecoder creates a Decoder whose dynamic table may grow up to
// maxTableSize octets; this is the size this side advertises to the
// peer via its own SETTINGS_HEADER_TABLE_SIZE. Its never-index set
// starts empty; pass the same *NeverIndexSet given to the connection's
// Encoder through SetNeverIndexSet to share the policy in both
// directions, per RFC 7541 §6.2.3 recording a peer-asserted
// never-indexed name just as readily as a locally authored one.
func NewDecoder(maxTableSize int) *Decoder {
	return &Decoder{dyn: newDynamicTable(maxTableSize), neverIndex: NewNeverIndexSet()}
}

// SetNeverIndexSet installs the connection-wide never-index policy this
// Decoder records newly observed never-indexed names into. Typically
// the same *NeverIndexSet passed to the connection's Encoder, so a
// name either side marks sensitive is never indexed in either
// direction for the rest of the connection.
func (d *Decoder) SetNeverIndexSet(s *NeverIndexSet) {
	d.neverIndex = s
}

// SetMaxTableSize lowers the hard cap this Decoder will honor even if the
// peer's Dynamic Table Size Update instructions ask for more.
func (d *Decoder) SetMaxTableSize(n int) {
	d.dyn.setLimit(n)
}

// Decode parses a complete header block from b into an ordered slice of
// Fields. b must hold the full block (HEADERS/CONTINUATION fragments
// already reassembled by the caller); HPACK's indexing state is
// stateful across blocks but not within one, so this does not support
// feeding partial blocks.
func (d *Decoder) Decode(b []byte) ([]Field, error) {
	var fields []Field
	for len(b) > 0 {
		first := b[0]
		var (
			f   Field
			err error
		)
		switch {
		case first&0x80 != 0: // indexed header field
			idx, _, rest, rerr := readInt(7, b)
			if rerr != nil {
				return fields, rerr
			}
			b = rest
			var ok bool
			f, ok = d.lookup(int(idx))
			if !ok {
				return fields, ErrInvalidIndex
			}
			fields = append(fields, f)
			continue
		case first&0xc0 == 0x40: // literal with incremental indexing
			f, b, err = d.readLiteral(b, 6)
			if err != nil {
				return fields, err
			}
			d.dyn.add(f)
			fields = append(fields, f)
			continue
		case first&0xe0 == 0x20: // dynamic table size update
			n, _, rest, rerr := readInt(5, b)
			if rerr != nil {
				return fields, rerr
			}
			if err := d.dyn.updateSize(int(n)); err != nil {
				return fields, err
			}
			b = rest
			continue
		case first&0xf0 == 0x10: // literal never indexed
			f, b, err = d.readLiteral(b, 4)
			if err != nil {
				return fields, err
			}
			f.Sensitive = true
			d.neverIndex.Add(f.Name)
			fields = append(fields, f)
			continue
		case first&0xf0 == 0x00: // literal without indexing
			f, b, err = d.readLiteral(b, 4)
			if err != nil {
				return fields, err
			}
			fields = append(fields, f)
			continue
		default:
			return fields, ErrInvalidRepresentation
		}
	}
	return fields, nil
}

func (d *Decoder) readLiteral(b []byte, prefixBits uint) (Field, []byte, error) {
	idx, _, rest, err := readInt(prefixBits, b)
	if err != nil {
		return Field{}, b, err
	}
	var name string
	if idx == 0 {
		n, r, err := readString(rest)
		if err != nil {
			return Field{}, b, err
		}
		name, rest = n, r
	} else {
		ref, ok := d.lookup(int(idx))
		if !ok {
			return Field{}, b, ErrInvalidIndex
		}
		name = ref.Name
	}
	value, rest, err := readString(rest)
	if err != nil {
		return Field{}, b, err
	}
	return Field{Name: name, Value: value}, rest, nil
}

func (d *Decoder) lookup(idx int) (Field, bool) {
	if idx >= 1 && idx <= staticTableSize {
		return staticTable[idx], true
	}
	return d.dyn.get(idx - staticTableSize)
}
