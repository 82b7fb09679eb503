package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldMap(fields []Field) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}
	return m
}

// RFC 7541 §C.5.1/§C.5.2: two responses decoded in sequence over one
// connection, exercising literal-with-incremental-indexing, the
// resulting dynamic table growth, and indexed references back into it.
func TestDecoderResponseSequenceWithoutHuffman(t *testing.T) {
	d := NewDecoder(256)

	first := []byte{
		0x48, 0x03, 0x33, 0x30, 0x32, 0x58,
		0x07, 0x70, 0x72, 0x69, 0x76, 0x61,
		0x74, 0x65, 0x61, 0x1d, 0x4d, 0x6f,
		0x6e, 0x2c, 0x20, 0x32, 0x31, 0x20,
		0x4f, 0x63, 0x74, 0x20, 0x32, 0x30,
		0x31, 0x33, 0x20, 0x32, 0x30, 0x3a,
		0x31, 0x33, 0x3a, 0x32, 0x31, 0x20,
		0x47, 0x4d, 0x54, 0x6e, 0x17, 0x68,
		0x74, 0x74, 0x70, 0x73, 0x3a, 0x2f,
		0x2f, 0x77, 0x77, 0x77, 0x2e, 0x65,
		0x78, 0x61, 0x6d, 0x70, 0x6c, 0x65,
		0x2e, 0x63, 0x6f, 0x6d,
	}
	fields, err := d.Decode(first)
	require.NoError(t, err)
	got := fieldMap(fields)
	require.Equal(t, "302", got[":status"])
	require.Equal(t, "private", got["cache-control"])
	require.Equal(t, "Mon, 21 Oct 2013 20:13:21 GMT", got["date"])
	require.Equal(t, "https://www.example.com", got["location"])
	require.Equal(t, 222, d.dyn.size)

	second := []byte{0x48, 0x03, 0x33, 0x30, 0x37, 0xc1, 0xc0, 0xbf}
	fields, err = d.Decode(second)
	require.NoError(t, err)
	got = fieldMap(fields)
	require.Equal(t, "307", got[":status"])
	require.Equal(t, "private", got["cache-control"])
	require.Equal(t, "Mon, 21 Oct 2013 20:13:21 GMT", got["date"])
	require.Equal(t, "https://www.example.com", got["location"])
	require.Equal(t, 222, d.dyn.size)
}

// TestEncoderDecoderRoundTrip exercises the Encoder against its own
// Decoder without relying on externally fixed byte vectors, covering
// the indexing paths appendix-C fixtures above don't reach: never-
// indexed, and repeated encode of the same field collapsing to an
// indexed reference.
func TestEncoderDecoderRoundTrip(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	reqFields := []Field{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "https"},
		{Name: ":path", Value: "/index.html"},
		{Name: ":authority", Value: "www.example.com"},
		{Name: "authorization", Value: "s3cr3t", Sensitive: true},
	}

	var buf []byte
	buf = enc.Encode(buf, reqFields)

	decoded, err := dec.Decode(buf)
	require.NoError(t, err)
	got := fieldMap(decoded)
	require.Equal(t, "GET", got[":method"])
	require.Equal(t, "https", got[":scheme"])
	require.Equal(t, "/index.html", got[":path"])
	require.Equal(t, "www.example.com", got[":authority"])
	require.Equal(t, "s3cr3t", got["authorization"])

	// The sensitive field must never have been inserted into the
	// encoder's dynamic table.
	for _, f := range enc.dyn.entries {
		require.NotEqual(t, "authorization", f.Name)
	}

	// Re-encoding the same non-sensitive fields should now collapse to
	// indexed references, since they were added to the dynamic table
	// by the first call.
	before := len(buf)
	buf2 := enc.Encode(nil, reqFields[:4])
	require.Less(t, len(buf2), before)

	decoded2, err := dec.Decode(buf2)
	require.NoError(t, err)
	got2 := fieldMap(decoded2)
	require.Equal(t, "GET", got2[":method"])
	require.Equal(t, "www.example.com", got2[":authority"])
}

func TestEncoderNeverIndexSetForcesLiteral(t *testing.T) {
	enc := NewEncoder(4096)
	enc.SetNeverIndexSet(NewNeverIndexSet("cookie"))

	dst := enc.Encode(nil, []Field{{Name: "cookie", Value: "a=b"}})
	require.NotZero(t, dst[0]&0x10, "expected literal-never-indexed representation")
	require.Empty(t, enc.dyn.entries)
}

func TestEncoderDisableCompressionAvoidsHuffman(t *testing.T) {
	enc := NewEncoder(4096)
	enc.DisableCompression(true)
	dst := enc.Encode(nil, []Field{{Name: "x-custom", Value: "plain-value"}})

	dec := NewDecoder(4096)
	fields, err := dec.Decode(dst)
	require.NoError(t, err)
	require.Equal(t, "plain-value", fields[0].Value)
}

func TestDynamicTableEvictsOldestOnOverflow(t *testing.T) {
	tbl := newDynamicTable(64)
	tbl.add(Field{Name: "a", Value: "1111111111111111111111111111"}) // 1+28+32 = 61 bytes
	tbl.add(Field{Name: "b", Value: "2222222222222222222222222222"}) // evicts "a"

	fullA, _ := tbl.findInDynamic("a", "1111111111111111111111111111")
	require.Zero(t, fullA)
	full, _ := tbl.findInDynamic("b", "2222222222222222222222222222")
	require.Equal(t, 1, full)
}
