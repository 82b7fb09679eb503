package http2

import (
	"testing"

	"github.com/omegazero-org/omz-http-lib/http2utils"
	"github.com/stretchr/testify/require"
)

const testStr = "make it so"

// Round-trips a DATA frame through Serialize (struct -> wire) and
// Deserialize (wire -> struct) without ever touching a Reader/Writer —
// the codec itself is a pure byte-slice transform, exercised the same
// way Endpoint.Feed/writeFrame actually drive it.
func TestFrameHeaderSerializeDeserializeRoundTrip(t *testing.T) {
	data := AcquireFrame(FrameData).(*Data)
	defer ReleaseFrame(data)
	data.SetData([]byte(testStr))
	data.SetEndStream(true)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetBody(data)
	frh.SetStream(3)
	data.Serialize(frh)
	frh.length = len(frh.payload)

	var wire [DefaultFrameSize]byte
	frh.parseHeader(wire[:])
	wire2 := append(wire[:], frh.payload...)

	frh2 := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh2)
	frh2.parseValues(wire2[:DefaultFrameSize])
	require.NoError(t, frh2.checkLen())
	require.Equal(t, FrameData, frh2.Type())
	require.Equal(t, uint32(3), frh2.Stream())
	require.Equal(t, len(testStr), frh2.Len())

	frh2.fr = AcquireFrame(frh2.kind)
	frh2.payload = append(frh2.payload[:0], wire2[DefaultFrameSize:]...)
	require.NoError(t, frh2.fr.Deserialize(frh2))

	got := frh2.Body().(*Data)
	require.Equal(t, testStr, string(got.Data()))
	require.True(t, got.EndStream())
}

func TestFrameHeaderRejectsOversizePayload(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	var header [DefaultFrameSize]byte
	http2utils.Uint24ToBytes(header[:3], defaultMaxLen+1)
	frh.parseValues(header[:])

	require.ErrorIs(t, frh.checkLen(), ErrPayloadExceeds)
}

func TestFrameHeaderRejectsUnknownType(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	var header [DefaultFrameSize]byte
	header[3] = byte(FrameContinuation) + 1
	frh.parseValues(header[:])

	require.Greater(t, frh.kind, FrameContinuation)
}
