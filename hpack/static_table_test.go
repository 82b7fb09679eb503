package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticTableKnownEntries(t *testing.T) {
	require.Equal(t, 61, staticTableSize)
	require.Equal(t, ":authority", staticTable[1].Name)
	require.Equal(t, "", staticTable[1].Value)
	require.Equal(t, ":method", staticTable[2].Name)
	require.Equal(t, "GET", staticTable[2].Value)
	require.Equal(t, ":status", staticTable[8].Name)
	require.Equal(t, "200", staticTable[8].Value)
	require.Equal(t, "www-authenticate", staticTable[61].Name)
}
