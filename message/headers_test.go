package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadersAddAndGet(t *testing.T) {
	h := NewHeaders()
	require.NoError(t, h.Add("Content-Type", "text/plain"))
	require.NoError(t, h.Add("X-Trace", "a"))
	require.NoError(t, h.Add("X-Trace", "b"))

	v, ok := h.GetFirst("content-type")
	require.True(t, ok)
	require.Equal(t, "text/plain", v)

	require.Equal(t, 2, h.Count("x-trace"))
	v, ok = h.Get("x-trace", 0)
	require.True(t, ok)
	require.Equal(t, "a", v)
	v, ok = h.Get("x-trace", -1)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestHeadersSetReplacesAllOccurrences(t *testing.T) {
	h := NewHeaders()
	h.Add("x-trace", "a")
	h.Add("x-trace", "b")
	require.NoError(t, h.Set("x-trace", "only"))
	require.Equal(t, 1, h.Count("x-trace"))
	v, _ := h.GetFirst("x-trace")
	require.Equal(t, "only", v)
}

func TestHeadersExtract(t *testing.T) {
	h := NewHeaders()
	h.Add("x-a", "1")
	v, ok := h.Extract("x-a")
	require.True(t, ok)
	require.Equal(t, "1", v)
	require.Equal(t, 0, h.Count("x-a"))

	_, ok = h.Extract("missing")
	require.False(t, ok)
}

func TestHeadersAppendWithSeparatorFoldsCookies(t *testing.T) {
	h := NewHeaders()
	h.Add("cookie", "a=1")
	h.AppendWithSeparator("cookie", "b=2", "; ")
	v, _ := h.GetFirst("cookie")
	require.Equal(t, "a=1; b=2", v)
}

func TestHeadersLockRejectsMutation(t *testing.T) {
	h := NewHeaders()
	h.Add("x", "1")
	h.Lock()
	require.ErrorIs(t, h.Add("y", "1"), ErrLocked)
	require.ErrorIs(t, h.Set("x", "2"), ErrLocked)
	require.ErrorIs(t, h.Delete("x"), ErrLocked)
}

func TestHeadersNamesLowercasedAndDeduped(t *testing.T) {
	h := NewHeaders()
	h.Add("Accept", "a")
	h.Add("ACCEPT", "b")
	h.Add("Host", "c")
	require.Equal(t, []string{"accept", "host"}, h.Names())
}
