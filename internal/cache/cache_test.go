package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k1 := Key("hello", "hi", "", "xtts")
	k2 := Key("hello", "hi", "", "xtts")
	require.Equal(t, k1, k2)
	require.Len(t, k1, 64)

	// Any input change produces a different key.
	require.NotEqual(t, k1, Key("hello", "hi", "", "gtts"))
	require.NotEqual(t, k1, Key("hello", "en", "", "xtts"))
	require.NotEqual(t, k1, Key("hello!", "hi", "", "xtts"))
}

func TestStoreLookup(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte("a"), 2048), 0600))

	key := Key("text", "hi", "", "xtts")
	require.Empty(t, c.Lookup("xtts", key, ".wav"))

	cached, err := c.Store(src, "xtts", key, "")
	require.NoError(t, err)
	require.Equal(t, cached, c.Lookup("xtts", key, ".wav"))

	data, err := os.ReadFile(cached)
	require.NoError(t, err)
	require.Len(t, data, 2048)
}

func TestLookupRejectsTruncated(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	key := Key("tiny", "en", "", "gtts")
	require.NoError(t, os.WriteFile(c.Path("gtts", key, ".mp3"), []byte("short"), 0600))
	require.Empty(t, c.Lookup("gtts", key, ".mp3"))
}
