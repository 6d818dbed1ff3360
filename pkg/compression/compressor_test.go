package compression

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllAlgorithms(t *testing.T) {
	original := []byte(strings.Repeat(`{"id":1,"name":"Rick Sanchez","status":"Alive"}`+"\n", 200))

	for _, alg := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate} {
		t.Run(string(alg), func(t *testing.T) {
			compressed, err := Compress(original, alg, Default)
			require.NoError(t, err)
			if alg != None {
				assert.Less(t, len(compressed), len(original))
			}

			decompressed, err := Decompress(compressed, alg)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(original, decompressed))
		})
	}
}

func TestWriterLeavesDestinationOpen(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Zstd, Fastest)
	require.NoError(t, err)

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	n := buf.Len()
	buf.WriteString("trailer")
	assert.Equal(t, n+len("trailer"), buf.Len())
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)
	assert.Equal(t, ".zst", alg.Extension())
	assert.Equal(t, "zstd", alg.ContentEncoding())

	alg, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, alg)
	assert.Empty(t, alg.Extension())

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)

	_, err = NewWriter(&bytes.Buffer{}, Algorithm("brotli"), Default)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Default, ParseLevel(0))
	assert.Equal(t, Fastest, ParseLevel(1))
	assert.Equal(t, Default, ParseLevel(4))
	assert.Equal(t, Better, ParseLevel(6))
	assert.Equal(t, Best, ParseLevel(12))
}
