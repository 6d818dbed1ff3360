package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func characterRecords(n int) []*pool.Record {
	records := make([]*pool.Record, n)
	for i := 0; i < n; i++ {
		records[i] = pool.NewRecord("test", map[string]interface{}{
			"id":   i + 1,
			"name": "Character",
		})
	}
	return records
}

func TestDecodeKeepsIntegerText(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, Decode(strings.NewReader(`{"id": 183, "name": "Johnny Depp"}`), &v))

	id, ok := v["id"].(Number)
	require.True(t, ok)
	assert.Equal(t, "183", id.String())
}

func TestMarshalRecords(t *testing.T) {
	records := characterRecords(2)

	lines, err := MarshalRecords(records, "jsonl")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1,\"name\":\"Character\"}\n{\"id\":2,\"name\":\"Character\"}\n", string(lines))

	array, err := MarshalRecords(records, "array")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"name":"Character"},{"id":2,"name":"Character"}]`, string(array))

	empty, err := MarshalRecordsArray(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestStreamingEncoder(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		var buf bytes.Buffer
		enc, err := NewStreamingEncoder(&buf, true)
		require.NoError(t, err)
		require.NoError(t, enc.Encode(map[string]int{"id": 1}))
		require.NoError(t, enc.Encode(map[string]int{"id": 2}))
		require.NoError(t, enc.Close())

		var out []map[string]interface{}
		require.NoError(t, Unmarshal(buf.Bytes(), &out))
		assert.Len(t, out, 2)
	})

	t.Run("lines", func(t *testing.T) {
		var buf bytes.Buffer
		enc, err := NewStreamingEncoder(&buf, false)
		require.NoError(t, err)
		require.NoError(t, enc.Encode(map[string]string{"url": "https://a/?b=1&c=2"}))
		require.NoError(t, enc.Close())

		assert.Equal(t, "{\"url\":\"https://a/?b=1&c=2\"}\n", buf.String())
	})
}
