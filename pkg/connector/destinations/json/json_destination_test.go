package json

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/compression"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func characterStream(n int, streamErr error) *core.RecordStream {
	records := make(chan *pool.Record, n)
	errs := make(chan error, 1)
	for i := 1; i <= n; i++ {
		records <- pool.NewStreamRecord("rickmorty", "characters", "id", int64(i-1), map[string]interface{}{
			"id":   i,
			"name": fmt.Sprintf("Character %d", i),
		})
	}
	if streamErr != nil {
		errs <- streamErr
	}
	close(records)
	close(errs)
	return &core.RecordStream{Records: records, Errors: errs}
}

func newDestination(t *testing.T, creds map[string]string) (*Destination, *config.BaseConfig) {
	t.Helper()
	cfg := config.NewBaseConfig("json", "destination")
	cfg.Performance.BatchSize = 4
	cfg.Security.Credentials = creds
	d, err := NewDestination("json", cfg)
	require.NoError(t, err)
	return d, cfg
}

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, jsonpool.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "characters.jsonl")
	d, cfg := newDestination(t, map[string]string{"path": path})
	ctx := context.Background()

	require.NoError(t, d.Initialize(ctx, cfg))
	require.NoError(t, d.Write(ctx, characterStream(10, nil)))
	require.NoError(t, d.Close(ctx))

	lines := readLines(t, path)
	require.Len(t, lines, 10)
	assert.Equal(t, "Character 1", lines[0]["name"])
	assert.Equal(t, float64(10), lines[9]["id"])

	m := d.Metrics()
	assert.Equal(t, int64(10), m["records_written"])
	assert.Positive(t, m["bytes_written"])
}

func TestWriteArrayEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "characters.json")
	d, cfg := newDestination(t, map[string]string{
		"path":     path,
		"format":   "array",
		"envelope": "true",
	})
	ctx := context.Background()

	require.NoError(t, d.Initialize(ctx, cfg))
	require.NoError(t, d.Write(ctx, characterStream(3, nil)))
	require.NoError(t, d.Close(ctx))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []Envelope
	require.NoError(t, jsonpool.Unmarshal(raw, &out))
	require.Len(t, out, 3)
	assert.Equal(t, "characters", out[0].Stream)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "Character 3", out[2].Data["name"])
	assert.Positive(t, out[0].EmittedAt)
}

func TestWriteEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	d, cfg := newDestination(t, map[string]string{"path": path, "format": "array"})
	ctx := context.Background()

	require.NoError(t, d.Initialize(ctx, cfg))
	require.NoError(t, d.Write(ctx, characterStream(0, nil)))
	require.NoError(t, d.Close(ctx))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
}

func TestWriteCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "characters.jsonl")
	d, cfg := newDestination(t, map[string]string{"path": path})
	cfg.Advanced.EnableCompression = true
	cfg.Advanced.CompressionAlgorithm = "zstd"
	ctx := context.Background()

	require.NoError(t, d.Initialize(ctx, cfg))
	assert.Equal(t, path+".zst", d.Path())
	require.NoError(t, d.Write(ctx, characterStream(25, nil)))
	require.NoError(t, d.Close(ctx))

	raw, err := os.ReadFile(path + ".zst")
	require.NoError(t, err)
	plain, err := compression.Decompress(raw, compression.Zstd)
	require.NoError(t, err)
	assert.Equal(t, 25, strings.Count(string(plain), "\n"))
	assert.Contains(t, string(plain), `"name":"Character 25"`)
}

func TestWriteKeepsRecordsBeforeStreamError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.jsonl")
	d, cfg := newDestination(t, map[string]string{"path": path})
	ctx := context.Background()
	streamErr := errors.New(errors.ErrorTypeTransport, "HTTP 500")

	require.NoError(t, d.Initialize(ctx, cfg))
	err := d.Write(ctx, characterStream(20, streamErr))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
	require.NoError(t, d.Close(ctx))

	assert.Len(t, readLines(t, path), 20)
}

func TestInitializeValidation(t *testing.T) {
	ctx := context.Background()

	d, cfg := newDestination(t, nil)
	err := d.Initialize(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	d, cfg = newDestination(t, map[string]string{"path": filepath.Join(t.TempDir(), "x"), "format": "csv"})
	err = d.Initialize(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	d, _ = newDestination(t, nil)
	err = d.Write(ctx, characterStream(1, nil))
	assert.Error(t, err)
}
