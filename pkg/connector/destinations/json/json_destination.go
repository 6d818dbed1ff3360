// Package json writes records to a local file as line-delimited JSON or a
// JSON array, optionally compressed.
//
//	type: json
//	security:
//	  credentials:
//	    path: out/characters.jsonl
//	    format: lines        # or array
//	    envelope: "true"     # wrap payloads with stream/id/emitted_at
//	advanced:
//	  enable_compression: true
//	  compression_algorithm: zstd
package json

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/compression"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/base"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"go.uber.org/zap"
)

// Format is the layout of the output file
type Format string

const (
	// FormatLines writes one JSON object per line
	FormatLines Format = "lines"
	// FormatArray writes a single JSON array
	FormatArray Format = "array"
)

// Envelope is the record layout written when envelope mode is on.
type Envelope struct {
	Stream    string                 `json:"stream"`
	ID        string                 `json:"id"`
	EmittedAt int64                  `json:"emitted_at"`
	Data      map[string]interface{} `json:"data"`
}

// Destination writes records to a JSON file.
type Destination struct {
	*base.BaseConnector

	filePath  string
	format    Format
	pretty    bool
	indent    string
	envelope  bool
	algorithm compression.Algorithm
	level     compression.Level
	batchSize int

	file       *os.File
	counter    *countingWriter
	compressor io.WriteCloser
	writer     *bufio.Writer
	encoder    *jsonpool.StreamingEncoder
	mu         sync.Mutex

	recordsWritten int64
}

// NewDestination creates an uninitialized JSON destination
func NewDestination(name string, _ *config.BaseConfig) (*Destination, error) {
	if name == "" {
		name = "json"
	}
	return &Destination{
		BaseConnector: base.NewBaseConnector(name, core.ConnectorTypeDestination, "1.0.0"),
	}, nil
}

// Initialize opens the output file
func (d *Destination) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := d.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	d.filePath = cfg.Credential("path", "")
	if d.filePath == "" {
		return errors.New(errors.ErrorTypeConfig, "missing required file path in security.credentials")
	}

	d.format = Format(cfg.Credential("format", string(FormatLines)))
	if d.format != FormatLines && d.format != FormatArray {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported json format %q", d.format)
	}
	d.pretty = cfg.Credential("pretty", "false") == "true"
	d.indent = cfg.Credential("indent", "  ")
	d.envelope = cfg.Credential("envelope", "false") == "true"
	d.batchSize = cfg.Performance.BatchSize

	d.algorithm = compression.None
	if cfg.Advanced.IsCompressionEnabled() {
		alg, err := compression.ParseAlgorithm(cfg.Advanced.CompressionAlgorithm)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid compression settings")
		}
		d.algorithm = alg
		d.level = compression.ParseLevel(cfg.Advanced.CompressionLevel)
		if ext := alg.Extension(); ext != "" && !strings.HasSuffix(d.filePath, ext) {
			d.filePath += ext
		}
	}

	if err := d.open(); err != nil {
		return err
	}

	d.GetLogger().Info("json destination initialized",
		zap.String("path", d.filePath),
		zap.String("format", string(d.format)),
		zap.String("compression", string(d.algorithm)))
	return nil
}

func (d *Destination) open() error {
	dir := filepath.Dir(d.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory "+dir)
	}

	file, err := os.Create(d.filePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file "+d.filePath)
	}
	d.file = file
	d.counter = &countingWriter{w: file}

	d.compressor, err = compression.NewWriter(d.counter, d.algorithm, d.level)
	if err != nil {
		_ = file.Close()
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create compressor")
	}

	d.writer = bufio.NewWriterSize(d.compressor, 64*1024)
	d.encoder, err = jsonpool.NewStreamingEncoder(d.writer, d.format == FormatArray)
	if err != nil {
		_ = file.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to start json encoder")
	}
	if d.pretty {
		d.encoder.SetPretty(true, d.indent)
	}
	return nil
}

// Write consumes the stream and appends every record to the file. Records
// that arrived before a source error are written before the error is
// returned.
func (d *Destination) Write(ctx context.Context, stream *core.RecordStream) error {
	if d.encoder == nil {
		return errors.New(errors.ErrorTypeConfig, "destination is not initialized")
	}

	n, err := base.ConsumeBatches(ctx, stream, d.batchSize, d.writeBatch)
	d.mu.Lock()
	flushErr := d.writer.Flush()
	d.mu.Unlock()

	d.GetLogger().Info("records written", zap.Int64("records", n), zap.String("path", d.filePath))
	if err != nil {
		d.RecordFailure(err)
		return err
	}
	if flushErr != nil {
		return errors.Wrap(flushErr, errors.ErrorTypeFile, "failed to flush output")
	}
	d.RecordSuccess()
	return nil
}

func (d *Destination) writeBatch(_ context.Context, batch []*pool.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, rec := range batch {
		var v interface{} = rec.Data
		if d.envelope {
			v = Envelope{
				Stream:    rec.Metadata.StreamID,
				ID:        rec.ID,
				EmittedAt: rec.Metadata.Timestamp.UnixMilli(),
				Data:      rec.Data,
			}
		}
		if err := d.encoder.Encode(v); err != nil {
			metrics.DestinationWrites.WithLabelValues(d.Name(), "failure").Inc()
			return errors.Wrap(err, errors.ErrorTypeData, "failed to encode record "+rec.ID)
		}
	}

	atomic.AddInt64(&d.recordsWritten, int64(len(batch)))
	d.Progress().IncrementProcessed(int64(len(batch)))
	metrics.DestinationWrites.WithLabelValues(d.Name(), "success").Add(float64(len(batch)))
	return nil
}

// Close finalizes and closes the file
func (d *Destination) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if d.encoder != nil {
		keep(d.encoder.Close())
		d.encoder = nil
	}
	if d.writer != nil {
		keep(d.writer.Flush())
		d.writer = nil
	}
	if d.compressor != nil {
		keep(d.compressor.Close())
		d.compressor = nil
	}
	if d.file != nil {
		keep(d.file.Close())
		d.file = nil
	}

	keep(d.BaseConnector.Close(ctx))
	if firstErr != nil {
		return errors.Wrap(firstErr, errors.ErrorTypeFile, "failed to close json destination")
	}
	return nil
}

// Path returns the output file path, including any compression suffix
func (d *Destination) Path() string {
	return d.filePath
}

// Metrics returns metrics for the destination
func (d *Destination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	m["format"] = string(d.format)
	m["records_written"] = atomic.LoadInt64(&d.recordsWritten)
	if d.counter != nil {
		m["bytes_written"] = d.counter.Count()
	}
	if d.algorithm != compression.None {
		m["compression_algorithm"] = string(d.algorithm)
	}
	return m
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	atomic.AddInt64(&c.n, int64(n))
	return n, err
}

func (c *countingWriter) Count() int64 {
	return atomic.LoadInt64(&c.n)
}
