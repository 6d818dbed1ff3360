// Package s3 uploads record batches to Amazon S3 (or any S3-compatible
// store) as JSON objects, one object per stream per batch.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/compression"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/base"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const (
	defaultRegion         = "us-east-1"
	defaultUploadPartSize = 5 * 1024 * 1024 // 5MB
	defaultMaxConcurrency = 4
)

// Settings is the parsed S3 destination configuration.
type Settings struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Format          string
	Algorithm       compression.Algorithm
	Level           compression.Level
	PartSize        int64
	Concurrency     int
}

// ParseSettings reads the destination settings from cfg.
func ParseSettings(cfg *config.BaseConfig) (Settings, error) {
	s := Settings{
		Bucket:          cfg.Credential("bucket", ""),
		Prefix:          strings.Trim(cfg.Credential("prefix", ""), "/"),
		Region:          cfg.Credential("region", defaultRegion),
		Endpoint:        cfg.Credential("endpoint", ""),
		AccessKeyID:     cfg.Credential("aws_access_key_id", ""),
		SecretAccessKey: cfg.Credential("aws_secret_access_key", ""),
		Format:          cfg.Credential("format", "jsonl"),
		Algorithm:       compression.None,
		PartSize:        defaultUploadPartSize,
		Concurrency:     cfg.Performance.MaxConcurrency,
	}
	if s.Bucket == "" {
		return s, errors.New(errors.ErrorTypeConfig, "bucket is required")
	}
	if s.Format != "jsonl" && s.Format != "json" {
		return s, errors.Newf(errors.ErrorTypeConfig, "unsupported format %q", s.Format)
	}
	if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
		return s, errors.New(errors.ErrorTypeConfig, "aws_access_key_id and aws_secret_access_key must be set together")
	}
	if v := cfg.Credential("upload_part_size", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < manager.MinUploadPartSize {
			return s, errors.Newf(errors.ErrorTypeConfig, "upload_part_size must be an integer >= %d", manager.MinUploadPartSize)
		}
		s.PartSize = n
	}
	if s.Concurrency <= 0 {
		s.Concurrency = defaultMaxConcurrency
	}
	if cfg.Advanced.IsCompressionEnabled() {
		alg, err := compression.ParseAlgorithm(cfg.Advanced.CompressionAlgorithm)
		if err != nil {
			return s, errors.Wrap(err, errors.ErrorTypeConfig, "invalid compression settings")
		}
		s.Algorithm = alg
		s.Level = compression.ParseLevel(cfg.Advanced.CompressionLevel)
	}
	return s, nil
}

// ObjectKey builds prefix/stream/yyyy/mm/dd/part-<run>-<seq>.<ext>.
func (s Settings) ObjectKey(stream, run string, seq int64, at time.Time) string {
	name := fmt.Sprintf("part-%s-%05d.%s%s", run, seq, s.Format, s.Algorithm.Extension())
	return path.Join(s.Prefix, stream, at.UTC().Format("2006/01/02"), name)
}

func (s Settings) contentType() string {
	if s.Format == "json" {
		return "application/json"
	}
	return "application/x-ndjson"
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Destination uploads batches to S3.
type Destination struct {
	*base.BaseConnector

	settings  Settings
	batchSize int
	runID     string
	uploader  uploader
	now       func() time.Time

	seq            int64
	recordsWritten int64
	bytesWritten   int64
	objectsCreated int64
}

// NewDestination creates an uninitialized S3 destination
func NewDestination(name string, _ *config.BaseConfig) (*Destination, error) {
	if name == "" {
		name = "s3"
	}
	return &Destination{
		BaseConnector: base.NewBaseConnector(name, core.ConnectorTypeDestination, "1.0.0"),
		now:           time.Now,
	}, nil
}

// Initialize loads AWS configuration and builds the uploader
func (d *Destination) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := d.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	settings, err := ParseSettings(cfg)
	if err != nil {
		return err
	}
	d.settings = settings
	d.batchSize = cfg.Performance.BatchSize
	d.runID = d.now().UTC().Format("20060102T150405")

	if d.uploader == nil {
		client, err := newClient(ctx, settings)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
		}
		d.uploader = manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = settings.PartSize
			u.Concurrency = settings.Concurrency
		})
	}

	d.GetLogger().Info("s3 destination initialized",
		zap.String("bucket", settings.Bucket),
		zap.String("prefix", settings.Prefix),
		zap.String("format", settings.Format),
		zap.String("compression", string(settings.Algorithm)))
	return nil
}

func newClient(ctx context.Context, s Settings) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.Region)}
	if s.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Write uploads the stream batch by batch. Batches received before a
// source error are uploaded before the error is returned.
func (d *Destination) Write(ctx context.Context, stream *core.RecordStream) error {
	if d.uploader == nil {
		return errors.New(errors.ErrorTypeConfig, "destination is not initialized")
	}

	n, err := base.ConsumeBatches(ctx, stream, d.batchSize, d.uploadBatch)
	d.GetLogger().Info("records uploaded",
		zap.Int64("records", n),
		zap.Int64("objects", atomic.LoadInt64(&d.objectsCreated)))
	if err != nil {
		d.RecordFailure(err)
		return err
	}
	d.RecordSuccess()
	return nil
}

func (d *Destination) uploadBatch(ctx context.Context, batch []*pool.Record) error {
	order := make([]string, 0, 1)
	byStream := make(map[string][]*pool.Record)
	for _, rec := range batch {
		s := rec.Metadata.StreamID
		if s == "" {
			s = "default"
		}
		if _, ok := byStream[s]; !ok {
			order = append(order, s)
		}
		byStream[s] = append(byStream[s], rec)
	}

	for _, stream := range order {
		if err := d.uploadObject(ctx, stream, byStream[stream]); err != nil {
			metrics.DestinationWrites.WithLabelValues(d.Name(), "failure").Inc()
			return err
		}
	}

	atomic.AddInt64(&d.recordsWritten, int64(len(batch)))
	d.Progress().IncrementProcessed(int64(len(batch)))
	metrics.DestinationWrites.WithLabelValues(d.Name(), "success").Add(float64(len(batch)))
	return nil
}

func (d *Destination) uploadObject(ctx context.Context, stream string, records []*pool.Record) error {
	body, err := d.encode(records)
	if err != nil {
		return err
	}

	seq := atomic.AddInt64(&d.seq, 1)
	key := d.settings.ObjectKey(stream, d.runID, seq, d.now())

	input := &s3.PutObjectInput{
		Bucket:      aws.String(d.settings.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(d.settings.contentType()),
	}
	if enc := d.settings.Algorithm.ContentEncoding(); enc != "" {
		input.ContentEncoding = aws.String(enc)
	}

	start := time.Now()
	if _, err := d.uploader.Upload(ctx, input); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload "+key).
			WithDetail("bucket", d.settings.Bucket)
	}

	atomic.AddInt64(&d.bytesWritten, int64(len(body)))
	atomic.AddInt64(&d.objectsCreated, 1)
	d.GetLogger().Debug("object uploaded",
		zap.String("key", key),
		zap.Int("records", len(records)),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (d *Destination) encode(records []*pool.Record) ([]byte, error) {
	raw, err := jsonpool.MarshalRecords(records, d.settings.Format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode batch")
	}
	if d.settings.Algorithm == compression.None {
		return raw, nil
	}
	out, err := compression.Compress(raw, d.settings.Algorithm, d.settings.Level)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to compress batch")
	}
	return out, nil
}

// Close logs upload totals and closes the connector
func (d *Destination) Close(ctx context.Context) error {
	d.GetLogger().Info("s3 destination closed",
		zap.Int64("records_written", atomic.LoadInt64(&d.recordsWritten)),
		zap.Int64("bytes_written", atomic.LoadInt64(&d.bytesWritten)),
		zap.Int64("objects_created", atomic.LoadInt64(&d.objectsCreated)))
	return d.BaseConnector.Close(ctx)
}

// Metrics returns metrics for the destination
func (d *Destination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	m["bucket"] = d.settings.Bucket
	m["records_written"] = atomic.LoadInt64(&d.recordsWritten)
	m["bytes_written"] = atomic.LoadInt64(&d.bytesWritten)
	m["objects_created"] = atomic.LoadInt64(&d.objectsCreated)
	return m
}
