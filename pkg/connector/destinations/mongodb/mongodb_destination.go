// Package mongodb writes records into MongoDB, one collection per stream.
package mongodb

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/base"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Write modes
const (
	ModeUpsert = "upsert"
	ModeAppend = "append"
)

// Settings is the parsed MongoDB destination configuration.
type Settings struct {
	URI              string
	Database         string
	CollectionPrefix string
	Mode             string
}

// ParseSettings reads the destination settings from cfg.
func ParseSettings(cfg *config.BaseConfig) (Settings, error) {
	s := Settings{
		URI:              cfg.Credential("uri", ""),
		Database:         cfg.Credential("database", "rickmorty"),
		CollectionPrefix: cfg.Credential("collection_prefix", ""),
		Mode:             cfg.Credential("write_mode", ModeUpsert),
	}
	if s.URI == "" {
		return s, errors.New(errors.ErrorTypeConfig, "uri is required")
	}
	if s.Mode != ModeUpsert && s.Mode != ModeAppend {
		return s, errors.Newf(errors.ErrorTypeConfig, "unsupported write_mode %q", s.Mode)
	}
	return s, nil
}

// Collection returns the collection name for stream.
func (s Settings) Collection(stream string) string {
	if stream == "" {
		stream = "records"
	}
	return s.CollectionPrefix + strings.ReplaceAll(stream, "$", "_")
}

// Document converts a record into its stored form. In upsert mode the
// record ID becomes _id; otherwise MongoDB assigns one and the ID is kept
// as record_id.
func Document(rec *pool.Record, upsert bool) bson.D {
	at := rec.Metadata.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	idKey := "record_id"
	if upsert {
		idKey = "_id"
	}
	return bson.D{
		{Key: idKey, Value: rec.ID},
		{Key: "stream", Value: rec.Metadata.StreamID},
		{Key: "data", Value: normalize(rec.Data)},
		{Key: "emitted_at", Value: at.UTC()},
	}
}

// normalize turns decoded JSON numbers into int64 or float64 so they are
// stored as BSON numbers rather than strings.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(bson.M, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make(bson.A, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case jsonpool.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// Destination writes records to MongoDB.
type Destination struct {
	*base.BaseConnector

	settings  Settings
	batchSize int
	client    *mongo.Client
	database  *mongo.Database

	recordsWritten int64
	upserted       int64
	modified       int64
}

// NewDestination creates an uninitialized MongoDB destination
func NewDestination(name string, _ *config.BaseConfig) (*Destination, error) {
	if name == "" {
		name = "mongodb"
	}
	return &Destination{
		BaseConnector: base.NewBaseConnector(name, core.ConnectorTypeDestination, "1.0.0"),
	}, nil
}

// Initialize connects to MongoDB and verifies the connection
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

	opts := options.Client().ApplyURI(settings.URI).SetAppName("nebula-rickmorty")
	if cfg.Timeouts.Connection > 0 {
		opts.SetConnectTimeout(cfg.Timeouts.Connection)
	}
	if cfg.Performance.MaxConcurrency > 0 {
		opts.SetMaxPoolSize(uint64(cfg.Performance.MaxConcurrency))
	}

	d.client, err = mongo.Connect(ctx, opts)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to MongoDB")
	}
	if err := d.client.Ping(ctx, nil); err != nil {
		_ = d.client.Disconnect(ctx)
		d.client = nil
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping MongoDB")
	}
	d.database = d.client.Database(settings.Database)

	d.GetLogger().Info("mongodb destination initialized",
		zap.String("database", settings.Database),
		zap.String("write_mode", settings.Mode))
	return nil
}

// Write stores the stream batch by batch. Batches received before a source
// error are stored before the error is returned.
func (d *Destination) Write(ctx context.Context, stream *core.RecordStream) error {
	if d.database == nil {
		return errors.New(errors.ErrorTypeConfig, "destination is not initialized")
	}

	n, err := base.ConsumeBatches(ctx, stream, d.batchSize, d.writeBatch)
	d.GetLogger().Info("records stored",
		zap.Int64("records", n),
		zap.Int64("upserted", atomic.LoadInt64(&d.upserted)),
		zap.Int64("modified", atomic.LoadInt64(&d.modified)))
	if err != nil {
		d.RecordFailure(err)
		return err
	}
	d.RecordSuccess()
	return nil
}

func (d *Destination) writeBatch(ctx context.Context, batch []*pool.Record) error {
	byCollection := make(map[string][]*pool.Record)
	var order []string
	for _, rec := range batch {
		name := d.settings.Collection(rec.Metadata.StreamID)
		if _, ok := byCollection[name]; !ok {
			order = append(order, name)
		}
		byCollection[name] = append(byCollection[name], rec)
	}

	for _, name := range order {
		if err := d.store(ctx, d.database.Collection(name), byCollection[name]); err != nil {
			metrics.DestinationWrites.WithLabelValues(d.Name(), "failure").Inc()
			return errors.Wrap(err, errors.ErrorTypeQuery, "failed to store batch").
				WithDetail("collection", name)
		}
	}

	atomic.AddInt64(&d.recordsWritten, int64(len(batch)))
	d.Progress().IncrementProcessed(int64(len(batch)))
	metrics.DestinationWrites.WithLabelValues(d.Name(), "success").Add(float64(len(batch)))
	return nil
}

func (d *Destination) store(ctx context.Context, coll *mongo.Collection, records []*pool.Record) error {
	if d.settings.Mode == ModeAppend {
		docs := make([]interface{}, len(records))
		for i, rec := range records {
			docs[i] = Document(rec, false)
		}
		_, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		return err
	}

	models := make([]mongo.WriteModel, len(records))
	for i, rec := range records {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: rec.ID}}).
			SetReplacement(Document(rec, true)).
			SetUpsert(true)
	}
	res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return err
	}
	atomic.AddInt64(&d.upserted, res.UpsertedCount)
	atomic.AddInt64(&d.modified, res.ModifiedCount)
	return nil
}

// Health pings MongoDB in addition to the base checks
func (d *Destination) Health(ctx context.Context) error {
	if err := d.BaseConnector.Health(ctx); err != nil {
		return err
	}
	if d.client == nil {
		return errors.New(errors.ErrorTypeConnection, "client not initialized")
	}
	if err := d.client.Ping(ctx, nil); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "ping failed")
	}
	return nil
}

// Close disconnects the client
func (d *Destination) Close(ctx context.Context) error {
	if d.client != nil {
		if err := d.client.Disconnect(ctx); err != nil {
			d.GetLogger().Warn("disconnect failed", zap.Error(err))
		}
		d.client = nil
		d.database = nil
	}
	return d.BaseConnector.Close(ctx)
}

// Metrics returns metrics for the destination
func (d *Destination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	m["records_written"] = atomic.LoadInt64(&d.recordsWritten)
	m["upserted"] = atomic.LoadInt64(&d.upserted)
	m["modified"] = atomic.LoadInt64(&d.modified)
	m["write_mode"] = d.settings.Mode
	return m
}
