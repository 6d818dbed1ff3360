// Package postgresql loads records into PostgreSQL tables, one table per
// stream, storing each payload as jsonb.
package postgresql

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/base"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Write modes
const (
	ModeAppend = "append"
	ModeUpsert = "upsert"
)

// Columns written for every record, in COPY order.
var Columns = []string{"id", "stream", "data", "emitted_at"}

// Settings is the parsed PostgreSQL destination configuration.
type Settings struct {
	ConnectionString string
	Schema           string
	TablePrefix      string
	Mode             string
}

// ParseSettings reads the destination settings from cfg. A
// connection_string wins over the individual host/port/user fields.
func ParseSettings(cfg *config.BaseConfig) (Settings, error) {
	s := Settings{
		ConnectionString: cfg.Credential("connection_string", ""),
		Schema:           cfg.Credential("schema", "public"),
		TablePrefix:      cfg.Credential("table_prefix", ""),
		Mode:             cfg.Credential("write_mode", ModeAppend),
	}

	if s.ConnectionString == "" {
		host := cfg.Credential("host", "")
		if host == "" {
			return s, errors.New(errors.ErrorTypeConfig, "connection_string or host is required")
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   host + ":" + cfg.Credential("port", "5432"),
			Path:   "/" + cfg.Credential("database", "postgres"),
		}
		if user := cfg.Credential("username", ""); user != "" {
			if pw := cfg.Credential("password", ""); pw != "" {
				u.User = url.UserPassword(user, pw)
			} else {
				u.User = url.User(user)
			}
		}
		q := u.Query()
		q.Set("sslmode", cfg.Credential("sslmode", "prefer"))
		u.RawQuery = q.Encode()
		s.ConnectionString = u.String()
	}

	if s.Mode != ModeAppend && s.Mode != ModeUpsert {
		return s, errors.Newf(errors.ErrorTypeConfig, "unsupported write_mode %q", s.Mode)
	}
	return s, nil
}

// Table returns the identifier of the table holding stream.
func (s Settings) Table(stream string) pgx.Identifier {
	return pgx.Identifier{s.Schema, s.TablePrefix + sanitizeName(stream)}
}

// CreateTableSQL returns the DDL for a stream table. Upsert tables key on
// id; append tables accept duplicates across syncs.
func CreateTableSQL(table pgx.Identifier, upsert bool) string {
	id := "id text NOT NULL"
	if upsert {
		id = "id text PRIMARY KEY"
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s, stream text NOT NULL, data jsonb NOT NULL, emitted_at timestamptz NOT NULL)",
		table.Sanitize(), id)
}

// UpsertSQL returns the statement used per record in upsert mode.
func UpsertSQL(table pgx.Identifier) string {
	return fmt.Sprintf(
		"INSERT INTO %s (id, stream, data, emitted_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (id) DO UPDATE SET stream = EXCLUDED.stream, data = EXCLUDED.data, emitted_at = EXCLUDED.emitted_at",
		table.Sanitize())
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "records"
	}
	return b.String()
}

// Rows converts records into COPY rows matching Columns.
func Rows(stream string, records []*pool.Record) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		data, err := jsonpool.Marshal(rec.Data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode record "+rec.ID)
		}
		at := rec.Metadata.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		rows = append(rows, []interface{}{rec.ID, stream, data, at.UTC()})
	}
	return rows, nil
}

// Destination writes records into PostgreSQL.
type Destination struct {
	*base.BaseConnector

	settings  Settings
	batchSize int
	pool      *pgxpool.Pool

	tablesMu sync.Mutex
	tables   map[string]pgx.Identifier

	recordsWritten int64
}

// NewDestination creates an uninitialized PostgreSQL destination
func NewDestination(name string, _ *config.BaseConfig) (*Destination, error) {
	if name == "" {
		name = "postgresql"
	}
	return &Destination{
		BaseConnector: base.NewBaseConnector(name, core.ConnectorTypeDestination, "1.0.0"),
		tables:        make(map[string]pgx.Identifier),
	}, nil
}

// Initialize opens the connection pool and verifies connectivity
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

	poolConfig, err := pgxpool.ParseConfig(settings.ConnectionString)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse connection string")
	}
	poolConfig.MaxConns = int32(cfg.Performance.MaxConcurrency)
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = 4
	}
	if cfg.Timeouts.Idle > 0 {
		poolConfig.MaxConnIdleTime = cfg.Timeouts.Idle
	}
	if cfg.Timeouts.Connection > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.Timeouts.Connection
	}

	d.pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create connection pool")
	}
	if err := d.pool.Ping(ctx); err != nil {
		d.pool.Close()
		d.pool = nil
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to PostgreSQL")
	}

	d.GetLogger().Info("postgresql destination initialized",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.String("schema", settings.Schema),
		zap.String("write_mode", settings.Mode),
		zap.Int32("max_connections", poolConfig.MaxConns))
	return nil
}

// Write loads the stream batch by batch. Batches received before a source
// error are committed before the error is returned.
func (d *Destination) Write(ctx context.Context, stream *core.RecordStream) error {
	if d.pool == nil {
		return errors.New(errors.ErrorTypeConfig, "destination is not initialized")
	}

	n, err := base.ConsumeBatches(ctx, stream, d.batchSize, d.writeBatch)
	d.GetLogger().Info("records loaded", zap.Int64("records", n))
	if err != nil {
		d.RecordFailure(err)
		return err
	}
	d.RecordSuccess()
	return nil
}

func (d *Destination) writeBatch(ctx context.Context, batch []*pool.Record) error {
	byStream := make(map[string][]*pool.Record)
	var order []string
	for _, rec := range batch {
		s := rec.Metadata.StreamID
		if _, ok := byStream[s]; !ok {
			order = append(order, s)
		}
		byStream[s] = append(byStream[s], rec)
	}

	for _, stream := range order {
		if err := d.load(ctx, stream, byStream[stream]); err != nil {
			metrics.DestinationWrites.WithLabelValues(d.Name(), "failure").Inc()
			return err
		}
	}

	atomic.AddInt64(&d.recordsWritten, int64(len(batch)))
	d.Progress().IncrementProcessed(int64(len(batch)))
	metrics.DestinationWrites.WithLabelValues(d.Name(), "success").Add(float64(len(batch)))
	return nil
}

func (d *Destination) load(ctx context.Context, stream string, records []*pool.Record) error {
	table, err := d.ensureTable(ctx, stream)
	if err != nil {
		return err
	}
	rows, err := Rows(stream, records)
	if err != nil {
		return err
	}

	if d.settings.Mode == ModeUpsert {
		b := &pgx.Batch{}
		stmt := UpsertSQL(table)
		for _, row := range rows {
			b.Queue(stmt, row...)
		}
		if err := d.pool.SendBatch(ctx, b).Close(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "upsert failed").
				WithDetail("table", table.Sanitize())
		}
		return nil
	}

	copied, err := d.pool.CopyFrom(ctx, table, Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "copy failed").
			WithDetail("table", table.Sanitize())
	}
	if copied != int64(len(rows)) {
		return errors.Newf(errors.ErrorTypeQuery, "copied %d of %d rows", copied, len(rows)).
			WithDetail("table", table.Sanitize())
	}
	return nil
}

func (d *Destination) ensureTable(ctx context.Context, stream string) (pgx.Identifier, error) {
	d.tablesMu.Lock()
	defer d.tablesMu.Unlock()

	if t, ok := d.tables[stream]; ok {
		return t, nil
	}

	table := d.settings.Table(stream)
	if _, err := d.pool.Exec(ctx, CreateTableSQL(table, d.settings.Mode == ModeUpsert)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to create table").
			WithDetail("table", table.Sanitize())
	}
	d.tables[stream] = table
	d.GetLogger().Debug("table ready", zap.String("table", table.Sanitize()))
	return table, nil
}

// Health pings the database in addition to the base checks
func (d *Destination) Health(ctx context.Context) error {
	if err := d.BaseConnector.Health(ctx); err != nil {
		return err
	}
	if d.pool == nil {
		return errors.New(errors.ErrorTypeConnection, "connection pool not initialized")
	}
	if err := d.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "ping failed")
	}
	return nil
}

// Close closes the connection pool
func (d *Destination) Close(ctx context.Context) error {
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return d.BaseConnector.Close(ctx)
}

// Metrics returns metrics for the destination
func (d *Destination) Metrics() map[string]interface{} {
	m := d.BaseConnector.Metrics()
	m["records_written"] = atomic.LoadInt64(&d.recordsWritten)
	m["write_mode"] = d.settings.Mode
	if d.pool != nil {
		stat := d.pool.Stat()
		m["pool_total_conns"] = stat.TotalConns()
		m["pool_idle_conns"] = stat.IdleConns()
	}
	return m
}
