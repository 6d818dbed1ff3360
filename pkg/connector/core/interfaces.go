package core

import (
	"context"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
)

// SyncMode describes how a stream can be read.
type SyncMode string

const (
	SyncModeFullRefresh SyncMode = "full_refresh"
)

// Schema describes one stream exposed by a source.
type Schema struct {
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Fields             []Field    `json:"fields"`
	PrimaryKey         []string   `json:"primary_key"`
	SupportedSyncModes []SyncMode `json:"supported_sync_modes"`
}

// Field represents a field in the schema
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Nullable    bool      `json:"nullable"`
	Primary     bool      `json:"primary,omitempty"`
}

// FieldType represents the data type of a field
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
	FieldTypeArray     FieldType = "array"
)

// Catalog lists the streams a source can read.
type Catalog struct {
	Streams []Schema `json:"streams"`
}

// Stream returns the named stream's schema.
func (c *Catalog) Stream(name string) (Schema, bool) {
	for _, s := range c.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// RecordStream represents a stream of records. Records is closed when the
// source is done; at most one error is sent on Errors before it is closed.
type RecordStream struct {
	Records <-chan *pool.Record
	Errors  <-chan error
}

// ConnectionStatus is the result of a connectivity check. Message is empty
// when OK is true.
type ConnectionStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Connector is the base interface for all connectors
type Connector interface {
	Name() string
	Type() ConnectorType
	Version() string

	Initialize(ctx context.Context, config *config.BaseConfig) error
	Close(ctx context.Context) error

	Health(ctx context.Context) error
	Metrics() map[string]interface{}
}

// Source is the interface that all source connectors must implement
type Source interface {
	Connector

	// Check probes the upstream API. It never returns an error; failures
	// are reported in the status message.
	Check(ctx context.Context) ConnectionStatus
	Discover(ctx context.Context) (*Catalog, error)
	Read(ctx context.Context) (*RecordStream, error)
}

// Destination is the interface that all destination connectors must implement
type Destination interface {
	Connector

	// Write consumes the stream until Records is closed or ctx is done.
	// Records passed to a destination are owned by it.
	Write(ctx context.Context, stream *RecordStream) error
}

// HealthStatus represents the health status of a connector
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy", "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
	Error     error                  `json:"-"`
}

// ProgressReporter receives progress updates from a running connector.
type ProgressReporter interface {
	ReportProgress(processed int64, total int64)
	ReportError(err error)
	ReportComplete()
}
