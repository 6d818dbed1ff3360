package pool

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"
)

// RecordMetadata carries provenance for a record.
type RecordMetadata struct {
	// Source identifies the connector that produced the record
	Source string `json:"source,omitempty"`
	// StreamID names the stream the record belongs to
	StreamID string `json:"stream_id,omitempty"`
	// Offset is the position of the record within its stream for this sync
	Offset int64 `json:"offset,omitempty"`
	// Timestamp when the record was emitted
	Timestamp time.Time `json:"timestamp"`
	// Custom metadata fields, e.g. the page token the record came from
	Custom map[string]interface{} `json:"custom,omitempty"`
}

// Record is the unit passed from sources to destinations. Data holds the
// API object exactly as decoded; the fields are never reshaped.
type Record struct {
	// ID is the record's primary-key value rendered as a string
	ID string `json:"id"`
	// Data contains the record payload
	Data map[string]interface{} `json:"data"`
	// Metadata contains source, stream and timing information
	Metadata RecordMetadata `json:"metadata"`
}

// RecordPool recycles Record values. Data maps are owned by the record and
// are dropped on reset rather than cleared, since they usually come straight
// from the JSON decoder.
var RecordPool = New(
	func() *Record {
		return &Record{}
	},
	func(r *Record) {
		r.ID = ""
		r.Data = nil
		r.Metadata = RecordMetadata{}
	},
)

var idCounter uint64

// GetRecord retrieves a Record from the global pool with a fresh timestamp.
// Records must be returned with Release when done.
func GetRecord() *Record {
	r := RecordPool.Get()
	r.Metadata.Timestamp = time.Now()
	return r
}

// PutRecord returns a Record to the global pool. Safe to call with nil.
func PutRecord(record *Record) {
	if record == nil {
		return
	}
	if record.Metadata.Custom != nil {
		PutMap(record.Metadata.Custom)
		record.Metadata.Custom = nil
	}
	RecordPool.Put(record)
}

// NewRecord creates a pooled record for source with the given payload.
// The data map is used directly. When the payload has no usable
// primary-key value a generated ID is assigned.
func NewRecord(source string, data map[string]interface{}) *Record {
	r := GetRecord()
	r.Data = data
	r.Metadata.Source = source
	r.ID = GenerateID("rec")
	return r
}

// NewStreamRecord creates a record for a named stream, keyed by the value of
// primaryKey in data.
func NewStreamRecord(source, streamID, primaryKey string, offset int64, data map[string]interface{}) *Record {
	r := GetRecord()
	r.Data = data
	r.Metadata.Source = source
	r.Metadata.StreamID = streamID
	r.Metadata.Offset = offset
	if id, ok := KeyString(data, primaryKey); ok {
		r.ID = id
	} else {
		r.ID = GenerateID(streamID)
	}
	return r
}

// KeyString renders data[key] as a string. JSON numbers decoded with
// UseNumber, plain numbers and strings are supported.
func KeyString(data map[string]interface{}, key string) (string, bool) {
	if key == "" || data == nil {
		return "", false
	}
	switch v := data[key].(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case fmt.Stringer:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return fmt.Sprint(v), true
	}
}

// SetData sets a data field, initializing the map when needed.
func (r *Record) SetData(key string, value interface{}) {
	if r.Data == nil {
		r.Data = make(map[string]interface{})
	}
	r.Data[key] = value
}

// GetData retrieves a data field from the record.
func (r *Record) GetData(key string) (interface{}, bool) {
	if r.Data == nil {
		return nil, false
	}
	val, ok := r.Data[key]
	return val, ok
}

// SetMetadata sets a custom metadata field.
func (r *Record) SetMetadata(key string, value interface{}) {
	if r.Metadata.Custom == nil {
		r.Metadata.Custom = GetMap()
	}
	r.Metadata.Custom[key] = value
}

// GetMetadata retrieves a custom metadata field from the record.
func (r *Record) GetMetadata(key string) (interface{}, bool) {
	if r.Metadata.Custom == nil {
		return nil, false
	}
	val, ok := r.Metadata.Custom[key]
	return val, ok
}

// Release returns the record to the pool.
//
// Example:
//
//	record := pool.GetRecord()
//	defer record.Release()
func (r *Record) Release() {
	PutRecord(r)
}

// GenerateID generates a unique ID of the form "prefix-N".
func GenerateID(prefix string) string {
	buf := IDBufferPool.Get()
	defer IDBufferPool.Put(buf[:0])

	id := atomic.AddUint64(&idCounter, 1)
	buf = append(buf, prefix...)
	buf = append(buf, '-')
	buf = strconv.AppendUint(buf, id, 10)

	return string(buf)
}
