// Package json provides JSON serialization backed by goccy/go-json with
// pooled buffers.
package json

import (
	"bytes"
	"io"
	"sync"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	gojson "github.com/goccy/go-json"
)

// Number is the type used for numeric values when decoding with UseNumber.
type Number = gojson.Number

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetEncoder returns an encoder writing to w with HTML escaping disabled.
func GetEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// GetDecoder returns a decoder reading from r. Numbers decode as Number so
// integer identifiers keep their exact text.
func GetDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for encoding/json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for encoding/json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Decode reads a single JSON value from r into v using UseNumber.
func Decode(r io.Reader, v interface{}) error {
	return GetDecoder(r).Decode(v)
}

// StreamingEncoder writes records either as a JSON array or as
// newline-delimited JSON.
type StreamingEncoder struct {
	writer      io.Writer
	encoder     *gojson.Encoder
	firstRecord bool
	isArray     bool
	pretty      bool
}

// NewStreamingEncoder creates a new streaming encoder
func NewStreamingEncoder(w io.Writer, isArray bool) (*StreamingEncoder, error) {
	se := &StreamingEncoder{
		writer:      w,
		encoder:     GetEncoder(w),
		firstRecord: true,
		isArray:     isArray,
	}

	if isArray {
		if _, err := w.Write([]byte{'['}); err != nil {
			return nil, err
		}
	}

	return se, nil
}

// SetPretty enables pretty printing
func (se *StreamingEncoder) SetPretty(pretty bool, indent string) {
	se.pretty = pretty
	if pretty {
		se.encoder.SetIndent("", indent)
	}
}

// Encode encodes a single value
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.isArray && !se.firstRecord {
		if _, err := se.writer.Write([]byte{','}); err != nil {
			return err
		}
	}
	se.firstRecord = false

	return se.encoder.Encode(v)
}

// Close finalizes the encoding. The underlying writer is not closed.
func (se *StreamingEncoder) Close() error {
	if se.isArray {
		_, err := se.writer.Write([]byte{']', '\n'})
		return err
	}
	return nil
}

// MarshalRecords marshals record payloads as an array or as lines.
func MarshalRecords(records []*pool.Record, format string) ([]byte, error) {
	switch format {
	case "lines", "jsonl":
		return MarshalRecordsLines(records)
	default:
		return MarshalRecordsArray(records)
	}
}

// MarshalRecordsArray marshals record payloads as a JSON array
func MarshalRecordsArray(records []*pool.Record) ([]byte, error) {
	if len(records) == 0 {
		return []byte("[]"), nil
	}

	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.WriteByte('[')
	for i, record := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := gojson.Marshal(record.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// MarshalRecordsLines marshals record payloads as line-delimited JSON
func MarshalRecordsLines(records []*pool.Record) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	for _, record := range records {
		data, err := gojson.Marshal(record.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
