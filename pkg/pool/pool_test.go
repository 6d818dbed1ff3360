package pool

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		want string
		ok   bool
	}{
		{"json number", map[string]interface{}{"id": gojson.Number("42")}, "42", true},
		{"float", map[string]interface{}{"id": float64(7)}, "7", true},
		{"string", map[string]interface{}{"id": "abc"}, "abc", true},
		{"missing", map[string]interface{}{"name": "x"}, "", false},
		{"null", map[string]interface{}{"id": nil}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyString(tt.data, "id")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStreamRecordFallsBackToGeneratedID(t *testing.T) {
	r := NewStreamRecord("rickmorty", "characters", "id", 3, map[string]interface{}{"name": "Summer"})
	defer r.Release()

	assert.Contains(t, r.ID, "characters-")
	assert.Equal(t, int64(3), r.Metadata.Offset)
	assert.Equal(t, "rickmorty", r.Metadata.Source)
}

func TestReleaseResetsRecord(t *testing.T) {
	r := GetRecord()
	r.ID = "1"
	r.SetData("name", "Beth")
	r.SetMetadata("page", "2")
	page, ok := r.GetMetadata("page")
	assert.True(t, ok)
	assert.Equal(t, "2", page)
	r.Release()

	assert.Empty(t, r.ID)
	assert.Nil(t, r.Data)
	assert.Nil(t, r.Metadata.Custom)
}

func TestPoolStats(t *testing.T) {
	p := New(func() *int { v := 0; return &v }, nil)
	v := p.Get()
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.InUse)
	assert.Equal(t, int64(1), stats.Hits)
	p.Put(v)
	assert.Equal(t, int64(0), p.Stats().InUse)
}
