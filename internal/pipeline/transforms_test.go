package pipeline

import (
	"context"
	"testing"

	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rick() *pool.Record {
	return pool.NewStreamRecord("rickmorty", "characters", "id", 0, map[string]interface{}{
		"id":     jsonpool.Number("1"),
		"name":   "Rick Sanchez",
		"status": "Alive",
		"origin": map[string]interface{}{"name": "Earth (C-137)"},
	})
}

func TestFieldMapperTransform(t *testing.T) {
	out, err := FieldMapperTransform(map[string]string{"name": "full_name"})(context.Background(), rick())
	require.NoError(t, err)
	assert.Equal(t, "Rick Sanchez", out.Data["full_name"])
	assert.NotContains(t, out.Data, "name")
	assert.Equal(t, "Alive", out.Data["status"])
}

func TestFieldEquals(t *testing.T) {
	r := rick()
	assert.True(t, FieldEquals("status", "Alive")(r))
	assert.True(t, FieldEquals("id", "1")(r))
	assert.True(t, FieldEquals("origin.name", "Earth (C-137)")(r))
	assert.False(t, FieldEquals("origin.url", "")(r))
	assert.False(t, FieldEquals("status.code", "Alive")(r))
	assert.False(t, FieldEquals("status", "Dead")(r))
}

func TestFilterAndSelect(t *testing.T) {
	ctx := context.Background()

	out, err := FilterTransform(FieldEquals("status", "Dead"))(ctx, rick())
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = SelectFieldsTransform([]string{"id", "name"})(ctx, rick())
	require.NoError(t, err)
	assert.Len(t, out.Data, 2)
	assert.Equal(t, "1", out.ID)
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]string{"name=full_name", "status=state"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "full_name", "status": "state"}, m)

	_, err = ParseMapping([]string{"name"})
	assert.Error(t, err)
	_, err = ParseMapping([]string{"=x"})
	assert.Error(t, err)
}
