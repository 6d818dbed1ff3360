package base

import (
	"context"
	"fmt"
	"testing"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(n int, streamErr error) *core.RecordStream {
	records := make(chan *pool.Record, n)
	errs := make(chan error, 1)
	for i := 0; i < n; i++ {
		records <- pool.NewStreamRecord("test", "characters", "id", int64(i), map[string]interface{}{"id": i + 1})
	}
	if streamErr != nil {
		errs <- streamErr
	}
	close(records)
	close(errs)
	return &core.RecordStream{Records: records, Errors: errs}
}

func TestConsumeBatches(t *testing.T) {
	var sizes []int
	var ids []string
	n, err := ConsumeBatches(context.Background(), feed(7, nil), 3, func(_ context.Context, batch []*pool.Record) error {
		sizes = append(sizes, len(batch))
		for _, r := range batch {
			ids = append(ids, r.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7"}, ids)
}

func TestConsumeBatchesDrainsBeforeStreamError(t *testing.T) {
	streamErr := fmt.Errorf("page 2 failed")
	total := 0
	n, err := ConsumeBatches(context.Background(), feed(5, streamErr), 2, func(_ context.Context, batch []*pool.Record) error {
		total += len(batch)
		return nil
	})
	assert.ErrorIs(t, err, streamErr)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, 5, total)
}

func TestConsumeBatchesFlushError(t *testing.T) {
	n, err := ConsumeBatches(context.Background(), feed(4, nil), 2, func(context.Context, []*pool.Record) error {
		return fmt.Errorf("disk full")
	})
	assert.EqualError(t, err, "disk full")
	assert.Zero(t, n)
}

func TestConsumeBatchesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := make(chan *pool.Record)
	_, err := ConsumeBatches(ctx, &core.RecordStream{Records: records}, 2, func(context.Context, []*pool.Record) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
