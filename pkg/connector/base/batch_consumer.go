package base

import (
	"context"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
)

// FlushFunc writes one batch. The slice is reused after it returns.
type FlushFunc func(ctx context.Context, batch []*pool.Record) error

// ConsumeBatches reads stream in batches of batchSize and hands each batch
// to flush, releasing the records afterwards. An error received on
// stream.Errors does not stop consumption: the records already queued are
// drained and flushed first, then the error is returned. A flush error or
// context cancellation stops immediately. It returns the number of records
// flushed.
func ConsumeBatches(ctx context.Context, stream *core.RecordStream, batchSize int, flush FlushFunc) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	batch := pool.GetBatchSlice(batchSize)
	defer func() {
		for _, r := range batch {
			r.Release()
		}
		pool.PutBatchSlice(batch)
	}()

	var written int64
	doFlush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := flush(ctx, batch); err != nil {
			return err
		}
		written += int64(len(batch))
		for i, r := range batch {
			r.Release()
			batch[i] = nil
		}
		batch = batch[:0]
		return nil
	}

	records := stream.Records
	errs := stream.Errors
	var streamErr error

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				if err := doFlush(); err != nil {
					return written, err
				}
				if streamErr == nil && errs != nil {
					if err, ok := <-errs; ok {
						streamErr = err
					}
				}
				return written, streamErr
			}
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				if err := doFlush(); err != nil {
					return written, err
				}
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil && streamErr == nil {
				streamErr = err
			}

		case <-ctx.Done():
			return written, ctx.Err()
		}
	}
}
