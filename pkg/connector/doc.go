// Package connector groups the building blocks for sources and destinations.
//
// The connector tree is organized into several sub-packages:
//
//   - core: The fundamental interfaces (Connector, Source, Destination),
//     RecordStream, the catalog types and ConnectionStatus.
//
//   - base: BaseConnector with health tracking and progress reporting,
//     plus ConsumeBatches which every destination uses to drain a
//     RecordStream in fixed size batches.
//
//   - httpstream: A generic engine for paginated JSON-over-HTTP APIs.
//     A Stream names the endpoint, its primary key and how to find the
//     next page; the Driver fetches pages in order and the Prober
//     performs connection checks.
//
//   - sources: The rickmorty source, built on httpstream.
//
//   - destinations: json (local files), s3, postgresql and mongodb.
//
//   - registry: Factories and metadata. Connectors self-register during
//     initialization, so importing the sources and destinations packages
//     makes them available by name.
//
// # Writing a destination
//
// Embed base.BaseConnector and let ConsumeBatches do the buffering:
//
//	func (d *Destination) Write(ctx context.Context, stream *core.RecordStream) error {
//		_, err := base.ConsumeBatches(ctx, stream, d.batchSize, d.flush)
//		return err
//	}
//
// Records handed to a destination are owned by it and should be returned
// with Release once written.
package connector
