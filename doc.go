// Package rickmorty is an Extract & Load connector for the Rick and Morty
// REST API. It pages through the characters endpoint and loads every
// character into a JSON file, an S3 bucket, PostgreSQL or MongoDB.
//
// # Quick Start
//
// Describe the source in YAML:
//
//	name: rickmorty
//	type: rickmorty
//	security:
//	  credentials:
//	    base_url: https://rickandmortyapi.com/api/
//	    start_page: "1"
//
// and a destination:
//
//	type: json
//	security:
//	  credentials:
//	    path: ./out/characters.jsonl
//
// then run the CLI:
//
//	rickmorty check    --config source.yaml
//	rickmorty discover --config source.yaml
//	rickmorty run      --source source.yaml --destination dest.yaml
//
// The same sync from Go:
//
//	src, _ := registry.CreateSource("rickmorty", sourceCfg)
//	dst, _ := registry.CreateDestination("json", destCfg)
//	_ = src.Initialize(ctx, sourceCfg)
//	_ = dst.Initialize(ctx, destCfg)
//	err := pipeline.NewSimplePipeline(src, dst, nil, logger.Get()).Run(ctx)
//
// # Key Packages
//
//	pkg/connector/httpstream  - Paginated HTTP stream engine (pages, decoding, probing)
//	pkg/connector/sources     - The rickmorty source
//	pkg/connector/destinations - json, s3, postgresql and mongodb destinations
//	pkg/connector/registry    - Connector factories and metadata
//	pkg/clients               - HTTP client with rate limiting and circuit breaking
//	pkg/config                - Unified configuration (config.BaseConfig)
//	pkg/errors                - Structured error handling
//	pkg/logger                - Structured logging on zap
//	pkg/metrics               - Prometheus metrics
//	pkg/observability         - OpenTelemetry tracing
//	internal/pipeline         - Source to destination pipeline with transforms
//
// # Configuration
//
// Every connector takes a config.BaseConfig. Connector specific settings
// live under security.credentials; ${VAR_NAME} references are expanded
// from the environment, and the CLI loads a .env file first.
package rickmorty
