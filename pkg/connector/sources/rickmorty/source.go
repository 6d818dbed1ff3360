// Package rickmorty implements a full-refresh source for the Rick and Morty
// REST API. It exposes one stream, characters, read from
// GET <base_url>/character and paginated through info.next.
//
// Configuration lives in the credentials block of the connector config:
//
//	type: rickmorty
//	security:
//	  credentials:
//	    start_page: "1"
//	    base_url: https://rickandmortyapi.com/api/
package rickmorty

import (
	"context"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/clients"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/base"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/httpstream"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/observability"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
	"go.uber.org/zap"
)

// Source reads the Rick and Morty API.
type Source struct {
	*base.BaseConnector

	sourceConfig config.HTTPSourceConfig
	client       *clients.HTTPClient
	probeClient  *clients.HTTPClient
	driver       *httpstream.Driver
	prober       *httpstream.Prober
	streams      []httpstream.Stream
	bufferSize   int
}

// NewSource creates an uninitialized source. cfg is accepted for factory
// symmetry; configuration is applied by Initialize.
func NewSource(name string, _ *config.BaseConfig) (*Source, error) {
	if name == "" {
		name = ConnectorName
	}
	return &Source{
		BaseConnector: base.NewBaseConnector(name, core.ConnectorTypeSource, Version),
		streams:       Streams(),
		bufferSize:    100,
	}, nil
}

// Initialize parses the connection settings and builds the HTTP clients.
func (s *Source) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := s.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	sc, err := config.ParseHTTPSourceConfig(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid rickmorty configuration")
	}
	s.sourceConfig = sc

	token := ""
	if cfg.Security.AuthType == "bearer" {
		token = sc.APIToken
	}
	s.client = clients.NewHTTPClient(clients.HTTPConfigFromBase(cfg, token), s.GetLogger())

	// the probe sees the raw status of an anonymous GET
	probeCfg := clients.HTTPConfigFromBase(cfg, "")
	probeCfg.DisableRedirects = true
	probeCfg.CircuitBreakerEnabled = false
	probeCfg.RateLimit = 0
	s.probeClient = clients.NewHTTPClient(probeCfg, s.GetLogger())

	s.driver = httpstream.NewDriver(s.client, sc,
		httpstream.WithLogger(s.GetLogger()),
		httpstream.WithSourceName(s.Name()),
		httpstream.WithTracer(s.GetTracer()))
	s.prober = httpstream.NewProber(sc.BaseURL, s.Name(), s.probeClient, s.GetLogger())

	if cfg.Performance.BufferSize > 0 {
		s.bufferSize = cfg.Performance.BufferSize
	}

	s.GetLogger().Info("rickmorty source initialized",
		zap.String("base_url", sc.BaseURL),
		zap.String("start_page", sc.StartPage),
		zap.Bool("authenticated", token != ""))
	return nil
}

// Check probes the API base URL.
func (s *Source) Check(ctx context.Context) core.ConnectionStatus {
	if s.prober == nil {
		return core.ConnectionStatus{OK: false, Message: "source is not initialized"}
	}

	ok, msg := s.prober.CheckConnection(ctx)
	if ok {
		s.RecordSuccess()
	} else {
		s.RecordFailure(errors.New(errors.ErrorTypeConnection, msg))
	}
	return core.ConnectionStatus{OK: ok, Message: msg}
}

// Discover returns the static catalog of the source's streams. It makes no
// requests.
func (s *Source) Discover(_ context.Context) (*core.Catalog, error) {
	catalog := &core.Catalog{Streams: make([]core.Schema, 0, len(s.streams))}
	for _, st := range s.streams {
		if ss, ok := st.(schemaStream); ok {
			catalog.Streams = append(catalog.Streams, ss.Schema())
			continue
		}
		catalog.Streams = append(catalog.Streams, core.Schema{
			Name:               st.Name(),
			PrimaryKey:         []string{st.PrimaryKey()},
			SupportedSyncModes: []core.SyncMode{core.SyncModeFullRefresh},
		})
	}
	return catalog, nil
}

// Streams returns the source's streams
func (s *Source) Streams() []httpstream.Stream {
	return s.streams
}

// Read reads every stream in order.
func (s *Source) Read(ctx context.Context) (*core.RecordStream, error) {
	return s.read(ctx, s.streams)
}

// ReadStream reads one stream by name.
func (s *Source) ReadStream(ctx context.Context, name string) (*core.RecordStream, error) {
	for _, st := range s.streams {
		if st.Name() == name {
			return s.read(ctx, []httpstream.Stream{st})
		}
	}
	return nil, errors.New(errors.ErrorTypeNotFound, "unknown stream "+name)
}

// read starts a goroutine that walks streams and publishes records. Records
// is closed when the walk ends; a failure is sent on Errors first. Each
// record carries the source name, stream name and its primary key as ID.
func (s *Source) read(ctx context.Context, streams []httpstream.Stream) (*core.RecordStream, error) {
	if s.driver == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "source is not initialized")
	}

	recordsChan := make(chan *pool.Record, s.bufferSize)
	errorsChan := make(chan error, 1)

	go func() {
		defer close(errorsChan)
		defer close(recordsChan)

		metrics.ActiveSyncs.Inc()
		defer metrics.ActiveSyncs.Dec()

		progress := s.Progress()
		progress.Reset()

		err := s.GetTracer().Trace(ctx, "read", func(ctx context.Context, span *observability.Span) error {
			for _, st := range streams {
				n, err := s.readStream(ctx, st, recordsChan)
				span.SetAttribute("records."+st.Name(), n)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.RecordFailure(err)
			errorsChan <- err
			return
		}
		s.RecordSuccess()
		progress.ReportComplete()
	}()

	return &core.RecordStream{Records: recordsChan, Errors: errorsChan}, nil
}

func (s *Source) readStream(ctx context.Context, st httpstream.Stream, out chan<- *pool.Record) (int64, error) {
	var offset int64
	for data, err := range s.driver.Records(ctx, st) {
		if err != nil {
			return offset, err
		}

		rec := pool.NewStreamRecord(s.Name(), st.Name(), st.PrimaryKey(), offset, data)
		select {
		case out <- rec:
			offset++
			s.Progress().IncrementProcessed(1)
		case <-ctx.Done():
			rec.Release()
			return offset, ctx.Err()
		}
	}
	s.GetLogger().Info("stream read", zap.String("stream", st.Name()), zap.Int64("records", offset))
	return offset, nil
}

// Close releases the HTTP clients
func (s *Source) Close(ctx context.Context) error {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.probeClient != nil {
		_ = s.probeClient.Close()
	}
	return s.BaseConnector.Close(ctx)
}

// Metrics returns connector metrics
func (s *Source) Metrics() map[string]interface{} {
	m := s.BaseConnector.Metrics()
	m["streams"] = len(s.streams)
	if s.client != nil {
		stats := s.client.GetStats()
		m["http_requests"] = stats.TotalRequests
		m["http_failed_requests"] = stats.FailedRequests
		m["http_avg_latency_ms"] = stats.AverageLatency.Milliseconds()
		if stats.CircuitState != "" {
			m["circuit_breaker_state"] = stats.CircuitState
		}
	}
	return m
}
