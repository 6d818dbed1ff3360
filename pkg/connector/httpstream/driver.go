package httpstream

import (
	"context"
	"io"
	"iter"
	"net/http"
	"net/url"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/clients"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/observability"
	"go.uber.org/zap"
)

// Driver walks a Stream page by page over an HTTPClient.
type Driver struct {
	client *clients.HTTPClient
	cfg    config.HTTPSourceConfig
	source string
	logger *zap.Logger
	tracer *observability.ConnectorTracer
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithLogger sets the driver's logger
func WithLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSourceName sets the source label used in metrics and span names
func WithSourceName(name string) DriverOption {
	return func(d *Driver) {
		if name != "" {
			d.source = name
		}
	}
}

// WithTracer sets the tracer used for per-page spans
func WithTracer(tracer *observability.ConnectorTracer) DriverOption {
	return func(d *Driver) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// NewDriver creates a driver reading from cfg.BaseURL
func NewDriver(client *clients.HTTPClient, cfg config.HTTPSourceConfig, opts ...DriverOption) *Driver {
	d := &Driver{
		client: client,
		cfg:    cfg,
		source: "http",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracer == nil {
		d.tracer = observability.NewConnectorTracer("source", d.source)
	}
	return d
}

// Records returns an iterator over every record of stream. Pages are
// requested sequentially; the next request is issued only after every
// record of the current page has been yielded. A failed fetch yields one
// non-nil error and ends the iteration, after all records of earlier pages
// have been yielded. Breaking out of the loop stops without further
// requests.
func (d *Driver) Records(ctx context.Context, stream Stream) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var token *PageToken
		pages := 0
		emitted := 0

		logger := d.logger.With(zap.String("stream", stream.Name()))
		defer func() {
			logger.Debug("stream finished", zap.Int("pages", pages), zap.Int("records", emitted))
		}()

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			params := stream.RequestParams(token, d.cfg)
			page, err := d.FetchPage(ctx, stream, params)
			if err != nil {
				logger.Error("page fetch failed",
					zap.Int("pages_read", pages),
					zap.Any("params", params),
					zap.Error(err))
				yield(nil, err)
				return
			}
			pages++

			for rec := range stream.ParseRecords(page) {
				emitted++
				metrics.RecordsEmitted.WithLabelValues(d.source, stream.Name()).Inc()
				if !yield(rec, nil) {
					return
				}
			}

			token = stream.NextPageToken(page)
			if token == nil {
				return
			}
			logger.Debug("next page", zap.String("page", token.Page))
		}
	}
}

// Run drives stream to completion, calling emit for every record. It stops
// at the first error from the walk or from emit.
func (d *Driver) Run(ctx context.Context, stream Stream, emit func(Record) error) error {
	for rec, err := range d.Records(ctx, stream) {
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}

// FetchPage performs one GET of the stream path with params and decodes the
// body. Network failures and non-2xx statuses are ErrorTypeTransport errors;
// non-2xx carries the status under the "status_code" detail. A body that
// does not decode is an ErrorTypeData error.
func (d *Driver) FetchPage(ctx context.Context, stream Stream, params Params) (*Page, error) {
	var page *Page
	err := d.tracer.Trace(ctx, "fetch_page", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("stream", stream.Name())
		span.SetAttribute("page", params["page"])

		target, err := d.pageURL(stream.Path(), params)
		if err != nil {
			return err
		}

		timer := metrics.NewTimer()
		resp, err := d.client.Get(ctx, target, nil)
		metrics.RequestLatency.WithLabelValues(d.source, stream.Name()).Observe(timer.Stop().Seconds())
		if err != nil {
			metrics.PagesFetched.WithLabelValues(d.source, stream.Name(), "failure").Inc()
			return errors.Wrap(err, errors.ErrorTypeTransport, "page request failed").
				WithDetail(errors.DetailURL, target)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		span.SetAttribute("http.status_code", resp.StatusCode)
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			metrics.PagesFetched.WithLabelValues(d.source, stream.Name(), "failure").Inc()
			return errors.HTTPStatus(resp.StatusCode, target)
		}

		page, err = DecodePage(resp.Body)
		if err != nil {
			metrics.PagesFetched.WithLabelValues(d.source, stream.Name(), "failure").Inc()
			return err
		}
		metrics.PagesFetched.WithLabelValues(d.source, stream.Name(), "success").Inc()
		span.SetAttribute("records", len(page.Results))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (d *Driver) pageURL(path string, params Params) (string, error) {
	u, err := url.Parse(d.cfg.URLFor(path))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid stream url")
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
