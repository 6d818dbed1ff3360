package httpstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/clients"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"go.uber.org/zap"
)

// Prober checks that an API base URL answers 200.
type Prober struct {
	baseURL string
	source  string
	client  *clients.HTTPClient
	logger  *zap.Logger
}

// NewProber creates a prober for baseURL. The probe is a plain GET: no
// credentials are attached and redirects are not followed, so a 3xx is
// reported as such. A nil client gets one built from DefaultHTTPConfig.
func NewProber(baseURL, source string, client *clients.HTTPClient, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		cfg := clients.DefaultHTTPConfig()
		cfg.DisableRedirects = true
		client = clients.NewHTTPClient(cfg, logger)
	}
	return &Prober{
		baseURL: baseURL,
		source:  source,
		client:  client,
		logger:  logger.With(zap.String("component", "prober")),
	}
}

// CheckConnection issues one GET of the base URL.
//
//	200                -> (true, "")
//	3xx                -> (false, "Permission error, status: <code>")
//	any other status   -> (false, "HTTP error, status: <code>")
//	transport failure  -> (false, "Unknown error, status: <error>")
//
// It never returns an error.
func (p *Prober) CheckConnection(ctx context.Context) (bool, string) {
	resp, err := p.client.Get(ctx, p.baseURL, nil)
	if err != nil {
		msg := fmt.Sprintf("Unknown error, status: %s", causeText(err))
		p.record("unknown", msg)
		return false, msg
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	code := strconv.Itoa(resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusOK:
		p.record("ok", "")
		return true, ""
	case strings.HasPrefix(code, "3"):
		msg := "Permission error, status: " + code
		p.record("permission", msg)
		return false, msg
	default:
		msg := "HTTP error, status: " + code
		p.record("http", msg)
		return false, msg
	}
}

func (p *Prober) record(result, msg string) {
	metrics.ConnectionChecks.WithLabelValues(p.source, result).Inc()
	if msg == "" {
		p.logger.Info("connection check succeeded", zap.String("url", p.baseURL))
		return
	}
	p.logger.Warn("connection check failed", zap.String("url", p.baseURL), zap.String("reason", msg))
}

// causeText strips the client's own wrapping so the message carries the
// underlying transport error.
func causeText(err error) string {
	var e *errors.Error
	for errors.As(err, &e) && e.Cause != nil {
		err = e.Cause
	}
	return err.Error()
}
