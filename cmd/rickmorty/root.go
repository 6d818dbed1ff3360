package main

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/logger"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/metrics"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/observability"
)

// app holds process-wide state shared by the subcommands.
type app struct {
	v             *viper.Viper
	metricsServer *http.Server
	tracing       bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("RICKMORTY")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "rickmorty",
		Short:         "Rick and Morty API connector",
		Long:          "Reads characters from the Rick and Morty REST API and loads them into a file, S3, PostgreSQL or MongoDB.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.String("env-file", ".env", "Dotenv file loaded before anything else (missing file is ignored)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "json", "Log encoding (json, console)")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	pf.Bool("trace", false, "Export OpenTelemetry spans to stderr")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		newVersionCmd(),
		newListCmd(),
		newSpecCmd(),
		newCheckCmd(),
		newDiscoverCmd(),
		newReadCmd(),
		newRunCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(a.v.GetString("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	_ = a.v.BindPFlags(cmd.Flags())

	if err := logger.Init(logger.Config{
		Level:       a.v.GetString("log-level"),
		Encoding:    a.v.GetString("log-format"),
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}

	if a.v.GetBool("trace") {
		if err := observability.Initialize(observability.TracingConfig{
			ServiceName:    "rickmorty",
			ServiceVersion: version,
			SamplingRate:   1,
			Writer:         cmd.ErrOrStderr(),
		}); err != nil {
			return err
		}
		a.tracing = true
	}

	if addr := a.v.GetString("metrics-addr"); addr != "" {
		if err := a.serveMetrics(addr); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
		a.metricsServer = nil
	}
	if a.tracing {
		if err := observability.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
		a.tracing = false
	}
	_ = logger.Sync()
	return nil
}
