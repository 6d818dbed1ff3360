package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-rickmorty/internal/pipeline"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/destinations"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/sources"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/sources/rickmorty"
	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/logger"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rickmorty v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available Source Connectors:")
			for _, name := range registry.ListSources() {
				fmt.Fprintf(out, "  - %s%s\n", name, describe(core.ConnectorTypeSource, name))
			}
			fmt.Fprintln(out, "\nAvailable Destination Connectors:")
			for _, name := range registry.ListDestinations() {
				fmt.Fprintf(out, "  - %s%s\n", name, describe(core.ConnectorTypeDestination, name))
			}
		},
	}
}

func describe(t core.ConnectorType, name string) string {
	info, err := registry.Info(t, name)
	if err != nil || info.Description == "" {
		return ""
	}
	return ": " + info.Description
}

func newSpecCmd() *cobra.Command {
	var destination bool
	cmd := &cobra.Command{
		Use:   "spec [connector]",
		Short: "Print a connector's configuration schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := rickmorty.ConnectorName
			if len(args) == 1 {
				name = args[0]
			}
			t := core.ConnectorTypeSource
			if destination {
				t = core.ConnectorTypeDestination
			}
			info, err := registry.Info(t, name)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"name":                    info.Name,
				"version":                 info.Version,
				"documentationUrl":        info.Documentation,
				"connectionSpecification": info.ConfigSchema,
			})
		},
	}
	cmd.Flags().BoolVar(&destination, "destination", false, "Look the connector up among destinations")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the source can reach the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := openSource(ctx, configFile)
			if err != nil {
				return err
			}
			defer src.Close(ctx) //nolint:errcheck

			status := src.Check(ctx)
			if err := printJSON(cmd.OutOrStdout(), status); err != nil {
				return err
			}
			if !status.OK {
				return fmt.Errorf("connection check failed: %s", status.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to source configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newDiscoverCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the source catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := openSource(ctx, configFile)
			if err != nil {
				return err
			}
			defer src.Close(ctx) //nolint:errcheck

			catalog, err := src.Discover(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), catalog)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to source configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// readMessage is one line of `read` output.
type readMessage struct {
	Stream    string                 `json:"stream"`
	ID        string                 `json:"id"`
	EmittedAt int64                  `json:"emitted_at"`
	Data      map[string]interface{} `json:"data"`
}

func newReadCmd() *cobra.Command {
	var (
		configFile string
		stream     string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read records and print them as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			src, err := openSource(ctx, configFile)
			if err != nil {
				return err
			}
			defer src.Close(context.Background()) //nolint:errcheck

			var rs *core.RecordStream
			if rm, ok := src.(*rickmorty.Source); ok && stream != "" {
				rs, err = rm.ReadStream(ctx, stream)
			} else {
				rs, err = src.Read(ctx)
			}
			if err != nil {
				return err
			}

			enc, err := jsonpool.NewStreamingEncoder(cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}
			n := 0
			for rec := range rs.Records {
				if limit > 0 && n >= limit {
					rec.Release()
					cancel()
					continue
				}
				err := enc.Encode(readMessage{
					Stream:    rec.Metadata.StreamID,
					ID:        rec.ID,
					EmittedAt: rec.Metadata.Timestamp.UnixMilli(),
					Data:      rec.Data,
				})
				rec.Release()
				if err != nil {
					return err
				}
				n++
			}
			if err := <-rs.Errors; err != nil && !(limit > 0 && n >= limit) {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to source configuration file (required)")
	cmd.Flags().StringVar(&stream, "stream", "", "Read only this stream")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many records (0 = all)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var (
		sourceFile, destFile string
		renames, where       []string
		selectFields         []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync the source into a destination",
		Long: `Run a sync with the given source and destination configuration files.

Example:
  rickmorty run --source source.yaml --destination dest.yaml --rename name=full_name --where status=Alive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mapping, err := pipeline.ParseMapping(renames)
			if err != nil {
				return err
			}
			filters, err := pipeline.ParseMapping(where)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout := a.v.GetDuration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			destCfg, err := config.LoadBaseConfig(destFile)
			if err != nil {
				return fmt.Errorf("destination configuration error: %w", err)
			}
			if bs := a.v.GetInt("batch-size"); bs > 0 {
				destCfg.Performance.BatchSize = bs
			}

			src, err := openSource(ctx, sourceFile)
			if err != nil {
				return err
			}
			defer src.Close(context.Background()) //nolint:errcheck

			dest, err := destinations.New(destCfg)
			if err != nil {
				return fmt.Errorf("failed to create destination connector '%s': %w", destCfg.Type, err)
			}
			if err := dest.Initialize(ctx, destCfg); err != nil {
				return fmt.Errorf("failed to initialize destination: %w", err)
			}
			defer dest.Close(context.Background()) //nolint:errcheck

			log := logger.Get().With(
				zap.String("component", "rickmorty-cli"),
				zap.String("destination", destCfg.Type))

			p := pipeline.NewSimplePipeline(src, dest, &pipeline.PipelineConfig{
				BufferSize:  destCfg.Performance.BatchSize,
				WorkerCount: a.v.GetInt("workers"),
			}, log)
			for field, value := range filters {
				p.AddTransform(pipeline.FilterTransform(pipeline.FieldEquals(field, value)))
			}
			if len(mapping) > 0 {
				p.AddTransform(pipeline.FieldMapperTransform(mapping))
			}
			if len(selectFields) > 0 {
				p.AddTransform(pipeline.SelectFieldsTransform(selectFields))
			}

			start := time.Now()
			if err := p.Run(ctx); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			m := p.Metrics()
			log.Debug("sync finished", zap.Any("pipeline", m), zap.Any("pools", pool.GetGlobalStats()))
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d records to %s in %s\n",
				m["records_processed"], destCfg.Type, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&sourceFile, "source", "s", "", "Path to source configuration file (required)")
	f.StringVarP(&destFile, "destination", "d", "", "Path to destination configuration file (required)")
	f.StringSliceVar(&renames, "rename", nil, "Rename a field, old=new (repeatable)")
	f.StringSliceVar(&where, "where", nil, "Keep records whose field equals value, field=value; dots address nested fields (repeatable)")
	f.StringSliceVar(&selectFields, "select", nil, "Keep only these fields (applied after --rename)")
	f.Int("batch-size", 0, "Override the destination batch size")
	f.Int("workers", 1, "Transform workers; more than one may reorder records")
	f.Duration("timeout", 30*time.Minute, "Abort the sync after this long")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}

func openSource(ctx context.Context, path string) (core.Source, error) {
	cfg, err := config.LoadBaseConfig(path)
	if err != nil {
		return nil, fmt.Errorf("source configuration error: %w", err)
	}
	src, err := sources.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create source connector '%s': %w", cfg.Type, err)
	}
	if err := src.Initialize(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize source: %w", err)
	}
	return src, nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := jsonpool.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
