package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/brepcore/pkg/telemetry"
)

var (
	// Global flags
	storePath     string
	verbose       bool
	jsonOutput    bool
	traceExporter string
	otlpEndpoint  string
	metricsAddr   string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brepctl",
		Short: "brepctl - boundary representation kernel tool",
		Long: `brepctl runs scenarios through the geometry kernel.

A scenario (CUE or YAML) declares numeric states, position constraints over
them, plan walls, wall regions and face groups. brepctl can:
  - Compute the constraint chains and propagate state changes
  - Extrude and split wall regions and check them against Rego policies
  - Stitch face groups into boundary wires
  - Keep results and kernel events in a SQLite store`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			tel, err := setupTelemetry(version)
			if err != nil {
				return fmt.Errorf("failed to set up telemetry: %w", err)
			}
			if err := tel.StartMetricsServer(); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			cmd.SetContext(tel.WithContext(cmd.Context()))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			tel := telemetry.FromTelemetryContext(cmd.Context())
			if tel == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return tel.Shutdown(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite store path (default: scenario store_path or brepcore.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace", "none", "trace exporter (none, stdout, otlp)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "localhost:4317", "OTLP collector endpoint")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newComputeCommand())
	rootCmd.AddCommand(newRegionCommand())
	rootCmd.AddCommand(newStitchCommand())
	rootCmd.AddCommand(newStoreCommand())

	return rootCmd
}

// setupTelemetry builds the telemetry stack from the global flags.
func setupTelemetry(version string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	switch lvl := zerolog.GlobalLevel(); lvl {
	case zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel, zerolog.ErrorLevel:
		cfg.Logging.Level = lvl.String()
	default:
		cfg.Logging.Level = "info"
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}

	cfg.Tracing.Enabled = traceExporter != "none"
	cfg.Tracing.Exporter = traceExporter
	cfg.Tracing.Endpoint = otlpEndpoint

	cfg.Metrics.Enabled = metricsAddr != ""
	if metricsAddr != "" {
		cfg.Metrics.ListenAddress = metricsAddr
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("trace", traceExporter).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("Telemetry configured")
	return tel, nil
}
