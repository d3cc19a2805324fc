package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MerlinChiodo/multi-agent-orchestration/agents"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/client/middleware"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/config"
	"github.com/MerlinChiodo/multi-agent-orchestration/internal/mcpserver"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability/promobs"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability/slogobs"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry/pgsink"
	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry/sqlitesink"
)

// version is set at build time via -ldflags.
var version = "dev"

// app holds the persistent flags and what PersistentPreRunE builds from them.
type app struct {
	flags struct {
		config            string
		preset            string
		model             string
		baseURL           string
		provider          string
		timeout           float64
		logLevel          string
		logFormat         string
		metricsAddr       string
		telemetryCSV      string
		telemetrySQLite   string
		telemetryPostgres string
	}

	cfg      config.Config
	logger   *slog.Logger
	observer observability.Provider
	level    slog.Level
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mao",
		Short: "Multi-agent analysis of scientific documents",
		Long: "mao runs reader, summarizer, critic and integrator agents over a document,\n" +
			"either as a linear chain or as a graph with a bounded critic rework loop.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.config, "config", "", "YAML config file")
	f.StringVar(&a.flags.preset, "preset", "", "Preset: speed, balanced or detail")
	f.StringVar(&a.flags.model, "model", "", "Model id (default "+config.DefaultModel+")")
	f.StringVar(&a.flags.baseURL, "base-url", "", "Model server base URL")
	f.StringVar(&a.flags.provider, "provider", "", "Model provider: ollama or openai")
	f.Float64Var(&a.flags.timeout, "timeout", 0, "Seconds per model call (minimum 1)")
	f.StringVar(&a.flags.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (default $MAO_LOG_LEVEL, then INFO)")
	f.StringVar(&a.flags.logFormat, "log-format", "", "text or json (default $MAO_LOG_FORMAT, then text)")
	f.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address while the command runs")
	f.StringVar(&a.flags.telemetryCSV, "telemetry-csv", "", "Telemetry CSV path (empty string in config disables it)")
	f.StringVar(&a.flags.telemetrySQLite, "telemetry-sqlite", "", "Telemetry SQLite database path")
	f.StringVar(&a.flags.telemetryPostgres, "telemetry-postgres", "", "Telemetry Postgres DSN")

	root.AddCommand(
		newAnalyzeCmd(a),
		newGraphCmd(),
		newSectionsCmd(a),
		newEvalCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup builds the logger, observer and config shared by every subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var logOpts []slogobs.Option
	if a.flags.logLevel != "" {
		logOpts = append(logOpts, slogobs.WithLevel(slogobs.ParseLogLevel(a.flags.logLevel)))
	}
	if a.flags.logFormat != "" {
		logOpts = append(logOpts, slogobs.WithFormat(slogobs.ParseFormat(a.flags.logFormat)))
	}
	// stdout carries results and the MCP stream.
	logOpts = append(logOpts, slogobs.WithOutput(cmd.ErrOrStderr()))

	a.logger = slogobs.NewLogger(logOpts...)
	slog.SetDefault(a.logger)
	a.level = slogobs.GetLogLevelFromEnv()
	if a.flags.logLevel != "" {
		a.level = slogobs.ParseLogLevel(a.flags.logLevel)
	}

	logObserver := slogobs.New(slogobs.WithLogger(a.logger))
	a.observer = logObserver
	if a.flags.metricsAddr != "" {
		metrics := promobs.New(logObserver)
		a.observer = metrics
		go func() {
			if err := metrics.Serve(cmd.Context(), a.flags.metricsAddr); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	cfg, err := config.Load(config.LoadOptions{
		File:      a.flags.config,
		Preset:    a.flags.preset,
		Overrides: func(cfg *config.Config) { a.applyFlags(cmd, cfg) },
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// applyFlags copies the explicitly set flags over cfg.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("model") {
		cfg.Model = a.flags.model
	}
	if changed("base-url") {
		cfg.BaseURL = a.flags.baseURL
	}
	if changed("provider") {
		cfg.Provider = a.flags.provider
	}
	if changed("timeout") {
		cfg.TimeoutSeconds = a.flags.timeout
	}
	if changed("telemetry-csv") {
		cfg.TelemetryCSV = a.flags.telemetryCSV
	}
	if changed("telemetry-sqlite") {
		cfg.TelemetrySQLite = a.flags.telemetrySQLite
	}
	if changed("telemetry-postgres") {
		cfg.TelemetryPostgresDSN = a.flags.telemetryPostgres
	}
}

// newClient builds the model client for cfg. Request logging is only wired
// at debug level.
func (a *app) newClient(cfg config.Config) (agents.Completer, error) {
	options := config.ClientOptions{Observer: a.observer}
	if a.level <= slog.LevelDebug {
		options.Logger = a.logger
		options.LogLevel = middleware.LogLevelStandard
	}

	llm, err := cfg.NewClient(options)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// openSink opens every configured telemetry sink. A sink that cannot be
// opened is logged and skipped; runs continue with the others. The caller
// closes the returned sink.
func (a *app) openSink(ctx context.Context) telemetry.Sink {
	var sinks []telemetry.Sink
	skip := func(kind string, err error) {
		a.logger.Warn("telemetry sink unavailable, continuing without it", "sink", kind, "error", err)
	}

	if a.cfg.TelemetryCSV != "" {
		sinks = append(sinks, telemetry.NewCSV(a.cfg.TelemetryCSV))
	}
	if a.cfg.TelemetrySQLite != "" {
		if sink, err := sqlitesink.Open(a.cfg.TelemetrySQLite); err != nil {
			skip("sqlite", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	if a.cfg.TelemetryPostgresDSN != "" {
		if sink, err := pgsink.Connect(ctx, a.cfg.TelemetryPostgresDSN); err != nil {
			skip("postgres", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	return telemetry.NewMulti(sinks...)
}

func (a *app) mcpDependencies(sink telemetry.Sink) mcpserver.Dependencies {
	return mcpserver.Dependencies{
		Config:    a.cfg,
		NewClient: a.newClient,
		Observer:  a.observer,
		Sink:      sink,
	}
}
