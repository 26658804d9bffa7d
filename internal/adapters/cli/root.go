// Package cli wires configuration, logging, telemetry and the quote service
// into the aquote command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/aquote/internal/adapters/cli/output"
	"github.com/jsamuelsen/aquote/internal/adapters/clients"
	"github.com/jsamuelsen/aquote/internal/adapters/clients/acl"
	"github.com/jsamuelsen/aquote/internal/adapters/history"
	"github.com/jsamuelsen/aquote/internal/app"
	"github.com/jsamuelsen/aquote/internal/domain"
	"github.com/jsamuelsen/aquote/internal/platform/config"
	"github.com/jsamuelsen/aquote/internal/platform/logging"
	"github.com/jsamuelsen/aquote/internal/platform/metrics"
	"github.com/jsamuelsen/aquote/internal/platform/telemetry"
	"github.com/jsamuelsen/aquote/internal/ports"
)

// vendorClientName labels vendor requests in logs, spans and metrics.
const vendorClientName = "vendors"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options configures the command tree. Zero values use the real
// environment; tests override them.
type Options struct {
	Build BuildInfo

	// Config selects the config file locations. --config overrides
	// Config.ConfigFile.
	Config config.LoadOptions

	// Transport overrides the HTTP transport used for vendor requests.
	Transport http.RoundTripper

	// Sleep and Intn override the retry policy's delay and vendor pick.
	Sleep func(ctx context.Context, d time.Duration) error
	Intn  func(n int) int
}

// globalFlags holds the persistent flag values.
type globalFlags struct {
	configFile string
	verbose    bool
	color      string
}

// session is everything a command needs, built once per invocation by the
// root command's PersistentPreRunE. The quote history is loaded on first
// use, so commands that never read it work with a damaged history file.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	printer   *output.Printer
	vendors   *app.VendorService
	metrics   *metrics.Registry
	telemetry *telemetry.Provider
	span      trace.Span

	quoteConfig app.QuoteServiceConfig
	service     *app.QuoteService
}

// Execute runs the command tree with args and returns the first error.
// Telemetry is flushed before returning, whatever the outcome.
func Execute(ctx context.Context, opts Options, args []string, stdout, stderr io.Writer) error {
	var sess session

	root := newRootCommand(opts, &sess)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	if sess.span != nil {
		telemetry.EndCommand(sess.span, err)
	}

	if sess.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if shutdownErr := sess.telemetry.Shutdown(shutdownCtx); shutdownErr != nil {
			sess.logger.Warn("telemetry shutdown failed", slog.Any("error", shutdownErr))
		}
	}

	return err
}

func newRootCommand(opts Options, sess *session) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "aquote",
		Short: "Quote of the day",
		Long: `aquote fetches quotes from configurable JSON quote vendors and keeps a
short history of the most recent ones.

Example usage:
  aquote fetch           # Fetch a new quote from a random vendor
  aquote show            # Show the latest quote
  aquote show author     # Show only the latest author
  aquote recent          # List the quote history, oldest first
  aquote vendors --check # Probe every enabled vendor`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return sess.init(cmd, opts, flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/aquote/config.yaml)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&flags.color, "color", output.ColorAuto.String(), "color output: auto, always, never")

	root.AddCommand(
		newShowCommand(sess),
		newFetchCommand(sess),
		newRecentCommand(sess),
		newVendorsCommand(sess),
		newVersionCommand(opts.Build),
	)

	return root
}

func (s *session) init(cmd *cobra.Command, opts Options, flags globalFlags) error {
	colorMode, err := output.ParseColorMode(flags.color)
	if err != nil {
		return err
	}

	loadOpts := opts.Config
	if flags.configFile != "" {
		loadOpts.ConfigFile = flags.configFile
	}

	cfg, err := config.Load(loadOpts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s.cfg = cfg
	s.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(colorMode, cmd.OutOrStdout()))
	s.logger = newLogger(cfg, opts.Build, flags.verbose, cmd.ErrOrStderr())
	logging.SetDefault(s.logger)

	ctx := cmd.Context()

	s.telemetry, err = telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      opts.Build.Version,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	var traceID string

	ctx, s.span, traceID = telemetry.StartCommand(ctx, cmd.Name())

	ctx = clients.ContextWithRequestID(ctx, "")
	ctx = logging.WithContext(ctx, s.logger)
	ctx = logging.WithRequestID(ctx, clients.RequestIDFromContext(ctx))

	if traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}

	cmd.SetContext(ctx)

	httpClient, err := clients.New(&clients.Config{
		ServiceName: vendorClientName,
		Timeout:     cfg.Client.Timeout,
		UserAgent:   cfg.Client.UserAgent,
		Transport:   opts.Transport,
		Logger:      s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	vendorClient := acl.NewVendorClient(acl.VendorClientConfig{
		Client: httpClient,
		Engine: acl.NewJSONPathEngine(),
		Logger: s.logger,
	})

	s.metrics = metrics.New()

	s.vendors = app.NewVendorService(app.VendorServiceConfig{
		Vendors: vendorSet(cfg),
		Prober: func(key string, vendor domain.Vendor) ports.HealthChecker {
			return acl.NewVendorProbe(vendorClient, key, vendor)
		},
		ProbeTimeout: cfg.Client.Timeout,
		Logger:       s.logger,
	})

	s.quoteConfig = app.QuoteServiceConfig{
		Fetcher: vendorClient,
		Vendors: vendorSet(cfg),
		Retry: app.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
			Intn:        opts.Intn,
			Sleep:       opts.Sleep,
			Logger:      s.logger,
			Recorder:    s.metrics,
		},
		Logger: s.logger,
	}

	s.logger.DebugContext(ctx, "configuration loaded",
		slog.String("data_dir", cfg.DataDir),
		slog.Int("max_quotes", cfg.MaxQuotes),
		slog.Any("enable_vendors", cfg.EnableVendors),
	)

	return nil
}

// quotes returns the quote service, loading the history file on first call.
func (s *session) quotes() (*app.QuoteService, error) {
	if s.service != nil {
		return s.service, nil
	}

	store, err := history.Load(filepath.Join(s.cfg.DataDir, history.FileName), s.cfg.MaxQuotes)
	if err != nil {
		return nil, err
	}

	cfg := s.quoteConfig
	cfg.History = store
	s.service = app.NewQuoteService(cfg)

	return s.service, nil
}

func newLogger(cfg *config.Config, build BuildInfo, verbose bool, w io.Writer) *slog.Logger {
	level := cfg.Log.Level
	if verbose && level != "trace" {
		level = "debug"
	}

	return logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  cfg.Log.Format,
		Service: config.AppName,
		Version: build.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, w)
}

// vendorSet converts the vendor configuration into the domain view.
func vendorSet(cfg *config.Config) domain.VendorSet {
	vendors := make(map[string]domain.Vendor, len(cfg.Vendors))
	for key, v := range cfg.Vendors {
		vendors[key] = domain.Vendor{
			Name:     v.Name,
			Homepage: v.Homepage,
			Endpoint: v.Endpoint,
			Queries: domain.VendorQueries{
				Quote:  v.Queries.Quote,
				Author: v.Queries.Author,
				URL:    v.Queries.URL,
			},
		}
	}

	return domain.VendorSet{
		Vendors: vendors,
		Enabled: cfg.EnableVendors,
	}
}

// writeMetrics exports the run's counters when a textfile is configured.
// Export problems are reported as warnings, never returned.
func (s *session) writeMetrics() {
	path := s.cfg.Metrics.Textfile
	if path == "" {
		return
	}

	if s.service != nil {
		s.metrics.SetHistorySize(len(s.service.Recent()))
	}

	if err := s.metrics.WriteTextfile(path); err != nil {
		s.printer.Warning("%v", err)
	}
}
