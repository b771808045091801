package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	diaghttp "github.com/brotherhood-social/brotherhood/internal/adapter/inbound/http"
	"github.com/brotherhood-social/brotherhood/internal/adapter/inbound/shell"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/memory"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/navigation"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/notify"
	"github.com/brotherhood-social/brotherhood/internal/config"
	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/domain/validation"
	"github.com/brotherhood-social/brotherhood/internal/logging"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
	"github.com/brotherhood-social/brotherhood/internal/service"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	Long: `Start an interactive session against the Brotherhood API.

The session is checked with the server on start; pages that need a
signed-in user redirect to /login until you sign in.

Examples:
  # Start on the feed (redirects to /login when signed out)
  brotherhood shell

  # Run a script of commands
  brotherhood shell < commands.txt

  # Expose Prometheus metrics and print request spans
  brotherhood shell --metrics-addr 127.0.0.1:9464 --trace`,
	RunE: runShell,
}

var startPath string

func init() {
	shellCmd.Flags().String("metrics-addr", "", "serve /metrics and /health on this address (overrides metrics.addr)")
	shellCmd.Flags().Bool("trace", false, "print request spans to stderr (overrides tracing.enabled)")
	shellCmd.Flags().StringVar(&startPath, "start", routing.PathRoot, "page to open first")

	_ = viper.BindPFlag("metrics.addr", shellCmd.Flags().Lookup("metrics-addr"))
	_ = viper.BindPFlag("tracing.enabled", shellCmd.Flags().Lookup("trace"))
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	defer stop()

	logger := logging.New(os.Stderr, cfg.EffectiveLogLevel(), cfg.Log.Format)
	logger.Debug("log level configured", "level", cfg.Log.Level, "effective", cfg.EffectiveLogLevel())
	if file := config.ConfigFileUsed(); file != "" {
		logger.Info("loaded config", "file", file)
	}

	interactive := isTerminal(os.Stdin)
	return run(ctx, cfg, os.Stdin, cmd.OutOrStdout(), interactive, logger)
}

// run wires the client core and drives the shell until input ends or ctx is done.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, interactive bool, logger *slog.Logger) error {
	tp, shutdownTracing, err := tracerProvider(cfg.Tracing.Enabled)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to flush spans", "error", err)
		}
	}()

	reg := diaghttp.NewRegistry()
	metrics := httpapi.NewMetrics(reg)

	var notifier outbound.Notifier = notify.NewWriterNotifier(out)
	if !interactive {
		notifier = notify.Multi{notifier, notify.NewLogNotifier(logger)}
	}
	history := navigation.NewHistory(startPath)

	clientOpts := []httpapi.Option{
		httpapi.WithTimeout(cfg.API.TimeoutDuration()),
		httpapi.WithMaxRetries(cfg.API.MaxRetries),
		httpapi.WithNotifier(notifier),
		httpapi.WithNavigator(history),
		httpapi.WithMetrics(metrics),
		httpapi.WithTracerProvider(tp),
		httpapi.WithLogger(logger),
	}
	switch {
	case cfg.API.CSRFToken != "":
		clientOpts = append(clientOpts, httpapi.WithCSRFSource(httpapi.StaticCSRF(cfg.API.CSRFToken)))
	case cfg.API.CSRFPageURL != "":
		clientOpts = append(clientOpts, httpapi.WithCSRFPage(cfg.API.CSRFPageURL))
	}
	client := httpapi.NewClient(cfg.API.BaseURL, clientOpts...)
	defer client.CloseIdleConnections()

	cache := memory.NewRequestCache(cfg.Cache.MaxEntries)
	api := service.NewAPIService(client, cache, logger,
		service.WithCacheTTL(cfg.Cache.TTLDuration()),
		service.WithCacheMetrics(metrics),
	)
	auth := service.NewAuthService(api, notifier, history, logger,
		service.WithCheckTimeout(cfg.Auth.CheckTimeoutDuration()),
	)
	guard := routing.NewGuard(auth, notifier, cfg.Guard.TimeoutDuration(), logger)
	queries := service.NewQueryService(notifier, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	diagDone := make(chan error, 1)
	if cfg.Metrics.Addr != "" {
		server := diaghttp.NewServer(reg,
			diaghttp.WithAddr(cfg.Metrics.Addr),
			diaghttp.WithHealthChecker(diaghttp.NewHealthChecker(auth, cache, cfg.Cache.MaxEntries, Version)),
			diaghttp.WithLogger(logger),
		)
		go func() { diagDone <- server.Start(ctx) }()
	} else {
		close(diagDone)
	}

	sh := shell.New(in, out, shell.Deps{
		Auth:      auth,
		API:       api,
		Queries:   queries,
		Guard:     guard,
		History:   history,
		Validator: validation.NewFormValidator(),
		Logger:    logger,
	}, shell.WithPrompt(interactive))

	logger.Info("brotherhood shell started", "api", client.BaseURL(), "version", Version)
	shellErr := sh.Run(ctx)
	cancel()

	if err, ok := <-diagDone; ok && err != nil {
		logger.Error("diagnostics server failed", "error", err)
	}
	logger.Info("brotherhood shell stopped")
	return shellErr
}

// tracerProvider returns a provider exporting spans to stderr when enabled,
// or a no-op provider, together with its flush function.
func tracerProvider(enabled bool) (trace.TracerProvider, func(context.Context) error, error) {
	if !enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, tp.Shutdown, nil
}

// isTerminal reports whether f is an interactive character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
