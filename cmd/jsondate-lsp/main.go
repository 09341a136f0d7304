// Command jsondate-lsp is a language server that shows the instant encoded
// by legacy JSON date tokens such as \/Date(1318996912288-0500)\/ on hover.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/akhenakh/jsondate-lsp/config"
	"github.com/akhenakh/jsondate-lsp/jsondate"
	"github.com/akhenakh/jsondate-lsp/logfields"
	"github.com/akhenakh/jsondate-lsp/metrics"
	"github.com/akhenakh/jsondate-lsp/protocol"
	"github.com/akhenakh/jsondate-lsp/server"
)

var version = "dev"

// CLI holds the command line. Flags override the configuration file.
type CLI struct {
	Config        string           `short:"c" help:"Configuration file path" type:"path" env:"JSONDATE_CONFIG"`
	Verbose       bool             `short:"v" help:"Enable verbose logging"`
	Layout        string           `help:"Date display layout: iso, dotnet or rfc1123" env:"JSONDATE_LAYOUT"`
	LogFormat     string           `help:"Log format: text or json" env:"JSONDATE_LOG_FORMAT"`
	MetricsAddr   string           `help:"Serve Prometheus metrics on this address" env:"JSONDATE_METRICS_ADDR"`
	NoDiagnostics bool             `help:"Do not report malformed date tokens" env:"JSONDATE_NO_DIAGNOSTICS"`
	Version       kong.VersionFlag `name:"version" help:"Show version and exit"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("jsondate-lsp"),
		kong.Description("Language server showing the instant behind \\/Date(...)\\/ tokens. Speaks LSP on stdin/stdout."),
		kong.Vars{"version": version},
	)

	cfg, err := cli.resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsondate-lsp: %v\n", err)
		os.Exit(2)
	}
	logger, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsondate-lsp: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, server.ReadWriter{Reader: os.Stdin, Writer: os.Stdout}); err != nil {
		logger.Error("Server error", logfields.Error(err))
		stop()
		os.Exit(1)
	}
}

// resolve loads the configuration file, if any, and applies flag overrides.
func (c *CLI) resolve() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.Layout != "" {
		layout, err := jsondate.ParseLayout(c.Layout)
		if err != nil {
			return nil, err
		}
		cfg.Layout = string(layout)
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = config.LogFormat(strings.ToLower(c.LogFormat))
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}
	if c.MetricsAddr != "" {
		cfg.Metrics.Addr = c.MetricsAddr
	}
	if c.NoDiagnostics {
		off := false
		cfg.Diagnostics = &off
	}
	return cfg, nil
}

func newLogger(lc config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch lc.Format {
	case config.LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", config.LogFormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", lc.Format)
	}
}

// run serves one client on rw until it exits or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, rw io.ReadWriter, opts ...server.Option) error {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(reg)

		stopMetrics, err := serveMetrics(cfg.Metrics.Addr, metrics.HTTPHandler(reg), logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	ls := newLangServer(cfg.Session(), recorder, logger)
	srv := server.NewServer(append([]server.Option{
		server.WithStream(rw),
		server.WithLogger(logger),
		server.WithServerInfo("jsondate-lsp", version),
		server.WithSyncKind(protocol.SyncIncremental),
		server.WithCodeActionKinds(protocol.RefactorRewrite, protocol.Source),
		server.WithInitializeHook(ls.initialize),
		server.WithRecorder(recorder),
	}, opts...)...)
	if err := ls.register(srv); err != nil {
		return err
	}

	logger.Info("Starting jsondate-lsp", "server_version", version, logfields.Layout(cfg.Layout))
	return srv.Run(ctx)
}

// serveMetrics exposes handler on addr under /metrics. The returned func
// shuts the listener down.
func serveMetrics(addr string, handler http.Handler, logger *slog.Logger) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Surface an immediate bind failure instead of running without metrics.
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("metrics listener on %s: %w", addr, err)
		}
	case <-time.After(100 * time.Millisecond):
	}
	logger.Info("Serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown", logfields.Error(err))
		}
	}, nil
}
