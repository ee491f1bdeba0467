// Command hiveql-lsp is a Language Server Protocol server offering HiveQL
// completion over stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/internal/app"
	"github.com/rlch/hiveql/lsp"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "hiveql-lsp",
		Version: version,
		Usage:   "HiveQL language server over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to .hiveql.yaml (default: search upwards from the working directory)",
				Sources: cli.EnvVars("HIVEQL_CONFIG"),
			},
		},
		Action: serve,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := app.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	// Logs go to stderr (stdout is for LSP communication)
	logger, err := app.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting hiveql-lsp server", zap.String("catalog", cfg.Catalog.Source))

	return run(ctx, cfg, logger, os.Stdin, os.Stdout)
}

func run(ctx context.Context, cfg *hiveql.Config, logger *zap.Logger, in io.Reader, out io.Writer) error {
	engine, cat, err := app.NewEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := cat.Close(); err != nil {
			logger.Warn("closing catalog", zap.Error(err))
		}
	}()

	var opts []lsp.Option

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		opts = append(opts, lsp.WithMetrics(lsp.NewMetrics(reg)))

		srv := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Create a JSON-RPC stream connection over stdio
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	// Create a client to send notifications to the editor
	client := protocol.ClientDispatcher(conn, logger)

	server := lsp.NewServer(client, logger, engine, opts...)

	// Register the server handler with the connection
	conn.Go(ctx, protocol.ServerHandler(server, nil))

	select {
	case <-conn.Done():
		return conn.Err()
	case <-ctx.Done():
		_ = conn.Close()
		<-conn.Done()

		return nil
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return srv
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	// Close writer if it's closeable
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
