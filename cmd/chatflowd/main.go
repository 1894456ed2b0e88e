// Command chatflowd serves the chatbot flow editor over HTTP.
//
// Settings come from an optional YAML or JSON file (-config), a .env file
// in the working directory and CHATFLOW_* environment variables, in
// increasing priority.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/randalmurphal/chatflow/pkg/chatflow"
	"github.com/randalmurphal/chatflow/pkg/chatflow/codec"
	"github.com/randalmurphal/chatflow/pkg/chatflow/config"
	"github.com/randalmurphal/chatflow/pkg/chatflow/httpapi"
	"github.com/randalmurphal/chatflow/pkg/chatflow/observability"
	"github.com/randalmurphal/chatflow/pkg/chatflow/palette"
	"github.com/randalmurphal/chatflow/pkg/chatflow/session"
	"github.com/randalmurphal/chatflow/pkg/chatflow/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "chatflowd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chatflowd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a .yaml or .json config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// A missing .env is fine; the environment may be set some other way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	editorOpts := []chatflow.Option{chatflow.WithLogger(logger)}
	apiOpts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithCORSOrigins(cfg.CORSOrigins...),
		httpapi.WithPalette(palette.Default()),
	}

	if cfg.TelemetryEnabled {
		tel, err := setupTelemetry(ctx, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown", "error", err)
			}
		}()
		editorOpts = append(editorOpts,
			chatflow.WithMetrics(observability.NewMetricsRecorder()),
			chatflow.WithTracing(observability.NewSpanManager()),
		)
		apiOpts = append(apiOpts, httpapi.WithMetricsCollector(tel))
	}

	backend, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	c, err := codec.ByName(cfg.Store.Codec, cfg.Store.Compress)
	if err != nil {
		return err
	}
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}

	flows := store.NewFlowStore(backend, c)
	editorOpts = append(editorOpts, chatflow.WithSaver(flows))
	apiOpts = append(apiOpts, httpapi.WithRevisions(flows))

	sessions := session.NewManager(
		session.WithLoader(flows),
		session.WithLogger(logger),
		session.WithEditorOptions(editorOpts...),
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.New(sessions, apiOpts...).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			"addr", cfg.Addr,
			"store", cfg.Store.Driver,
			"codec", c.Name(),
			"telemetry", cfg.TelemetryEnabled,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(w io.Writer, s config.LogSettings) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if s.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func openStore(ctx context.Context, s config.StoreSettings) (store.Store, error) {
	switch s.Driver {
	case config.DriverSQLite:
		return store.NewSQLiteStore(s.SQLitePath)
	case config.DriverRedis:
		return store.NewRedisStore(ctx, s.RedisURL)
	case config.DriverMemory, "":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", s.Driver)
	}
}

func setupTelemetry(ctx context.Context, endpoint string) (*observability.Telemetry, error) {
	var exporter sdktrace.SpanExporter
	if endpoint != "" {
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		exporter = exp
	}
	return observability.SetupTelemetry("chatflowd", exporter), nil
}
