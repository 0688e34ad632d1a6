package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/tasklists/internal/app"
	"github.com/dmehra2102/tasklists/internal/cli"
	"github.com/dmehra2102/tasklists/internal/domain"
	"github.com/dmehra2102/tasklists/internal/export"
	"github.com/dmehra2102/tasklists/internal/infrastructure/config"
	"github.com/dmehra2102/tasklists/internal/infrastructure/filestore"
	"github.com/dmehra2102/tasklists/internal/infrastructure/memory"
	"github.com/dmehra2102/tasklists/internal/infrastructure/mysql"
	"github.com/dmehra2102/tasklists/internal/infrastructure/postgres"
	"github.com/dmehra2102/tasklists/internal/interceptors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName    = "tasklists"
	serviceVersion = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var backend string

	root := &cobra.Command{
		Use:           "tasklists",
		Short:         "Manage to-do lists from the terminal",
		Version:       serviceVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), backend, func(ctx context.Context, store *app.Store) error {
				session := cli.NewSession(store, cmd.OutOrStdout())
				defer session.Close()
				return session.Run(ctx, cmd.InOrStdin())
			})
		},
	}
	root.PersistentFlags().StringVar(&backend, "backend", "", "storage backend (file, memory, postgres, mysql); overrides STORE_BACKEND")

	root.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print all lists once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), backend, func(ctx context.Context, store *app.Store) error {
				fmt.Fprint(cmd.OutOrStdout(), cli.NewRenderer().Render(store.Snapshot()))
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "export <file.pdf>",
		Short: "Write all lists to a PDF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), backend, func(ctx context.Context, store *app.Store) error {
				if err := export.PDFFile(store.Snapshot(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[0])
				return nil
			})
		},
	})

	return root
}

// withStore wires configuration, logging, tracing, metrics and the slot
// repository, then hands a ready store to fn.
func withStore(ctx context.Context, backend string, fn func(context.Context, *app.Store) error) error {
	cfg, err := config.Load()
	if backend != "" && err == nil {
		cfg.StoreBackend = backend
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting tasklists",
		zap.String("version", serviceVersion),
		zap.String("environment", cfg.Environment),
		zap.String("backend", cfg.StoreBackend),
	)

	if cfg.EnableTracing {
		shutdown, err := initTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn("failed to flush traces", zap.Error(err))
				}
			}()
		}
	}

	repo, err := initRepository(ctx, cfg.GetStorageConfig(), logger)
	if err != nil {
		logger.Error("failed to initialize storage", zap.Error(err))
		return err
	}
	defer repo.Close()

	registry := prometheus.NewRegistry()
	if cfg.EnableMetrics {
		stopMetrics := serveMetrics(cfg.MetricsPort, registry, logger)
		defer stopMetrics(cfg.ShutdownTimeout)
	}

	store := app.NewStore(ctx, repo,
		app.WithLogger(logger),
		app.WithUndoWindow(cfg.UndoWindow),
		app.WithMetrics(interceptors.NewMetrics(registry)),
	)
	defer store.Close()

	return fn(ctx, store)
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.LogFormat
	// stdout belongs to the interactive session
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func initTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func initRepository(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (domain.SlotRepository, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewSlotRepository(), nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(db, cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug("postgres slot ready", zap.String("slot", cfg.SlotKey))
		return postgres.NewSlotRepository(db, cfg.SlotKey, cfg.Timeout), nil

	case config.BackendMySQL:
		db, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		repo := mysql.NewSlotRepository(db, cfg.SlotKey, cfg.Timeout)
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		logger.Debug("mysql slot ready", zap.String("slot", cfg.SlotKey))
		return repo, nil

	default:
		logger.Debug("file slot ready", zap.String("path", cfg.File))
		return filestore.NewSlotRepository(cfg.File), nil
	}
}

func serveMetrics(port int, registry *prometheus.Registry, logger *zap.Logger) func(time.Duration) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func(timeout time.Duration) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown timed out", zap.Error(err))
		}
	}
}
