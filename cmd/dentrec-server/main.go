package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dentrec/dentrec/internal/config"
	"github.com/dentrec/dentrec/internal/domain/alert"
	"github.com/dentrec/dentrec/internal/domain/appointment"
	"github.com/dentrec/dentrec/internal/domain/dentalchart"
	"github.com/dentrec/dentrec/internal/domain/ledger"
	"github.com/dentrec/dentrec/internal/domain/patient"
	"github.com/dentrec/dentrec/internal/domain/summary"
	"github.com/dentrec/dentrec/internal/platform/cache"
	"github.com/dentrec/dentrec/internal/platform/db"
	"github.com/dentrec/dentrec/internal/platform/logging"
	"github.com/dentrec/dentrec/internal/platform/middleware"
	"github.com/dentrec/dentrec/internal/platform/telemetry"
	"github.com/dentrec/dentrec/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dentrec-server",
		Short: "Dental practice records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// migrationSource prefers an on-disk migrations directory and falls back to
// the files embedded in the binary.
func migrationSource(dir string) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}
	return migrations.FS
}

func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if tenant == "" {
				tenant = cfg.DefaultTenant
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			schema := db.SchemaName(tenant)
			migrator := db.NewMigrator(pool, migrationSource(dir))
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("tenant", "", "Practice identifier (defaults to DEFAULT_TENANT)")
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if tenant == "" {
				tenant = cfg.DefaultTenant
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			schema := db.SchemaName(tenant)
			statuses, err := db.NewMigrator(pool, migrationSource(dir)).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("tenant", "", "Practice identifier (defaults to DEFAULT_TENANT)")
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage practices",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a practice schema and apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating tenant schema: %s\n", db.SchemaName(name))
			if err := db.CreateTenantSchema(ctx, pool, name, migrationSource(cfg.MigrationsDir)); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Practice identifier (alphanumeric)")

	cmd.AddCommand(createCmd)
	return cmd
}

// services is every domain service the HTTP surface serves.
type services struct {
	patients     *patient.Service
	appointments *appointment.Service
	ledger       *ledger.Service
	charts       *dentalchart.Service
	alerts       *alert.Service
	summaries    *summary.Service
}

func newServices(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger, metrics *telemetry.Metrics, kv cache.KVStore) *services {
	tx := db.NewTransactor(pool)

	s := &services{
		patients:     patient.NewService(patient.NewRepoPG(pool), cfg.PhoneRegion, logger),
		appointments: appointment.NewService(appointment.NewRepoPG(pool), tx, logger),
		ledger:       ledger.NewService(ledger.NewRepoPG(pool), tx, logger),
		charts:       dentalchart.NewService(dentalchart.NewRepoPG(pool), logger),
		alerts:       alert.NewService(alert.NewRepoPG(pool), logger),
	}
	s.summaries = summary.NewService(s.patients, s.alerts, s.ledger, s.charts, logger)
	s.summaries.SetRecorder(metrics)
	s.ledger.SetRecorder(metrics)

	if kv != nil {
		s.summaries.SetCache(kv, cfg.SummaryCacheTTL)
		s.ledger.SetNotifier(s.summaries)
		s.charts.SetNotifier(s.summaries)
		s.alerts.SetNotifier(s.summaries)
	}
	return s
}

var exposedHeaders = []string{
	echo.HeaderContentDisposition,
	middleware.RequestIDHeader,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
}

// newServer builds the echo instance with global middleware, the tenant
// scoped API group and the operational endpoints.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger, metrics *telemetry.Metrics, svcs *services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.RejectMalformed(logger))
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderContentType, middleware.RequestIDHeader, db.TenantHeader},
		ExposeHeaders: exposedHeaders,
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	// Operational endpoints
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	// API group: tenant first so the rate limiter can key on it
	apiV1 := e.Group("/api/v1",
		db.TenantMiddleware(pool, cfg.DefaultTenant),
		middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
			IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
		}),
	)

	patient.NewHandler(svcs.patients).RegisterRoutes(apiV1)
	appointment.NewHandler(svcs.appointments).RegisterRoutes(apiV1)
	ledger.NewHandler(svcs.ledger, cfg.CurrencySymbol).RegisterRoutes(apiV1)
	dentalchart.NewHandler(svcs.charts).RegisterRoutes(apiV1)
	alert.NewHandler(svcs.alerts).RegisterRoutes(apiV1)
	summary.NewHandler(svcs.summaries).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Logger
	logger, closer := logging.New(cfg)
	defer closer.Close()

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Summary cache (optional)
	var kv cache.KVStore
	if cfg.CacheEnabled() {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("summary cache disabled")
		} else {
			defer rdb.Close()
			kv = cache.NewRedisKVStore(rdb, "dentrec:")
			logger.Info().Dur("ttl", cfg.SummaryCacheTTL).Msg("summary cache enabled")
		}
	}

	metrics := telemetry.New()
	e := newServer(cfg, pool, logger, metrics, newServices(cfg, pool, logger, metrics, kv))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
