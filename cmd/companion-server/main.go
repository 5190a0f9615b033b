package main

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/secondopinion/companion/internal/config"
	"github.com/secondopinion/companion/internal/domain/chat"
	"github.com/secondopinion/companion/internal/domain/documents"
	"github.com/secondopinion/companion/internal/domain/guardians"
	"github.com/secondopinion/companion/internal/domain/health"
	"github.com/secondopinion/companion/internal/domain/records"
	"github.com/secondopinion/companion/internal/platform/blobstore"
	"github.com/secondopinion/companion/internal/platform/db"
	"github.com/secondopinion/companion/internal/platform/llm"
	"github.com/secondopinion/companion/internal/platform/middleware"
	"github.com/secondopinion/companion/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "companion-server",
		Short: "Health companion API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

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

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres record store schema",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closePool()

			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx, schema)
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
	statusCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

// openMigrator connects to DATABASE_URL. The returned func closes the pool.
func openMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for migrations")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrationSource(dir)), pool.Close, nil
}

func migrationSource(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <user_id>",
		Short: "Seed mock vitals and a profile into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			store, closeStore, _, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			userID := args[0]
			if err := seedUser(ctx, store, userID, days, time.Now()); err != nil {
				return err
			}
			fmt.Printf("Seeded %d day(s) of vitals for %s into the %s store.\n", days, userID, cfg.StoreBackend)
			return nil
		},
	}
	cmd.Flags().Int("days", health.MockDays, "Days of mock vitals to generate")
	return cmd
}

// seedUser writes days of mock vitals and, when none exists, the mock profile.
func seedUser(ctx context.Context, store records.Store, userID string, days int, now time.Time) error {
	rng := rand.New(rand.NewSource(now.UnixNano()))
	for _, m := range health.GenerateMockMetrics(rng, now, days) {
		if err := store.AppendMetric(ctx, userID, m); err != nil {
			return fmt.Errorf("seed metrics for %s: %w", userID, err)
		}
	}

	profile, err := store.Profile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if profile == nil {
		if err := store.SaveProfile(ctx, userID, health.MockProfile(userID)); err != nil {
			return fmt.Errorf("seed profile for %s: %w", userID, err)
		}
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// openStore builds the record store selected by STORE_BACKEND. The returned
// handler, when non-nil, reports the backend's health.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (records.Store, func(), echo.HandlerFunc, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info().Msg("connected to database")
		return records.NewPGStore(pool), pool.Close, db.HealthHandler(pool), nil

	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, db.PingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("connected to redis")
		ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		closeFn := func() { rdb.Close() }
		return records.NewRedisStore(rdb, records.DefaultRedisPrefix), closeFn, db.PingHandler(config.BackendRedis, ping, nil), nil

	default:
		logger.Warn().Msg("using in-memory record store; data is lost on restart")
		return records.NewMemoryStore(), func() {}, nil, nil
	}
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Record store
	ctx := context.Background()
	store, closeStore, storeHealth, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open record store")
	}
	defer closeStore()

	e, err := newServer(cfg, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	if storeHealth != nil {
		e.GET("/health/db", storeHealth)
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("backend", cfg.StoreBackend).Bool("llm_configured", cfg.LLMConfigured()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires services and routes over store.
func newServer(cfg *config.Config, store records.Store, logger zerolog.Logger) (*echo.Echo, error) {
	alertMode, err := health.ParseAlertMode(cfg.AlertMode)
	if err != nil {
		return nil, err
	}

	// Completion gateway
	var provider llm.Provider
	if cfg.LLMConfigured() {
		provider = llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMBaseURL)
	} else {
		logger.Warn().Msg("no LLM API key configured; chat and document analysis return the setup notice")
	}
	gateway := llm.NewGateway(provider, cfg.LLMModel, cfg.LLMTimeout, logger)

	// Services
	healthSvc := health.NewService(store, health.Options{AlertMode: alertMode, AutoSeed: cfg.AutoSeed}, logger)
	chatSvc := chat.NewService(store, gateway, logger)
	blobs := blobstore.NewInMemoryBlobStore(middleware.ParseLimit(cfg.UploadLimit))
	docSvc := documents.NewService(store, blobs, gateway, nil, logger)
	guardianSvc := guardians.NewService(store, healthSvc, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.UploadLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/health"))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"version":        version,
			"backend":        cfg.StoreBackend,
			"llm_configured": gateway.Configured(),
			"llm_model":      gateway.Model(),
			"alert_mode":     healthSvc.AlertMode(),
			"stored_blobs":   blobs.Len(),
		})
	})

	// API routes
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api := e.Group("/api")
	api.Use(middleware.RateLimit(rateLimitCfg))

	health.NewHandler(healthSvc).RegisterRoutes(api)
	chat.NewHandler(chatSvc).RegisterRoutes(api)
	documents.NewHandler(docSvc).RegisterRoutes(api)
	guardians.NewHandler(guardianSvc).RegisterRoutes(api)

	return e, nil
}
