package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openshr/xds-repository/internal/config"
	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/domain/contenthandler"
	"github.com/openshr/xds-repository/internal/domain/identity"
	"github.com/openshr/xds-repository/internal/domain/queue"
	"github.com/openshr/xds-repository/internal/domain/registry"
	"github.com/openshr/xds-repository/internal/domain/repository"
	"github.com/openshr/xds-repository/internal/platform/audit"
	"github.com/openshr/xds-repository/internal/platform/db"
	"github.com/openshr/xds-repository/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xds-repository",
		Short: "XDS.b Document Repository",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the document repository server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
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
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// newRouter builds the echo server. Bearer auth guards the repository API
// group only; the health endpoint stays open for load-balancer probes.
func newRouter(logger zerolog.Logger, jwtSecret []byte, h *repository.Handler, health echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	apiV1 := e.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	h.RegisterRoutes(apiV1)

	e.GET("/health/db", health)

	return e
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Warn about pending migrations rather than refusing to start.
	if statuses, err := db.NewMigrator(pool, "./migrations").Status(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not check migration status")
	} else {
		pending := 0
		for _, s := range statuses {
			if !s.Applied {
				pending++
			}
		}
		if pending > 0 {
			logger.Warn().Int("pending", pending).Msg("database has pending migrations")
		}
	}

	// Clinical stores and content handlers
	store := clinical.NewStorePG(pool)
	handlers := contenthandler.NewRegistry(
		contenthandler.NewUnstructuredHandler(contenthandler.NewContentStorePG(pool)),
	)

	resolver := identity.NewResolver(store, cfg.AutoCreatePatients, cfg.AutoCreateProviders, logger)
	registryClient := registry.NewHTTPClient(cfg.RegistryURL, cfg.RepositoryUniqueID, cfg.RegistryTimeout, logger)
	queueStore := queue.NewStorePG(pool)
	auditor := audit.NewPGRecorder(pool, logger)

	svc := repository.NewService(repository.ServiceParams{
		RepositoryUniqueID: cfg.RepositoryUniqueID,
		HomeCommunityID:    cfg.HomeCommunityID,
		AsyncDiscrete:      cfg.AsyncDiscreteHandling,
		Mappings:           repository.NewMappingRepoPG(pool),
		Handlers:           handlers,
		Resolver:           resolver,
		Registry:           registryClient,
		Queue:              queueStore,
		Audit:              auditor,
		Log:                logger,
	})

	// Echo server
	e := newRouter(logger, []byte(cfg.JWTSecret),
		repository.NewHandler(svc, queueStore), db.HealthHandler(pool))

	// Discrete-content queue workers
	var supervisor *queue.Supervisor
	if cfg.AsyncDiscreteHandling {
		proc := queue.NewProcessor(store, handlers, logger)
		supervisor = queue.NewSupervisor(
			queueStore, proc,
			cfg.QueueWorkers, cfg.QueuePollPeriod, cfg.QueueShutdownGrace, cfg.QueueRequeueAfter,
			logger,
		)
		supervisor.Start(ctx)
		logger.Info().Int("workers", cfg.QueueWorkers).Msg("discrete queue workers started")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
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
	if supervisor != nil {
		supervisor.Stop()
	}
	logger.Info().Msg("server stopped")
	return nil
}
