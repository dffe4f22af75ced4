package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/auth"
	authpostgres "github.com/KinzixInfotech/edutemp-sub018/internal/auth/postgres"
	"github.com/KinzixInfotech/edutemp-sub018/internal/cache"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
	"github.com/KinzixInfotech/edutemp-sub018/internal/payment"
	paymentpostgres "github.com/KinzixInfotech/edutemp-sub018/internal/payment/postgres"
	"github.com/KinzixInfotech/edutemp-sub018/internal/portal"
	portalpostgres "github.com/KinzixInfotech/edutemp-sub018/internal/portal/postgres"
	"github.com/KinzixInfotech/edutemp-sub018/internal/session"
	"github.com/KinzixInfotech/edutemp-sub018/internal/settings"
	settingspostgres "github.com/KinzixInfotech/edutemp-sub018/internal/settings/postgres"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport/middleware"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport/rest"
	"github.com/KinzixInfotech/edutemp-sub018/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle portal, callback and admin API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.Redis.Close(); err != nil {
			slog.Error("Redis close error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	deps.Router.Use(middleware.RequestID)
	deps.Router.Use(middleware.LoggingMiddleware(deps.Logger))

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Redis, deps.Handlers, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	eventBus := events.NewEventBus(lg)
	feeCache := cache.New(redisClient, lg)

	// Repositories
	paymentRepo := paymentpostgres.NewPaymentRepository(gormDB)
	settingsRepo := settingspostgres.NewSettingsRepository(gormDB)
	portalRepo := portalpostgres.NewPortalRepository(gormDB)
	userRepo := authpostgres.NewUserRepository(gormDB)

	// Services
	settingsService := settings.NewService(settingsRepo, feeCache, lg)
	paymentService := payment.NewService(paymentRepo, portalRepo, settingsService, eventBus, config.Payment.CallbackBaseURL, lg)
	portalService := portal.NewService(portalRepo, paymentRepo, feeCache, config.Portal.FeeCacheTTL, lg)

	sessionStore := session.NewRedisStore(redisClient)
	sessionService := session.NewService(sessionStore, portalRepo, config.Portal.SessionTTL, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userRepo, tokenGen, config.Security.BCryptCost)

	// Cache invalidation on payment outcomes
	payment.NewEventHandler(feeCache, lg).RegisterEventHandlers(eventBus)

	handlers := rest.Handlers{
		Auth:            auth.NewHandler(authService, lg),
		Session:         session.NewHandler(sessionService, lg),
		Portal:          portal.NewHandler(portalService, lg),
		Payment:         payment.NewHandler(paymentService, lg),
		Callback:        payment.NewCallbackHandler(paymentService, lg),
		Settings:        settings.NewHandler(settingsService, lg),
		DevToolsEnabled: config.Payment.DevToolsEnabled,
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Redis:    redisClient,
		Router:   chi.NewRouter(),
		Handlers: handlers,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pgx connection.
// TranslateError turns driver unique-violation errors into
// gorm.ErrDuplicatedKey, which order ID collision handling relies on.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
}
