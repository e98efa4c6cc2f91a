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
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/geocode"
	"github.com/techtern/backend/internal/geocode/nominatim"
	"github.com/techtern/backend/internal/internship"
	internshippg "github.com/techtern/backend/internal/internship/postgres"
	"github.com/techtern/backend/internal/transport/rest"
	"github.com/techtern/backend/internal/user"
	userpg "github.com/techtern/backend/internal/user/postgres"
	"github.com/techtern/backend/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Env)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	authService := auth.NewService(
		auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.TokenTTL),
		config.Security.BCryptCost,
	)

	userRepo := userpg.NewUserRepository(gormDB, config.Database.QueryTimeout)
	userService := user.NewService(userRepo, authService, lg)
	userHandler := user.NewHandler(userService, authService, config.IsProduction())

	internshipRepo := internshippg.NewInternshipRepository(gormDB, config.Database.QueryTimeout)
	internshipService := internship.NewService(internshipRepo, lg)
	internshipHandler := internship.NewHandler(internshipService)

	geocodeClient := nominatim.NewClient(
		config.Geocode.BaseURL,
		config.Geocode.ContactEmail,
		nominatim.WithTimeout(config.Geocode.Timeout),
		nominatim.WithRateLimit(config.Geocode.RateLimit),
	)
	geocodeService := geocode.NewService(geocodeClient, lg)
	geocodeHandler := geocode.NewHandler(geocodeService)

	authMW := auth.NewMiddleware(authService, userService, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(
		router,
		db.DB,
		authMW,
		userHandler,
		internshipHandler,
		geocodeHandler,
		config.Server.Origins(),
		lg,
	)

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Router: router,
		Logger: lg,
	}, nil
}

// initDB opens the pgx-backed connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pool so both share one set
// of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
