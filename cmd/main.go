package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/kodbank/backend/docs"
	"github.com/kodbank/backend/internal/auth/middleware"
	"github.com/kodbank/backend/internal/auth/service"
	"github.com/kodbank/backend/internal/config"
	"github.com/kodbank/backend/internal/handlers"
	"github.com/kodbank/backend/internal/logger"
	loggerMiddleware "github.com/kodbank/backend/internal/logger/middleware"
	"github.com/kodbank/backend/internal/middlewares"
	"github.com/kodbank/backend/internal/models"
	"github.com/kodbank/backend/internal/repositories"
	"github.com/kodbank/backend/internal/scheduler"
	"github.com/kodbank/backend/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// credentialRateLimit caps register and login attempts per IP and minute
const credentialRateLimit = 10

// @title Kodbank API
// @version 1.0
// @description Authentication, session and ledger API of the Kodbank demo bank

// @host localhost:5000
// @BasePath /api
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
// @description Session token set by /auth/login.
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Maintenance key for token cleaning.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Refusing to start: %v\n", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Kodbank backend")

	// Connect to database
	db, err := connectDB(cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize session token generator
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, appLogger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	txRepo := repositories.NewTransactionRepository(db, appLogger)
	scope := repositories.NewTransactionScope(db, appLogger)

	// Initialize services
	authService := services.NewAuthService(userRepo, userTokenRepo, txRepo, scope, tokenGenerator, cfg.OpeningBalance, appLogger)
	bankService := services.NewBankService(userRepo, txRepo, scope, appLogger)
	adminService := services.NewAdminService(userRepo, txRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokenGenerator, cfg.JWT.AccessTokenExpiry, cfg.Cookie.Secure, appLogger)
	bankHandler := handlers.NewBankHandler(bankService, appLogger)
	adminHandler := handlers.NewAdminHandler(adminService, appLogger)
	tokenCleaningHandler := handlers.NewTokenCleaningHandler(userTokenRepo, appLogger)
	healthHandler := handlers.NewHealthHandler(db, appLogger)

	// Start expired token purge job
	if cfg.TokenPurgeSchedule != "" {
		purger, err := scheduler.NewTokenPurger(userTokenRepo, cfg.TokenPurgeSchedule, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create token purger", zap.Error(err))
		}
		purger.Start()
		defer purger.Stop()
	}

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	staffMiddleware := middleware.RoleMiddleware(models.RoleManager)
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.APIKey)
	credentialLimiter := httprate.LimitByIP(credentialRateLimit, time.Minute)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(appLogger))
	r.Use(middlewares.RecoveryMiddleware(appLogger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(middlewares.DefaultMaxRequestSize, appLogger))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	healthHandler.RegisterRoutes(r)

	// Scope router to /api
	r.Route("/api", func(r chi.Router) {
		// Register auth routes
		authHandler.RegisterRoutes(r, authMiddleware, credentialLimiter)
		// Register balance and ledger routes
		bankHandler.RegisterRoutes(r, authMiddleware)
		// Register admin routes with role middleware
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(staffMiddleware)
			adminHandler.RegisterRoutes(r)
		})
		// Register token cleaning routes with API key middleware
		r.Group(func(r chi.Router) {
			r.Use(apiKeyMiddleware)
			tokenCleaningHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
