// Package server
//
// @title adminkit API
// @version 1.0
// @description Admin console session API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adminkit-dev/adminkit/internal/auth"
	"github.com/adminkit-dev/adminkit/internal/catalog"
	"github.com/adminkit-dev/adminkit/internal/config"
	"github.com/adminkit-dev/adminkit/internal/models"
	"github.com/adminkit-dev/adminkit/internal/util"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	catalog   *catalog.Catalog
	scheduler *cron.Cron
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	return NewWithDB(db, cfg, zlog, version)
}

// NewWithDB creates a server on an already opened database
func NewWithDB(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Load the persisted JWT secret, generating it on first start
	if err := initJWT(db, zlog); err != nil {
		return nil, err
	}

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidations(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	routes := catalog.Default()
	if cfg.Session.RoutesFile != "" {
		loaded, err := catalog.Load(cfg.Session.RoutesFile)
		if err != nil {
			return nil, err
		}
		routes = loaded
		zlog.Info().Str("file", cfg.Session.RoutesFile).Int("routes", len(routes.Routes)).Msg("Loaded route catalogue")
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		catalog: routes,
		version: version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initJWT loads the JWT secret from the Config singleton, creating it if needed
func initJWT(db *gorm.DB, zlog zerolog.Logger) error {
	var cfg models.Config
	err := db.First(&cfg).Error
	if err == nil {
		auth.InitializeJWT(cfg.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg = models.Config{JWTSecret: hex.EncodeToString(secretBytes)}
	if err := db.Create(&cfg).Error; err != nil {
		return fmt.Errorf("failed to persist JWT secret: %w", err)
	}

	auth.InitializeJWT(cfg.JWTSecret)
	zlog.Info().Msg("Generated new JWT secret")
	return nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool settings
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public endpoints
	s.router.POST("/api/setup", s.setupFirstAdmin)
	s.router.POST("/api/user/login", s.login)

	// Session endpoints (token required)
	user := s.router.Group("/api/user")
	user.Use(SessionMiddleware(s.db, s.logger))
	{
		user.GET("/info", s.getInfo)
		user.GET("/routes", s.listRoutes)
		user.POST("/logout", s.logout)
	}
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetHeader("X-Request-Id")).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "adminkit-api",
		"version":   s.version,
	})
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.HTTP.Addr

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := s.startPurgeScheduler(); err != nil {
		return err
	}

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Stop the purge scheduler and wait for a running purge
	<-s.scheduler.Stop().Done()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		s.logger.Info().Msg("Closing database connection...")
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		} else {
			s.logger.Info().Msg("Database closed successfully")
		}
	}

	return nil
}
