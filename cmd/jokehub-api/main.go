// Package main is the entry point for the JokeHub API.
// JokeHub serves jokes, categories, votes and user management over a
// role-gated REST interface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/account"
	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	"github.com/jokehub/jokehub/internal/category"
	"github.com/jokehub/jokehub/internal/common/config"
	"github.com/jokehub/jokehub/internal/common/database"
	"github.com/jokehub/jokehub/internal/common/logger"
	"github.com/jokehub/jokehub/internal/email"
	"github.com/jokehub/jokehub/internal/joke"
	"github.com/jokehub/jokehub/internal/middleware"
	"github.com/jokehub/jokehub/internal/profile"
	"github.com/jokehub/jokehub/internal/role"
	"github.com/jokehub/jokehub/internal/user"
	"github.com/jokehub/jokehub/internal/vote"
)

var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
)

func main() {
	// Initialize logger
	log := logger.New()
	defer log.Sync()

	log.Info("Starting JokeHub API",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", CommitHash),
	)

	// Load configuration
	cfg, err := config.Load("jokehub-api")
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize database connection
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Ensure schema and baseline access-control data exist
	if err := database.InitializeSchema(context.Background(), db.Pool); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	if err := database.SeedAccessControl(context.Background(), db.Pool); err != nil {
		log.Fatal("Failed to seed access control data", zap.Error(err))
	}

	// Initialize Redis connection
	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Count every policy evaluation
	authz.DecisionObserver = middleware.RecordAuthzDecision

	// Initialize router
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(logger.GinMiddleware(log))
	router.Use(middleware.PrometheusMetrics("jokehub-api"))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsHandler())

	// Shared infrastructure services
	emailService := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log)
	passwordService := auth.NewPasswordService()
	tokenService := auth.NewTokenService([]byte(cfg.JWTSecret), redis.Client, log).
		WithConfig(auth.TokenConfig{
			TokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
			Issuer:   "jokehub",
		})

	// Repositories
	userRepo := user.NewPostgresRepository(db.Pool)
	jokeRepo := joke.NewPostgresRepository(db.Pool)
	categoryRepo := category.NewPostgresRepository(db.Pool)
	roleRepo := role.NewPostgresRepository(db.Pool)
	voteRepo := vote.NewPostgresRepository(db.Pool)

	// Domain services. Deleting a user trashes their jokes and purges
	// their votes, so the user service depends on both.
	jokeService := joke.NewService(jokeRepo, log, cfg.PageSize)
	voteService := vote.NewService(voteRepo, jokeRepo, userRepo, log)
	userService := user.NewService(userRepo, jokeService, voteService, passwordService, emailService, log, cfg.PageSize, cfg.VerifyLinkBaseURL)
	categoryService := category.NewService(categoryRepo, log)
	roleService := role.NewService(roleRepo, log)
	profileService := profile.NewService(userRepo, jokeService, voteService, passwordService, tokenService, log)
	accountService := account.NewService(userRepo, passwordService, tokenService, emailService, log, cfg.ResetLinkBaseURL, cfg.VerifyLinkBaseURL)

	// Authentication middleware resolves the bearer token into an actor
	// with its roles and permissions loaded from the database.
	authn := auth.NewMiddleware(tokenService, userService, log).Authenticate()

	// Register routes
	account.NewHandler(accountService).RegisterRoutes(router, authn)
	user.NewHandler(userService).RegisterRoutes(router, authn)
	joke.NewHandler(jokeService).RegisterRoutes(router, authn)
	category.NewHandler(categoryService).RegisterRoutes(router, authn)
	role.NewHandler(roleService).RegisterRoutes(router, authn)
	vote.NewHandler(voteService).RegisterRoutes(router, authn)
	profile.NewHandler(profileService).RegisterRoutes(router, authn)

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jokehub-api",
			"version": Version,
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := gin.H{"status": "ready"}
		if err := db.Ping(c.Request.Context()); err != nil {
			status["status"] = "not ready"
			status["postgres"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		if err := redis.Ping(c.Request.Context()); err != nil {
			status["redis"] = "unhealthy"
		}
		c.JSON(http.StatusOK, status)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
