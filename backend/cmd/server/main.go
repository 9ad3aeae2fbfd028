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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"social-graph/backend/internal/api"
	"social-graph/backend/internal/feed"
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/interests"
	"social-graph/backend/pkg/config"
	"social-graph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting interest graph API server...")

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	log.Info("Server exited")
}

// graphStore is the slice of *graph.Store the server lifecycle depends on.
type graphStore interface {
	graph.Runner
	Close(ctx context.Context) error
}

// run opens the store and serves until a shutdown signal or listen failure.
func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	store, err := graph.Open(ctx, graph.Config{
		URI:            cfg.Neo4jURI,
		User:           cfg.Neo4jUser,
		Password:       cfg.Neo4jPassword,
		Database:       cfg.Neo4jDatabase,
		MaxPoolSize:    cfg.Neo4jMaxPoolSize,
		AcquireTimeout: cfg.Neo4jAcquireTimeout,
		QueryTimeout:   cfg.QueryTimeout,
	}, logger.Named("graph"))
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	return runWithStore(ctx, cfg, log, store)
}

// runWithStore takes ownership of store and closes it before returning.
func runWithStore(ctx context.Context, cfg *config.Config, log *zap.Logger, store graphStore) error {
	defer closeStore(store, log)

	if err := graph.EnsureSchema(ctx, store, log); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	return serve(cfg, log, store)
}

func serve(cfg *config.Config, log *zap.Logger, store graphStore) error {
	interestSvc := interests.NewService(store, logger.Named("interests"), cfg.BatchConcurrency)
	composer := feed.NewComposer(store, logger.Named("feed"))
	handler := api.NewHandler(composer, interestSvc, logger.Named("api"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(log, handler),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	return nil
}

func closeStore(store graphStore, log *zap.Logger) {
	if err := store.Close(context.Background()); err != nil {
		log.Error("Failed to close graph store", zap.Error(err))
	}
}

func setupRouter(log *zap.Logger, handler *api.Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.Register(router.Group("/api"))

	return router
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			log.Warn("HTTP Request", fields...)
			return
		}
		log.Info("HTTP Request", fields...)
	}
}
