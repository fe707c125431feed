package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortlink/internal/cache"
	"shortlink/internal/config"
	"shortlink/internal/handler"
	"shortlink/internal/middleware"
	"shortlink/internal/service"
	"shortlink/internal/store"
	"shortlink/pkg/database"
	"shortlink/pkg/logger"
	"shortlink/pkg/redis"
)

func main() {
	logger.InitLogger()
	defer func() { _ = logger.Logger.Sync() }()
	log := zap.S()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.InitPostgres(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	log.Info("database ready")

	var linkCache cache.Cache
	rdb, err := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		// The cache is an accelerator, not a dependency. Serve from the
		// store until Redis comes back.
		log.Warnf("redis unavailable, continuing without warm cache: %v", err)
	} else {
		log.Info("cache ready")
	}
	if rdb != nil {
		linkCache = cache.NewRedis(rdb)
		defer func() { _ = rdb.Close() }()
	}

	svc := service.New(
		store.New(db),
		linkCache,
		log,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
	)

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))

	registerRoutes(router, handler.NewShortLinkHandler(svc, log))

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("shutdown failed: %v", err)
	}
}

func registerRoutes(router *gin.Engine, h *handler.ShortLinkHandler) {
	router.GET("/api/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/shorten", h.CreateShortLink)
		api.GET("/urls", h.GetAllLinks)
		api.GET("/stats", h.GetStats)
		api.GET("/links/:code", h.GetLink)
		api.DELETE("/links/:code", h.DeleteLink)
	}

	router.GET("/:code", h.RedirectToOriginal)
}
