package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"qbodega/backend/internal/auth"
	"qbodega/backend/internal/cache"
	"qbodega/backend/internal/config"
	"qbodega/backend/internal/httpapi"
	"qbodega/backend/internal/logger"
	"qbodega/backend/internal/promotion"
	"qbodega/backend/internal/service"
	"qbodega/backend/internal/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		File:   cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 1)

	repo := memory.New()
	if cfg.SeedDemoData {
		repo = memory.NewSeeded()
	}
	zl.Info("repository: in-memory", zap.Bool("seeded", cfg.SeedDemoData))

	statsCache := cache.StatsCache(cache.NoopStatsCache{})
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisStatsCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			zl.Warn("redis unavailable, using noop stats cache", zap.Error(err))
			_ = redisCache.Close()
		} else {
			statsCache = redisCache
			closers = append(closers, redisCache.Close)
			zl.Info("stats cache: redis", zap.String("addr", cfg.Redis.Addr))
		}
	} else {
		zl.Info("stats cache: noop")
	}

	authManager, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTokenTTL, auth.DefaultAccounts())
	if err != nil {
		zl.Fatal("init auth", zap.Error(err))
	}

	svc := service.New(repo, promotion.NewEngine(), statsCache, cfg.Redis.StatsTTL, zl)
	api := httpapi.New(svc, authManager, cfg.AllowedOrigin, zl)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          zap.NewStdLog(zl.Named("http.server")),
	}

	go func() {
		zl.Info("Q'Bodega backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			zl.Error("close error", zap.Error(err))
		}
	}

	zl.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.Auth.Secret) < 32 {
		return fmt.Errorf("QBODEGA_AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	return nil
}
