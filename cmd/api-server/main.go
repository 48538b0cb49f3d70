// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"books-admin/internal/apiserver/auth"
	"books-admin/internal/apiserver/server"
	"books-admin/internal/config"
	"books-admin/internal/shared/cache"
	cacheredis "books-admin/internal/shared/cache/redis"
	"books-admin/internal/shared/query"
	"books-admin/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 初始化 MongoDB（持久化业务数据，含唯一索引）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化统计缓存（Redis 可选，未启用时退化为 no-op）
	var statsCache cache.StatsCache = cache.NewNoOpCache()
	if cfg.RedisEnabled {
		redisCache, err := cacheredis.NewStoreFromURL(cfg.RedisURL, cfg.StatsTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		statsCache = redisCache
	}
	defer statsCache.Close()

	authCfg := auth.Config{
		JWTSecret:       cfg.JWTSecret,
		Issuer:          "books-admin",
		Audience:        "books-admin-api",
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		BcryptCost:      cfg.BcryptCost,
		AdminUsername:   cfg.AdminUsername,
		AdminEmail:      cfg.AdminEmail,
		AdminPassword:   cfg.AdminPassword,
	}

	// 管理员引导：保证常规供给路径存在
	if err := auth.EnsureAdminUser(context.Background(), store, authCfg); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	bounds := query.Bounds{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}
	h := server.NewHandler(store, statsCache, authCfg, bounds)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
