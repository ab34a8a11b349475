package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-box/internal/api"
	"recipe-box/internal/core/catalog"
	"recipe-box/internal/core/catalog/cache"
	"recipe-box/internal/core/favorites"
	"recipe-box/internal/core/recipe"
	"recipe-box/internal/infrastructure/config"
	"recipe-box/internal/infrastructure/storage"
	"recipe-box/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.Log.Level, cfg.Log.Dir, cfg.Log.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("storage_key", cfg.Storage.Key),
		zap.String("catalog_base_url", cfg.Catalog.BaseURL),
	)

	// 初始化本機儲存
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		common.LogFatal("Failed to initialize storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			common.LogError("Failed to close storage", zap.Error(err))
		}
	}()

	// 初始化快取與目錄客戶端
	cacheManager := cache.NewManager(&cfg.Catalog)
	defer cacheManager.Close()
	catalogClient := catalog.NewClient(&cfg.Catalog, cacheManager)

	repo := recipe.NewRepository(store, cfg.Storage.Key, recipe.WithTimeout(cfg.Storage.Timeout))
	favoriteStore := favorites.NewStore()

	// 設置路由
	router, stopRouter, err := api.SetupRouter(cfg, api.Dependencies{
		Storage:    store,
		Recipes:    repo,
		Favorites:  favoriteStore,
		Catalog:    catalogClient,
		CacheStats: catalogClient.CacheStats,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}
	defer stopRouter()

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
