package api

import (
	"errors"
	"time"

	catalogHandler "recipe-box/internal/api/handlers/catalog"
	favoritesHandler "recipe-box/internal/api/handlers/favorites"
	"recipe-box/internal/api/handlers/health"
	"recipe-box/internal/api/handlers/myrecipes"
	"recipe-box/internal/api/middleware"
	"recipe-box/internal/core/catalog/cache"
	"recipe-box/internal/core/favorites"
	"recipe-box/internal/infrastructure/config"
	"recipe-box/internal/infrastructure/storage"
	"recipe-box/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// janitorInterval 限流與去重狀態的清理間隔
const janitorInterval = time.Minute

// Dependencies 路由需要的服務
type Dependencies struct {
	Storage    storage.Storage
	Recipes    myrecipes.Repository
	Favorites  *favorites.Store
	Catalog    catalogHandler.Catalog
	CacheStats func() cache.Stats
}

// SetupRouter 設置路由，回傳的 stop 用於停止背景清理協程
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, func(), error) {
	if deps.Storage == nil || deps.Recipes == nil || deps.Favorites == nil || deps.Catalog == nil {
		return nil, nil, errors.New("router dependencies are incomplete")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	var stops []func()

	// 健康檢查路由
	health.NewHandler(cfg.App.Version, cfg.Storage.Driver, deps.Storage, deps.CacheStats, deps.Favorites.Len).
		Register(router)

	v1 := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		limiter.StartJanitor(janitorInterval)
		stops = append(stops, limiter.Stop)
		v1.Use(limiter.Middleware())
	}

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	dedup.StartJanitor(janitorInterval)
	stops = append(stops, dedup.Stop)

	catalogHandler.NewHandler(deps.Catalog).Register(v1)
	favoritesHandler.NewHandler(deps.Favorites).Register(v1)
	myrecipes.NewHandler(deps.Recipes).Register(v1, dedup.Middleware())

	common.LogInfo("Router setup completed successfully",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	stop := func() {
		for _, s := range stops {
			s()
		}
	}
	return router, stop, nil
}
