package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-box/internal/core/catalog/cache"
	"recipe-box/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// readyTimeout 就緒檢查等待儲存回應的上限
const readyTimeout = 2 * time.Second

// Pinger 可檢查連線的相依服務
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Storage   string                 `json:"storage"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
	Favorites int                    `json:"favorites"`
}

// Handler 健康檢查處理器
type Handler struct {
	version    string
	driver     string
	storage    Pinger
	cacheStats func() cache.Stats
	favorites  func() int
}

// NewHandler 創建健康檢查處理器，cacheStats 與 favorites 可為 nil
func NewHandler(version, driver string, storage Pinger, cacheStats func() cache.Stats, favorites func() int) *Handler {
	return &Handler{
		version:    version,
		driver:     driver,
		storage:    storage,
		cacheStats: cacheStats,
		favorites:  favorites,
	}
}

// Register 註冊路由
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Storage:   h.driver,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.cacheStats != nil {
		stats := h.cacheStats()
		response.Cache = &stats
	}
	if h.favorites != nil {
		response.Favorites = h.favorites()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，儲存無法連線時回應 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		common.LogWarn("儲存尚未就緒",
			zap.String("driver", h.driver),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"code":    common.ErrCodeServiceUnavailable,
			"storage": h.driver,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"storage": h.driver,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
