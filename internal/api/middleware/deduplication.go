package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-box/internal/pkg/common"
)

// Deduplicator 拒絕視窗內重複送出的相同寫入請求（例如連點儲存）
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDeduplicator 創建去重器，window <= 0 時使用 1 秒
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window:   window,
		now:      time.Now,
		requests: make(map[string]time.Time),
		stop:     make(chan struct{}),
	}
}

// StartJanitor 定期清理過期的請求指紋
func (d *Deduplicator) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.sweep()
			case <-d.stop:
				return
			}
		}
	}()
}

func (d *Deduplicator) sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, t := range d.requests {
		if now.Sub(t) > d.window {
			delete(d.requests, k)
		}
	}
}

// Stop 停止清理協程
func (d *Deduplicator) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// claim 記錄指紋並回傳記錄時間，視窗內重複時 ok 為 false
func (d *Deduplicator) claim(fingerprint string) (at time.Time, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, exists := d.requests[fingerprint]; exists && now.Sub(last) <= d.window {
		return time.Time{}, false
	}
	d.requests[fingerprint] = now
	return now, true
}

// release 撤銷 claim 的記錄，之後相同請求可立即重送
func (d *Deduplicator) release(fingerprint string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, exists := d.requests[fingerprint]; exists && last.Equal(at) {
		delete(d.requests, fingerprint)
	}
}

// Middleware 請求去重中間件，只處理 POST 與 PUT。
// 處理中的請求也算在視窗內；回應 4xx/5xx 的請求不留下指紋。
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("讀取請求內容失敗", zap.Error(err))
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					abortWithError(c, common.ErrBodyTooLarge)
				} else {
					abortWithError(c, common.ErrInvalidRequest.Wrap(err))
				}
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 生成請求指紋
		fingerprint := c.ClientIP() + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + bodyHash
		at, ok := d.claim(fingerprint)
		if !ok {
			common.LogInfo("重複請求已略過",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			abortWithError(c, common.ErrTooManyRequests)
			return
		}

		// panic 時 completed 為 false，同樣撤銷指紋
		completed := false
		defer func() {
			if !completed || c.Writer.Status() >= http.StatusBadRequest {
				d.release(fingerprint, at)
			}
		}()

		c.Next()
		completed = true
	}
}
