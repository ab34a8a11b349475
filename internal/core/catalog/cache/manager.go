// Package cache 遠端食譜目錄的記憶體快取
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"recipe-box/internal/infrastructure/config"
	"recipe-box/internal/pkg/common"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ErrMiss 快取未命中或已過期
var ErrMiss = errors.New("cache miss")

// Manager 快取管理器，方法對 nil 接收者安全（視為停用）
type Manager struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	// mu 同時保護 stats；store 的淘汰回呼只在持鎖時觸發
	mu    sync.Mutex
	store *lru.Cache[string, cacheEntry]
	stats Stats

	stop      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// cacheEntry 快取條目
type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Stats 快取統計
type Stats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NewManager 創建快取管理器，未啟用時回傳 nil
func NewManager(cfg *config.CatalogConfig) *Manager {
	if !cfg.CacheEnabled {
		common.LogInfo("目錄快取已停用")
		return nil
	}

	m := newManager(cfg.CacheTTL, cfg.CacheMaxSize, time.Now)
	m.done = make(chan struct{})

	// 啟動清理過期快取的協程
	go m.startCleanup(cfg.CacheCleanupInterval)

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.CacheMaxSize),
		zap.Duration("存活時間", cfg.CacheTTL),
		zap.Duration("清理間隔", cfg.CacheCleanupInterval),
	)
	return m
}

func newManager(ttl time.Duration, maxSize int, now func() time.Time) *Manager {
	if maxSize <= 0 {
		maxSize = 1
	}
	m := &Manager{
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		stop:    make(chan struct{}),
	}
	// 只有 size <= 0 會回傳錯誤
	m.store, _ = lru.NewWithEvict[string, cacheEntry](maxSize, m.onEvict)
	return m
}

// onEvict 容量淘汰、過期移除都計入淘汰次數，呼叫端已持有 mu
func (m *Manager) onEvict(key string, _ cacheEntry) {
	m.stats.Evictions++
	common.LogDebug("快取已淘汰", zap.String("鍵", key))
}

// Get 讀取快取值
func (m *Manager) Get(key string) (string, error) {
	if m == nil {
		return "", ErrMiss
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hashed := hashKey(key)
	entry, exists := m.store.Get(hashed)
	if !exists {
		m.stats.Misses++
		common.LogCacheMiss("catalog")
		return "", ErrMiss
	}

	if m.now().After(entry.expiresAt) {
		m.store.Remove(hashed)
		m.stats.Misses++
		common.LogDebug("快取已過期", zap.String("鍵", key))
		return "", ErrMiss
	}

	m.stats.Hits++
	common.LogCacheHit("catalog")
	return entry.value, nil
}

// Set 寫入快取值
func (m *Manager) Set(key, value string) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 已滿時 store 淘汰最久未使用的條目
	m.store.Add(hashKey(key), cacheEntry{
		value:     value,
		expiresAt: m.now().Add(m.ttl),
	})
	common.LogDebug("快取已儲存", zap.String("鍵", key))
}

// startCleanup 定期清理過期快取，直到 Close
func (m *Manager) startCleanup(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			count := m.cleanupLocked()
			size := m.store.Len()
			m.mu.Unlock()
			if count > 0 {
				common.LogInfo("已清理過期快取",
					zap.Int("count", count),
					zap.Int("remaining_size", size),
				)
			}
		case <-m.stop:
			return
		}
	}
}

// cleanupLocked 清理過期條目，呼叫端需持有鎖
func (m *Manager) cleanupLocked() int {
	now := m.now()
	count := 0
	for _, key := range m.store.Keys() {
		if entry, ok := m.store.Peek(key); ok && now.After(entry.expiresAt) {
			m.store.Remove(key)
			count++
		}
	}
	return count
}

// Stats 取得快取統計
func (m *Manager) Stats() Stats {
	if m == nil {
		return Stats{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Size = m.store.Len()
	s.MaxSize = m.maxSize
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Close 停止清理協程並清空快取，可重複呼叫
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	m.closeOnce.Do(func() {
		close(m.stop)
		if m.done != nil {
			<-m.done
		}

		m.mu.Lock()
		stats := m.stats
		m.store.Purge()
		m.mu.Unlock()

		common.LogInfo("快取管理員已關閉",
			zap.Int64("命中次數", stats.Hits),
			zap.Int64("未命中次數", stats.Misses),
			zap.Int64("淘汰次數", stats.Evictions),
		)
	})
	return nil
}

// hashKey 計算鍵的 SHA-256 哈希值
func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
