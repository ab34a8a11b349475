package storage

import (
	"context"
	"sync"
)

// Memory 記憶體鍵值儲存，程序結束即消失
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory 創建記憶體儲存
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get 讀取值
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set 寫入值
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Ping 記憶體儲存永遠可用
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close 清空內容
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string)
	return nil
}
