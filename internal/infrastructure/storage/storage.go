// Package storage 提供本機鍵值儲存：整個值以字串讀寫，不支援部分鍵定址。
package storage

import (
	"context"
	"errors"
	"fmt"

	"recipe-box/internal/infrastructure/config"
	"recipe-box/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrKeyNotFound 表示鍵不存在
var ErrKeyNotFound = errors.New("storage: key not found")

// Storage 鍵值儲存介面
type Storage interface {
	// Get 讀取整個值，鍵不存在時返回 ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set 以單次寫入取代整個值
	Set(ctx context.Context, key, value string) error

	// Ping 檢查儲存是否可用
	Ping(ctx context.Context) error

	// Close 釋放連線或檔案資源
	Close() error
}

// New 依設定建立儲存驅動
func New(cfg *config.StorageConfig) (Storage, error) {
	var (
		s   Storage
		err error
	)

	switch cfg.Driver {
	case config.DriverMemory:
		s = NewMemory()
	case config.DriverFile:
		s, err = NewFile(cfg.File.Dir)
	case config.DriverRedis:
		s, err = NewRedis(cfg.Redis)
	case config.DriverSQLite:
		s, err = NewSQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Driver, err)
	}

	common.LogInfo("儲存已初始化",
		zap.String("driver", cfg.Driver),
		zap.String("key", cfg.Key),
		zap.Duration("timeout", cfg.Timeout),
	)
	return s, nil
}
