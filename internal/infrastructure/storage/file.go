package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

// File 目錄式鍵值儲存，每個鍵一個檔案
type File struct {
	dir string
	mu  sync.RWMutex
}

// NewFile 創建檔案儲存，目錄不存在時自動建立
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("storage dir is empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// path 將鍵轉為檔名，鍵中的路徑分隔符會被轉義
func (f *File) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, url.PathEscape(key)+".json"), nil
}

// Get 讀取值
func (f *File) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := f.path(key)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrKeyNotFound
		}
		return "", err
	}
	return string(data), nil
}

// Set 以暫存檔加 rename 原子取代，讀者不會看到寫到一半的內容
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := renameio.WriteFile(p, []byte(value), 0600, renameio.WithTempDir(f.dir)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(p), err)
	}
	return nil
}

// Ping 檢查目錄仍然存在
func (f *File) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(f.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.dir)
	}
	return nil
}

// Close 檔案儲存沒有需要釋放的資源
func (f *File) Close() error {
	return nil
}
