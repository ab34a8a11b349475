package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 可用的儲存驅動
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Log         LogConfig       `mapstructure:"log"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// StorageConfig 本機鍵值儲存設定
type StorageConfig struct {
	Driver  string        `mapstructure:"driver"`
	Key     string        `mapstructure:"key"`
	Timeout time.Duration `mapstructure:"timeout"`
	File    FileConfig    `mapstructure:"file"`
	Redis   RedisConfig   `mapstructure:"redis"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
}

// FileConfig 檔案儲存設定
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig Redis 儲存設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SQLiteConfig SQLite 儲存設定
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// CatalogConfig 遠端食譜目錄設定
type CatalogConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	Timeout              time.Duration `mapstructure:"timeout"`
	CacheEnabled         bool          `mapstructure:"cache_enabled"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CacheMaxSize         int           `mapstructure:"cache_max_size"`
	CacheCleanupInterval time.Duration `mapstructure:"cache_cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig 日誌設定
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
	Mode  string `mapstructure:"mode"`
}

// LoadConfig 載入設定：.env（可選）→ 環境變數 → 預設值
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定不帶前綴的常用環境變量
	bindings := map[string]string{
		"server.port":            "PORT",
		"storage.driver":         "STORAGE_DRIVER",
		"storage.file.dir":       "STORAGE_DIR",
		"storage.redis.addr":     "REDIS_ADDR",
		"storage.redis.password": "REDIS_PASSWORD",
		"storage.sqlite.path":    "SQLITE_PATH",
		"catalog.base_url":       "CATALOG_BASE_URL",
		"rate_limit.enabled":     "RATE_LIMIT_ENABLED",
		"rate_limit.requests":    "RATE_LIMIT_REQUESTS",
		"rate_limit.window":      "RATE_LIMIT_WINDOW",
		"dedup_window":           "DEDUP_WINDOW",
		"log.level":              "LOG_LEVEL",
		"log.mode":               "LOG_MODE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Storage.Driver = strings.ToLower(strings.TrimSpace(config.Storage.Driver))

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-box")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 儲存設定
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.key", "@custom_recipes")
	v.SetDefault("storage.timeout", "5s")
	v.SetDefault("storage.file.dir", "data")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.sqlite.path", "data/recipe-box.db")

	// 食譜目錄設定
	v.SetDefault("catalog.base_url", "https://www.themealdb.com/api/json/v1/1")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.cache_enabled", true)
	v.SetDefault("catalog.cache_ttl", "1h")
	v.SetDefault("catalog.cache_max_size", 500)
	v.SetDefault("catalog.cache_cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 儲存請求去重
	v.SetDefault("dedup_window", "1s")

	// 日誌設定
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.mode", "")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server max body bytes")
	}

	switch config.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if config.Storage.File.Dir == "" {
			return fmt.Errorf("storage file dir is required")
		}
	case DriverRedis:
		if config.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage redis addr is required")
		}
	case DriverSQLite:
		if config.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
	if config.Storage.Key == "" {
		return fmt.Errorf("storage key is required")
	}
	if config.Storage.Timeout <= 0 {
		return fmt.Errorf("invalid storage timeout")
	}

	if config.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base url is required")
	}
	if config.Catalog.CacheEnabled {
		if config.Catalog.CacheMaxSize <= 0 {
			return fmt.Errorf("invalid catalog cache max size")
		}
		if config.Catalog.CacheTTL <= 0 {
			return fmt.Errorf("invalid catalog cache ttl")
		}
		if config.Catalog.CacheCleanupInterval <= 0 {
			return fmt.Errorf("invalid catalog cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	return nil
}
