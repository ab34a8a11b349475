// Package catalog 遠端食譜目錄客戶端（TheMealDB 相容 API）
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipe-box/internal/core/catalog/cache"
	"recipe-box/internal/core/recipe"
	"recipe-box/internal/infrastructure/config"
	"recipe-box/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client 遠端食譜目錄客戶端
type Client struct {
	http  *resty.Client
	cache *cache.Manager
}

// categoriesResponse categories.php 的回應
type categoriesResponse struct {
	Categories []recipe.Category `json:"categories"`
}

// mealsResponse filter/search/lookup 的回應，查無資料時 meals 為 null
type mealsResponse struct {
	Meals []recipe.Recipe `json:"meals"`
}

// NewClient 創建目錄客戶端，cacheManager 可為 nil
func NewClient(cfg *config.CatalogConfig, cacheManager *cache.Manager) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:  client,
		cache: cacheManager,
	}
}

// Categories 列出所有分類
func (c *Client) Categories(ctx context.Context) ([]recipe.Category, error) {
	var result categoriesResponse
	if err := c.fetch(ctx, "/categories.php", nil, &result); err != nil {
		return nil, err
	}
	if result.Categories == nil {
		return []recipe.Category{}, nil
	}
	return result.Categories, nil
}

// ByCategory 列出分類下的食譜摘要
func (c *Client) ByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, common.NewValidationError("category", "請指定分類")
	}
	return c.meals(ctx, "/filter.php", url.Values{"c": {category}})
}

// Search 依名稱搜尋食譜
func (c *Client) Search(ctx context.Context, term string) ([]recipe.Recipe, error) {
	return c.meals(ctx, "/search.php", url.Values{"s": {strings.TrimSpace(term)}})
}

// Lookup 依識別碼取得完整食譜
func (c *Client) Lookup(ctx context.Context, id string) (recipe.Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return recipe.Recipe{}, common.NewValidationError("id", "請指定食譜")
	}
	meals, err := c.meals(ctx, "/lookup.php", url.Values{"i": {id}})
	if err != nil {
		return recipe.Recipe{}, err
	}
	if len(meals) == 0 {
		return recipe.Recipe{}, common.ErrNotFound.Wrap(fmt.Errorf("catalog recipe %s", id))
	}
	return meals[0], nil
}

// CacheStats 目錄快取統計
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

func (c *Client) meals(ctx context.Context, path string, params url.Values) ([]recipe.Recipe, error) {
	var result mealsResponse
	if err := c.fetch(ctx, path, params, &result); err != nil {
		return nil, err
	}
	if result.Meals == nil {
		return []recipe.Recipe{}, nil
	}
	return result.Meals, nil
}

// fetch 先查快取，未命中時呼叫遠端並快取成功的原始回應
func (c *Client) fetch(ctx context.Context, path string, params url.Values, v interface{}) error {
	key := path
	if len(params) > 0 {
		key += "?" + params.Encode()
	}

	if body, err := c.cache.Get(key); err == nil {
		if err := json.Unmarshal([]byte(body), v); err == nil {
			return nil
		}
		common.LogWarn("目錄快取內容無法解析，改為重新請求", zap.String("key", key))
	}

	start := time.Now()
	req := c.http.R().SetContext(ctx)
	for name, values := range params {
		if len(values) > 0 {
			req.SetQueryParam(name, values[0])
		}
	}
	resp, err := req.Get(path)
	if err != nil {
		common.LogError("目錄請求失敗",
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, context.Canceled):
			return common.ErrRequestTimeout.Wrap(err)
		case errors.Is(err, context.DeadlineExceeded):
			return common.ErrGatewayTimeout.Wrap(err)
		}
		return common.ErrCatalog.Wrap(err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("目錄回應錯誤",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
		)
		return common.ErrCatalog.Wrap(fmt.Errorf("catalog returned status %d", resp.StatusCode()))
	}

	body := resp.Body()
	if err := json.Unmarshal(body, v); err != nil {
		common.LogError("目錄回應無法解析",
			zap.String("path", path),
			zap.Int("length", len(body)),
			zap.Error(err),
		)
		return common.ErrCatalog.Wrap(fmt.Errorf("decode catalog response: %w", err))
	}

	common.LogDebug("目錄請求完成",
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)
	c.cache.Set(key, string(body))
	return nil
}
