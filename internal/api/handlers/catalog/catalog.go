package catalog

import (
	"context"
	"net/http"
	"strings"

	"recipe-box/internal/api/handlers"
	"recipe-box/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// Catalog 遠端食譜目錄
type Catalog interface {
	Categories(ctx context.Context) ([]recipe.Category, error)
	ByCategory(ctx context.Context, category string) ([]recipe.Recipe, error)
	Search(ctx context.Context, term string) ([]recipe.Recipe, error)
	Lookup(ctx context.Context, id string) (recipe.Recipe, error)
}

// Handler 目錄瀏覽處理器
type Handler struct {
	catalog Catalog
}

// NewHandler 創建目錄瀏覽處理器
func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// Register 註冊路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/categories", h.HandleCategories)
	rg.GET("/recipes", h.HandleRecipes)
	rg.GET("/recipes/:id", h.HandleRecipe)
}

// HandleCategories 列出分類
func (h *Handler) HandleCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// HandleRecipes 依分類或名稱列出食譜
//
// 指定分類時以分類查詢，再以 q 篩選名稱；未指定時以 q 搜尋。
func (h *Handler) HandleRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	category := handlers.CategoryFilter(c)
	term := strings.TrimSpace(c.Query("q"))

	var (
		meals []recipe.Recipe
		err   error
	)
	if category != "" {
		meals, err = h.catalog.ByCategory(ctx, category)
		if err == nil && term != "" {
			meals = filterByName(meals, term)
		}
	} else {
		meals, err = h.catalog.Search(ctx, term)
	}
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// HandleRecipe 取得單一食譜
func (h *Handler) HandleRecipe(c *gin.Context) {
	meal, err := h.catalog.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func filterByName(meals []recipe.Recipe, term string) []recipe.Recipe {
	term = strings.ToLower(term)
	out := make([]recipe.Recipe, 0, len(meals))
	for _, m := range meals {
		if strings.Contains(strings.ToLower(m.Name), term) {
			out = append(out, m)
		}
	}
	return out
}
