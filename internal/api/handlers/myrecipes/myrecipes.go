package myrecipes

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"recipe-box/internal/api/handlers"
	"recipe-box/internal/core/recipe"
	"recipe-box/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Repository 自訂食譜儲存庫
type Repository interface {
	List(ctx context.Context) ([]recipe.CustomRecipe, error)
	Get(ctx context.Context, id string) (recipe.CustomRecipe, error)
	Create(ctx context.Context, input recipe.Input) (recipe.CustomRecipe, error)
	Update(ctx context.Context, id string, input recipe.Input) (recipe.CustomRecipe, error)
	Delete(ctx context.Context, id string) error
}

// ListResponse 自訂食譜清單，資料損毀或讀取失敗時清單為空並附上 warning
type ListResponse struct {
	Recipes []recipe.CustomRecipe `json:"recipes"`
	Warning string                `json:"warning,omitempty"`
}

// DetailResponse 單筆食譜與切分後的食材、步驟
type DetailResponse struct {
	recipe.CustomRecipe
	IngredientLines  []string `json:"ingredient_lines"`
	InstructionSteps []string `json:"instruction_steps"`
}

// OptionsResponse 表單可選值與預設值
type OptionsResponse struct {
	Categories        []string `json:"categories"`
	Difficulties      []string `json:"difficulties"`
	DefaultCategory   string   `json:"default_category"`
	DefaultDifficulty string   `json:"default_difficulty"`
	PlaceholderImage  string   `json:"placeholder_image"`
}

// Handler 自訂食譜處理器
type Handler struct {
	repo Repository
}

// NewHandler 創建自訂食譜處理器
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Register 註冊路由，寫入路由額外套用 writeMiddleware（例如去重）
func (h *Handler) Register(rg *gin.RouterGroup, writeMiddleware ...gin.HandlerFunc) {
	g := rg.Group("/my-recipes")
	g.GET("", h.HandleList)
	g.GET("/options", h.HandleOptions)
	g.GET("/:id", h.HandleGet)

	writes := g.Group("", writeMiddleware...)
	writes.POST("", h.HandleCreate)
	writes.PUT("/:id", h.HandleUpdate)
	writes.DELETE("/:id", h.HandleDelete)
}

// HandleList 列出自訂食譜，可依分類篩選
func (h *Handler) HandleList(c *gin.Context) {
	recipes, err := h.repo.List(c.Request.Context())
	if err != nil {
		// 損毀或無法讀取時不阻擋畫面，回傳空清單並附上錯誤代碼
		if warning := degradedWarning(err); warning != "" {
			common.LogError("無法讀取自訂食譜，回傳空清單",
				zap.String("request_id", requestid.Get(c)),
				zap.String("code", warning),
				zap.Error(err),
			)
			c.JSON(http.StatusOK, ListResponse{
				Recipes: []recipe.CustomRecipe{},
				Warning: warning,
			})
			return
		}
		handlers.RespondError(c, err)
		return
	}

	if category := handlers.CategoryFilter(c); category != "" {
		filtered := make([]recipe.CustomRecipe, 0, len(recipes))
		for _, r := range recipes {
			if r.Category == category {
				filtered = append(filtered, r)
			}
		}
		recipes = filtered
	}

	c.JSON(http.StatusOK, ListResponse{Recipes: recipes})
}

// degradedWarning 回傳可降級為空清單的錯誤代碼，其他錯誤回傳空字串
func degradedWarning(err error) string {
	switch {
	case errors.Is(err, common.ErrCorruptData):
		return common.ErrCodeCorruptData
	case errors.Is(err, common.ErrStorageRead):
		return common.ErrCodeStorageRead
	}
	return ""
}

// HandleGet 取得單筆食譜
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DetailResponse{
		CustomRecipe:     r,
		IngredientLines:  r.IngredientLines(),
		InstructionSteps: r.InstructionSteps(),
	})
}

// HandleCreate 新增食譜
func (h *Handler) HandleCreate(c *gin.Context) {
	var input recipe.Input
	if !handlers.BindJSON(c, &input) {
		return
	}
	created, err := h.repo.Create(c.Request.Context(), input)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// HandleUpdate 整筆取代食譜
func (h *Handler) HandleUpdate(c *gin.Context) {
	var input recipe.Input
	if !handlers.BindJSON(c, &input) {
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Options 表單選項，回傳的切片為副本
func Options() OptionsResponse {
	return OptionsResponse{
		Categories:        slices.Clone(recipe.Categories),
		Difficulties:      slices.Clone(recipe.Difficulties),
		DefaultCategory:   recipe.DefaultCategory,
		DefaultDifficulty: recipe.DefaultDifficulty,
		PlaceholderImage:  recipe.PlaceholderImage,
	}
}

// HandleOptions 回傳表單選項
func (h *Handler) HandleOptions(c *gin.Context) {
	c.JSON(http.StatusOK, Options())
}
