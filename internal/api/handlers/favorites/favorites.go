package favorites

import (
	"net/http"
	"strings"

	"recipe-box/internal/api/handlers"
	"recipe-box/internal/core/favorites"
	"recipe-box/internal/core/recipe"
	"recipe-box/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// ToggleResponse 切換收藏的結果
type ToggleResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Count    int    `json:"count"`
}

// Handler 收藏處理器
type Handler struct {
	store *favorites.Store
}

// NewHandler 創建收藏處理器
func NewHandler(store *favorites.Store) *Handler {
	return &Handler{store: store}
}

// Register 註冊路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/favorites", h.HandleList)
	rg.POST("/favorites/toggle", h.HandleToggle)
	rg.DELETE("/favorites", h.HandleClear)
	rg.GET("/favorites/:id", h.HandleStatus)
}

// HandleList 依加入順序列出收藏
func (h *Handler) HandleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"favorites": h.store.List()})
}

// HandleToggle 以整筆食譜切換收藏
func (h *Handler) HandleToggle(c *gin.Context) {
	var r recipe.Recipe
	if !handlers.BindJSON(c, &r) {
		return
	}
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		handlers.RespondError(c, common.NewValidationError("idMeal", "缺少食譜識別碼"))
		return
	}

	favorite := h.store.Toggle(r)
	c.JSON(http.StatusOK, ToggleResponse{
		ID:       r.ID,
		Favorite: favorite,
		Count:    h.store.Len(),
	})
}

// HandleClear 清空收藏
func (h *Handler) HandleClear(c *gin.Context) {
	h.store.Clear()
	c.Status(http.StatusNoContent)
}

// HandleStatus 查詢單一食譜是否已收藏
func (h *Handler) HandleStatus(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"id":       id,
		"favorite": h.store.IsFavorite(id),
	})
}
