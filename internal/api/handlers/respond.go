// Package handlers HTTP 處理器共用的回應工具
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"recipe-box/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AllCategories 不篩選分類時使用的值
const AllCategories = "All"

// RespondError 記錄錯誤並以統一格式回應，debug 模式附上詳細信息
func RespondError(c *gin.Context, err error) {
	status, resp := common.ToErrorResponse(err, gin.IsDebugging())

	fields := []zap.Field{
		zap.String("request_id", requestid.Get(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("code", resp.Code),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求被拒絕", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// BindJSON 解析請求體，失敗時回應 400 或 413 並回傳 false
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(c, common.ErrBodyTooLarge.Wrap(err))
		} else {
			RespondError(c, common.ErrInvalidRequest.Wrap(err))
		}
		return false
	}
	return true
}

// CategoryFilter 取得分類查詢參數，All 或空白表示不篩選
func CategoryFilter(c *gin.Context) string {
	category := strings.TrimSpace(c.Query("category"))
	if strings.EqualFold(category, AllCategories) {
		return ""
	}
	return category
}
