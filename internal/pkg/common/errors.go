package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Field   string `json:"field,omitempty"`   // 驗證失敗的欄位
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is 可以對包裝後的錯誤生效
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap 複製錯誤並附上原始錯誤，預定義錯誤本身不會被修改
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	Field   string
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// Is 讓 errors.Is(err, ErrValidation) 對所有驗證錯誤成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeValidation      = "VALIDATION_ERROR"  // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeBodyTooLarge    = "BODY_TOO_LARGE"    // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeCorruptData        = "CORRUPT_DATA"        // 500
	ErrCodeCatalog            = "CATALOG_ERROR"       // 502
	ErrCodeStorageRead        = "STORAGE_READ_ERROR"  // 503
	ErrCodeStorageWrite       = "STORAGE_WRITE_ERROR" // 503
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrValidation      = NewError(ErrCodeValidation, "輸入資料驗證失敗", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrBodyTooLarge    = NewError(ErrCodeBodyTooLarge, "請求內容過大", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrStorageRead  = NewError(ErrCodeStorageRead, "讀取本機資料失敗", http.StatusServiceUnavailable, nil)
	ErrStorageWrite = NewError(ErrCodeStorageWrite, "儲存失敗，請稍後再試", http.StatusServiceUnavailable, nil)
	ErrCorruptData  = NewError(ErrCodeCorruptData, "本機資料已損毀", http.StatusInternalServerError, nil)
	ErrCatalog      = NewError(ErrCodeCatalog, "食譜目錄服務錯誤", http.StatusBadGateway, nil)
)

// ToErrorResponse 將任意錯誤轉換為 HTTP 狀態碼與響應，withDetails 時附上原始錯誤
func ToErrorResponse(err error, withDetails bool) (int, ErrorResponse) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrValidation.Status, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: ve.Error(),
			Field:   ve.Field,
		}
	}

	ce := ErrInternalError
	var target *CustomError
	if errors.As(err, &target) {
		ce = target
	}

	resp := ErrorResponse{
		Code:    ce.Code,
		Message: ce.Message,
	}
	if withDetails && err != nil {
		resp.Details = err.Error()
	}
	return ce.Status, resp
}
