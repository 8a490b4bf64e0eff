package response

import (
	"errors"
	"log"
	"net/http"

	"go-storefront/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构体
type Response struct {
	Code int         `json:"code"`           // 业务码
	Msg  string      `json:"msg"`            // 提示信息
	Data interface{} `json:"data,omitempty"` // 数据
}

// Success 成功响应 (Code=200)
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: http.StatusOK,
		Msg:  "success",
		Data: data,
	})
}

// Created is Success with 201.
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		Code: http.StatusCreated,
		Msg:  "created",
		Data: data,
	})
}

func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error 失败响应
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		Code: httpStatus,
		Msg:  msg,
		Data: nil,
	})
}

// Abort writes an error response and stops the handler chain.
func Abort(ctx *gin.Context, httpStatus int, msg string) {
	Error(ctx, httpStatus, msg)
	ctx.Abort()
}

// Status maps an error kind to its HTTP status.
func Status(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err using the status of its apperr kind. Internal errors are logged and
// reported with a generic message.
func Fail(ctx *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.Internal {
		log.Printf("[HTTP] %s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
		Error(ctx, http.StatusInternalServerError, "internal server error")
		return
	}

	status := Status(e.Kind)
	resp := Response{Code: status, Msg: e.Msg}
	if len(e.Fields) > 0 {
		resp.Data = e.Fields
	}
	ctx.JSON(status, resp)
}
