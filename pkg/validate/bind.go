package validate

import (
	"strconv"

	"go-storefront/pkg/apperr"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into dst and validates it. On failure the error
// response has been written and false is returned.
func BindJSON(ctx *gin.Context, dst any) bool {
	if !DecodeJSON(ctx, dst) {
		return false
	}
	if err := Struct(dst); err != nil {
		response.Fail(ctx, err)
		return false
	}
	return true
}

// DecodeJSON only decodes; used for partial updates where every field is optional.
func DecodeJSON(ctx *gin.Context, dst any) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		response.Fail(ctx, apperr.Invalid("invalid request body: %v", err))
		return false
	}
	return true
}

// PathID parses the numeric path parameter name. A malformed id answers 404, the same as
// an id that does not exist.
func PathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Fail(ctx, apperr.NotFoundf("not found"))
		return 0, false
	}
	return uint(id), true
}
