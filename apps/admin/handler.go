package admin

import (
	"strconv"

	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Stats(ctx *gin.Context) {
	st, err := h.svc.Stats(ctx.Request.Context())
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, st)
}

func (h *Handler) ListUsers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	res, err := h.svc.ListUsers(ctx.Request.Context(), page, size)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, res)
}
