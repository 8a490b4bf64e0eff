package address

import (
	"net/http"

	"go-storefront/pkg/auth"
	"go-storefront/pkg/response"
	"go-storefront/pkg/validate"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(ctx *gin.Context) {
	addrs, err := h.svc.List(ctx.Request.Context(), auth.FromContext(ctx).UserID)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, addrs)
}

func (h *Handler) Get(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(ctx.Request.Context(), auth.FromContext(ctx).UserID, id)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, a)
}

func (h *Handler) Create(ctx *gin.Context) {
	var in Input
	if !validate.BindJSON(ctx, &in) {
		return
	}
	a, err := h.svc.Create(ctx.Request.Context(), auth.FromContext(ctx).UserID, in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Created(ctx, a)
}

// Update serves PUT (full) and PATCH (partial).
func (h *Handler) Update(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}

	var p Patch
	if ctx.Request.Method == http.MethodPatch {
		if !validate.DecodeJSON(ctx, &p) {
			return
		}
	} else {
		var in Input
		if !validate.BindJSON(ctx, &in) {
			return
		}
		p = in.Patch()
	}

	a, err := h.svc.Update(ctx.Request.Context(), auth.FromContext(ctx).UserID, id, p)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, a)
}

func (h *Handler) Delete(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx.Request.Context(), auth.FromContext(ctx).UserID, id); err != nil {
		response.Fail(ctx, err)
		return
	}
	response.NoContent(ctx)
}

func (h *Handler) SetDefault(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}
	a, err := h.svc.SetDefault(ctx.Request.Context(), auth.FromContext(ctx).UserID, id)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, a)
}
