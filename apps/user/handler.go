package user

import (
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

func (h *Handler) Register(ctx *gin.Context) {
	var in RegisterInput
	if !validate.BindJSON(ctx, &in) {
		return
	}
	u, err := h.svc.Register(ctx.Request.Context(), in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Created(ctx, gin.H{"id": u.ID, "username": u.Username, "email": u.Email})
}

func (h *Handler) Me(ctx *gin.Context) {
	u, err := h.svc.Me(ctx.Request.Context(), auth.FromContext(ctx).UserID)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, u)
}

func (h *Handler) GetProfile(ctx *gin.Context) {
	p, err := h.svc.GetProfile(ctx.Request.Context(), auth.FromContext(ctx).UserID)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, p)
}

// UpdateProfile serves PUT and PATCH; both only touch the submitted fields.
func (h *Handler) UpdateProfile(ctx *gin.Context) {
	var patch ProfilePatch
	if !validate.DecodeJSON(ctx, &patch) {
		return
	}
	p, err := h.svc.UpdateProfile(ctx.Request.Context(), auth.FromContext(ctx).UserID, patch)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, p)
}
