package cart

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

func (h *Handler) Get(ctx *gin.Context) {
	v, err := h.svc.View(ctx.Request.Context(), auth.FromContext(ctx).UserID)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, v)
}

func (h *Handler) AddItem(ctx *gin.Context) {
	var in Item
	if !validate.DecodeJSON(ctx, &in) {
		return
	}
	v, err := h.svc.AddItem(ctx.Request.Context(), auth.FromContext(ctx).UserID, in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, v)
}

func (h *Handler) SetItem(ctx *gin.Context) {
	productID, ok := validate.PathID(ctx, "product_id")
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if !validate.DecodeJSON(ctx, &body) {
		return
	}
	v, err := h.svc.SetItem(ctx.Request.Context(), auth.FromContext(ctx).UserID, Item{ProductID: productID, Quantity: body.Quantity})
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, v)
}

func (h *Handler) RemoveItem(ctx *gin.Context) {
	productID, ok := validate.PathID(ctx, "product_id")
	if !ok {
		return
	}
	v, err := h.svc.RemoveItem(ctx.Request.Context(), auth.FromContext(ctx).UserID, productID)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, v)
}

func (h *Handler) Clear(ctx *gin.Context) {
	if err := h.svc.Clear(ctx.Request.Context(), auth.FromContext(ctx).UserID); err != nil {
		response.Fail(ctx, err)
		return
	}
	response.NoContent(ctx)
}

func (h *Handler) Checkout(ctx *gin.Context) {
	var in CheckoutInput
	if !validate.DecodeJSON(ctx, &in) {
		return
	}
	o, err := h.svc.Checkout(ctx.Request.Context(), auth.FromContext(ctx), in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Created(ctx, o)
}
