package order

import (
	"go-storefront/pkg/apperr"
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
	orders, err := h.svc.ListOrders(ctx.Request.Context(), auth.FromContext(ctx))
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, orders)
}

func (h *Handler) Create(ctx *gin.Context) {
	var in CreateInput
	if !validate.DecodeJSON(ctx, &in) {
		return
	}
	o, err := h.svc.CreateOrder(ctx.Request.Context(), auth.FromContext(ctx), in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Created(ctx, o)
}

func (h *Handler) Get(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(ctx.Request.Context(), auth.FromContext(ctx), id)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, o)
}

func (h *Handler) ConfirmPayment(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}
	var ref PaymentRef
	if !decodeOptional(ctx, &ref) {
		return
	}
	o, err := h.svc.ConfirmPayment(ctx.Request.Context(), auth.FromContext(ctx), id, ref.Value())
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, o)
}

func (h *Handler) UpdateStatus(ctx *gin.Context) {
	id, ok := validate.PathID(ctx, "id")
	if !ok {
		return
	}
	actor := auth.FromContext(ctx)
	if !actor.IsStaff() {
		response.Fail(ctx, apperr.Forbiddenf("you do not have permission to perform this action"))
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeOptional(ctx, &body) {
		return
	}
	o, err := h.svc.UpdateStatus(ctx.Request.Context(), actor, id, body.Status)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, o)
}

// decodeOptional decodes a JSON body when there is one; an empty body leaves dst zero.
func decodeOptional(ctx *gin.Context, dst any) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	return validate.DecodeJSON(ctx, dst)
}
