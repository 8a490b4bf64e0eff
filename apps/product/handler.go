package product

import (
	"net/http"
	"net/url"
	"strconv"

	"go-storefront/pkg/apperr"
	"go-storefront/pkg/auth"
	"go-storefront/pkg/response"
	"go-storefront/pkg/validate"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListCategories(ctx *gin.Context) {
	categories, err := h.svc.ListCategories(ctx.Request.Context())
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, categories)
}

func (h *Handler) GetCategory(ctx *gin.Context) {
	c, err := h.svc.GetCategory(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, c)
}

func (h *Handler) CreateCategory(ctx *gin.Context) {
	var in CategoryInput
	if !validate.BindJSON(ctx, &in) {
		return
	}
	c, err := h.svc.CreateCategory(ctx.Request.Context(), in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Created(ctx, c)
}

// UpdateCategory serves PUT (full) and PATCH (partial).
func (h *Handler) UpdateCategory(ctx *gin.Context) {
	var patch CategoryPatch
	if ctx.Request.Method == http.MethodPatch {
		if !validate.DecodeJSON(ctx, &patch) {
			return
		}
	} else {
		var in CategoryInput
		if !validate.BindJSON(ctx, &in) {
			return
		}
		patch = in.Patch()
	}

	c, err := h.svc.UpdateCategory(ctx.Request.Context(), ctx.Param("slug"), patch)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, c)
}

func (h *Handler) DeleteCategory(ctx *gin.Context) {
	if err := h.svc.DeleteCategory(ctx.Request.Context(), ctx.Param("slug")); err != nil {
		response.Fail(ctx, err)
		return
	}
	response.NoContent(ctx)
}

func (h *Handler) ListProducts(ctx *gin.Context) {
	f, err := ParseProductFilter(ctx.Request.URL.Query())
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	products, err := h.svc.ListProducts(ctx.Request.Context(), f, auth.FromContext(ctx).IsStaff())
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, products)
}

func (h *Handler) GetProduct(ctx *gin.Context) {
	p, err := h.svc.GetProduct(ctx.Request.Context(), ctx.Param("slug"), auth.FromContext(ctx).IsStaff())
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, p)
}

func (h *Handler) CreateProduct(ctx *gin.Context) {
	var in ProductInput
	if !validate.BindJSON(ctx, &in) {
		return
	}
	p, err := h.svc.CreateProduct(ctx.Request.Context(), in)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Created(ctx, p)
}

// UpdateProduct serves PUT (full) and PATCH (partial).
func (h *Handler) UpdateProduct(ctx *gin.Context) {
	var patch ProductPatch
	if ctx.Request.Method == http.MethodPatch {
		if !validate.DecodeJSON(ctx, &patch) {
			return
		}
	} else {
		var in ProductInput
		if !validate.BindJSON(ctx, &in) {
			return
		}
		patch = in.Patch()
	}

	p, err := h.svc.UpdateProduct(ctx.Request.Context(), ctx.Param("slug"), patch)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, p)
}

func (h *Handler) DeleteProduct(ctx *gin.Context) {
	if err := h.svc.DeleteProduct(ctx.Request.Context(), ctx.Param("slug")); err != nil {
		response.Fail(ctx, err)
		return
	}
	response.NoContent(ctx)
}

// UploadImage accepts multipart form fields "image" (file) and "alt_text".
func (h *Handler) UploadImage(ctx *gin.Context) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		response.Fail(ctx, apperr.Invalid("No image provided"))
		return
	}
	img, err := h.svc.AddImage(ctx.Request.Context(), ctx.Param("slug"), fh, ctx.PostForm("alt_text"))
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Success(ctx, img)
}

// ParseProductFilter reads the list query string. Malformed values are validation errors.
func ParseProductFilter(q url.Values) (ProductFilter, error) {
	f := ProductFilter{
		CategorySlug: q.Get("category_slug"),
		Search:       q.Get("search"),
		Ordering:     q.Get("ordering"),
	}

	if v := q.Get("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, apperr.InvalidField("category", "select a valid choice")
		}
		cid := uint(id)
		f.CategoryID = &cid
	}
	if v := q.Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.InvalidField("is_active", "must be true or false")
		}
		f.IsActive = &b
	}
	for _, bound := range []struct {
		key string
		dst **decimal.Decimal
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}} {
		v := q.Get(bound.key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, apperr.InvalidField(bound.key, "enter a number")
		}
		*bound.dst = &d
	}
	return f, nil
}
