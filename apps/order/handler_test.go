package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-storefront/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(h *Handler, id auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { auth.Set(c, id) })
	r.GET("/orders", h.List)
	r.POST("/orders", h.Create)
	r.GET("/orders/:id", h.Get)
	r.POST("/orders/:id/confirm_payment", h.ConfirmPayment)
	r.POST("/orders/:id/update_status", h.UpdateStatus)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrderEndpoints(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(e.svc)
	alice, bob, staff := router(h, e.alice), router(h, e.bob), router(h, e.staff)

	body := fmt.Sprintf(`{
		"items": [{"product_id": %d, "quantity": 2}, {"product_id": %d, "quantity": 1}],
		"shipping_name": "Alice", "shipping_email": "alice@example.com",
		"shipping_address": "1 Main St", "shipping_city": "Austin", "shipping_state": "TX",
		"shipping_zip": "73301", "shipping_country": "US"
	}`, e.ring.ID, e.collar.ID)
	w := send(alice, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID          uint   `json:"id"`
			User        uint   `json:"user"`
			UserEmail   string `json:"user_email"`
			Status      string `json:"status"`
			TotalAmount string `json:"total_amount"`
			Paid        bool   `json:"paid"`
			Items       []struct {
				Product       uint   `json:"product"`
				Price         string `json:"price"`
				Subtotal      string `json:"subtotal"`
				Quantity      int    `json:"quantity"`
				ProductDetail struct {
					Slug  string `json:"slug"`
					Price string `json:"price"`
				} `json:"product_detail"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	o := created.Data
	assert.Equal(t, "45.23", o.TotalAmount)
	assert.Equal(t, "alice@example.com", o.UserEmail)
	assert.Equal(t, e.alice.UserID, o.User)
	assert.Equal(t, "pending", o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "39.98", o.Items[0].Subtotal)
	assert.Equal(t, "19.99", o.Items[0].Price)
	assert.Equal(t, "paw-ring", o.Items[0].ProductDetail.Slug)

	path := fmt.Sprintf("/orders/%d", o.ID)
	assert.Equal(t, http.StatusOK, send(alice, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusForbidden, send(bob, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, send(alice, http.MethodGet, "/orders/x", "").Code)

	// confirm without a reference
	w = send(alice, http.MethodPost, path+"/confirm_payment", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "payment reference required")

	w = send(alice, http.MethodPost, path+"/confirm_payment", `{"paypal_order_id":"PAY-9"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)
	assert.Contains(t, w.Body.String(), `"paid":true`)

	// non-staff is refused before the payload is looked at
	assert.Equal(t, http.StatusForbidden, send(alice, http.MethodPost, path+"/update_status", `{"status":"bogus"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(staff, http.MethodPost, path+"/update_status", `{"status":"bogus"}`).Code)
	w = send(staff, http.MethodPost, path+"/update_status", `{"status":"shipped"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"shipped"`)

	w = send(bob, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestCreateOrderBadPayload(t *testing.T) {
	e := newEnv(t)
	r := router(NewHandler(e.svc), e.alice)

	w := send(r, http.MethodPost, "/orders", `{"items": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/orders", fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":1}]}`, e.ring.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shipping_email")
}
