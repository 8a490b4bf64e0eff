package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-storefront/pkg/apperr"
	"go-storefront/pkg/auth"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type users map[uint]auth.Identity

func (u users) Identity(_ context.Context, id uint) (auth.Identity, error) {
	if v, ok := u[id]; ok {
		return v, nil
	}
	return auth.Identity{}, apperr.NotFoundf("user not found")
}

func newEngine(tokens *jwt.Manager, known users) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identify(tokens, known))
	whoami := func(c *gin.Context) {
		id := auth.FromContext(c)
		c.String(http.StatusOK, "%d:%s", id.UserID, id.Role)
	}
	r.GET("/open", whoami)
	r.GET("/items", Require(auth.ReadOnlyOrStaff), whoami)
	r.POST("/items", Require(auth.ReadOnlyOrStaff), whoami)
	r.GET("/mine", Require(auth.Authenticated), whoami)
	r.GET("/admin", Require(auth.StaffOnly), whoami)
	return r
}

func get(r http.Handler, method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentifyAndRequire(t *testing.T) {
	tokens := jwt.NewManager("test-secret", time.Hour)
	known := users{
		1: {UserID: 1, Username: "ann", Role: auth.RoleUser},
		// promoted after the token was issued
		2: {UserID: 2, Username: "sam", Role: auth.RoleStaff},
	}
	r := newEngine(tokens, known)

	ann, err := tokens.GenerateToken(1, "ann", auth.RoleUser)
	require.NoError(t, err)
	sam, err := tokens.GenerateToken(2, "sam", auth.RoleUser)
	require.NoError(t, err)
	ghost, err := tokens.GenerateToken(9, "ghost", auth.RoleStaff)
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		header string
		code   int
	}{
		{"anonymous read", http.MethodGet, "/items", "", http.StatusOK},
		{"anonymous write", http.MethodPost, "/items", "", http.StatusUnauthorized},
		{"user write", http.MethodPost, "/items", "Bearer " + ann, http.StatusForbidden},
		{"staff write", http.MethodPost, "/items", "Bearer " + sam, http.StatusOK},
		{"anonymous own", http.MethodGet, "/mine", "", http.StatusUnauthorized},
		{"user own", http.MethodGet, "/mine", "Bearer " + ann, http.StatusOK},
		{"user admin", http.MethodGet, "/admin", "Bearer " + ann, http.StatusForbidden},
		{"staff admin", http.MethodGet, "/admin", "Bearer " + sam, http.StatusOK},
		{"bad scheme", http.MethodGet, "/open", "Token " + ann, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/open", "Bearer nope", http.StatusUnauthorized},
		{"deleted user", http.MethodGet, "/open", "Bearer " + ghost, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, tc.method, tc.path, tc.header)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}

	w := get(r, http.MethodGet, "/open", "Bearer "+sam)
	assert.Equal(t, "2:staff", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	require.NoError(t, ratelimit.Init(ratelimit.Rule{Resource: "test_guard", QPS: 1}))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/burst", RateLimit("test_guard"), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		codes[get(r, http.MethodPost, "/burst", "").Code]++
	}
	assert.GreaterOrEqual(t, codes[http.StatusOK], 1)
	assert.GreaterOrEqual(t, codes[http.StatusTooManyRequests], 1)
}
