package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestReadOnlyOrStaff(t *testing.T) {
	anon := Identity{}
	user := Identity{UserID: 1, Role: RoleUser}
	staff := Identity{UserID: 2, Role: RoleStaff}

	cases := []struct {
		method string
		id     Identity
		want   bool
	}{
		{http.MethodGet, anon, true},
		{http.MethodHead, user, true},
		{http.MethodOptions, anon, true},
		{http.MethodPost, anon, false},
		{http.MethodPost, user, false},
		{http.MethodPut, user, false},
		{http.MethodDelete, user, false},
		{http.MethodPost, staff, true},
		{http.MethodPatch, staff, true},
		{http.MethodDelete, staff, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ReadOnlyOrStaff(tc.method, tc.id), "%s as %+v", tc.method, tc.id)
	}
}

func TestStaffRequiresAuthentication(t *testing.T) {
	// a staff role without a user id is not an identity
	assert.False(t, Identity{Role: RoleStaff}.IsStaff())
	assert.False(t, StaffOnly(http.MethodGet, Identity{UserID: 3, Role: RoleUser}))
	assert.True(t, StaffOnly(http.MethodGet, Identity{UserID: 3, Role: RoleStaff}))
	assert.False(t, Authenticated(http.MethodGet, Identity{}))
}

func TestContextRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, Identity{}, FromContext(c))

	Set(c, Identity{UserID: 9, Username: "zoe", Role: RoleStaff})
	assert.Equal(t, uint(9), FromContext(c).UserID)
	assert.True(t, FromContext(c).IsStaff())
}
