// Package auth carries the caller identity through a request and holds the access
// policies applied to routes.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	RoleUser  = "user"
	RoleStaff = "staff"

	identityKey = "identity"
)

// Identity is the authenticated caller. The zero value is anonymous.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

func (i Identity) Authenticated() bool { return i.UserID != 0 }

func (i Identity) IsStaff() bool { return i.Authenticated() && i.Role == RoleStaff }

// Policy decides whether id may issue a request with the given method.
type Policy func(method string, id Identity) bool

// SafeMethod reports whether method never mutates state.
func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ReadOnlyOrStaff lets everyone read and only staff write.
func ReadOnlyOrStaff(method string, id Identity) bool {
	return SafeMethod(method) || id.IsStaff()
}

func Authenticated(_ string, id Identity) bool { return id.Authenticated() }

func StaffOnly(_ string, id Identity) bool { return id.IsStaff() }

func Set(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// FromContext returns the caller identity, anonymous when none was set.
func FromContext(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
