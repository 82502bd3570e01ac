package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUID   = "auth_uid"
	CtxEmail = "auth_email"
	CtxName  = "auth_name"
)

var ErrIdentityMismatch = errors.New("requested user does not match the authenticated user")

// UserEmail returns the email set by the identity middleware, or "".
func UserEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEmail))
}

// SetIdentity stores a verified identity on the request.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(CtxUID, id.UID)
	c.Set(CtxEmail, id.Email)
	c.Set(CtxName, id.Name)
}

// ResolveEmail picks the identity a request acts on. Anonymous requests use
// the requested email as is. Authenticated requests may omit it but cannot
// name another user.
func ResolveEmail(c *gin.Context, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	authed := UserEmail(c)
	if authed == "" {
		return requested, nil
	}
	if requested != "" && !strings.EqualFold(requested, authed) {
		return "", ErrIdentityMismatch
	}
	return authed, nil
}
