package middleware

import (
	"net/http"

	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
)

const identityContextKey = "identity"

// Identity is the authenticated user of a request.
type Identity struct {
	Username string
}

// RequireLogin lets authenticated requests through and exposes their Identity
// via GetIdentity. Others are redirected to /login with a warning flash.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentUser(c)
		if !ok {
			util.LogUnauthorizedAccess(c.ClientIP(), c.Request.URL.Path, "no authenticated session")
			AddFlash(c, FlashWarning, "Please log in to access the prediction form.")
			if err := SaveSession(c); err != nil {
				util.AbortWithServerError(c, "failed to save session", err)
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// GetIdentity returns the Identity set by RequireLogin.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}
