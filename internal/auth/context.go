package auth

import (
	"net/http"

	"autobid/utils"

	"github.com/gin-gonic/gin"
)

const principalKey = "auth.principal"

// SetPrincipal stores the authenticated caller on the request context
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the authenticated caller, if any
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// RequirePrincipal returns the caller or answers 401 and aborts
func RequirePrincipal(c *gin.Context) (Principal, bool) {
	p, ok := PrincipalFrom(c)
	if !ok {
		utils.AbortWithError(c, http.StatusUnauthorized, "not authorized to access this route")
	}
	return p, ok
}
