// Package middleware holds the cross-cutting gin middleware: bearer auth,
// request IDs, CORS and request logging.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
)

// BearerAuth rejects any request whose Authorization header does not carry
// the configured token. The comparison is constant-time so the token cannot
// be probed byte by byte. Runs before any handler touches Odoo.
func BearerAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, got, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.UnauthorizedError())
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.UnauthorizedError())
			return
		}
		c.Next()
	}
}
