package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const sweepSecretHeader = "X-Sweep-Secret"

// SweepAuth guards the maintenance endpoints with a shared secret.
// devBypass disables the check for local development only.
func SweepAuth(secret string, devBypass bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if devBypass {
			c.Next()
			return
		}

		provided := c.GetHeader(sweepSecretHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid sweep secret",
			})
			return
		}
		c.Next()
	}
}
