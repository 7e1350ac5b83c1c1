package middleware

import (
	"net/http"
	"strings"

	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// StationKeyAuth validates the shared kiosk key sent in X-Station-Key
// against its bcrypt hash. An empty hash disables kiosk swipes.
func StationKeyAuth(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			utils.ErrorResponse(c, http.StatusForbidden, "Station kiosks are not enabled")
			c.Abort()
			return
		}

		key := strings.TrimSpace(c.GetHeader("X-Station-Key"))
		if key == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Station key is required in X-Station-Key header")
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid station key")
			c.Abort()
			return
		}

		c.Set(ContextRole, "kiosk")
		c.Next()
	}
}
