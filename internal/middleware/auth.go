package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "userID"
	ContextName   = "userName"
	ContextRole   = "role"
)

// AuthMiddleware validates JWT access token from Authorization header
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		claims, ok := parseBearer(authHeader)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth reads the token when one is sent and never rejects the
// request. Public views use it to personalise the response.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c.GetHeader("Authorization")); ok {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireRole checks the authenticated user has one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	denied := fmt.Sprintf("%s access required", strings.Join(roles, " or "))
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		utils.ErrorResponse(c, http.StatusForbidden, denied)
		c.Abort()
	}
}

// RequireStaff allows admins and teachers
func RequireStaff() gin.HandlerFunc {
	return RequireRole(utils.RoleAdmin, utils.RoleTeacher)
}

// RequireStudent allows students only
func RequireStudent() gin.HandlerFunc {
	return RequireRole(utils.RoleStudent)
}

func parseBearer(header string) (*utils.Claims, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}
	claims, err := utils.ValidateAccessToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextName, claims.Name)
	c.Set(ContextRole, claims.Role)
}
