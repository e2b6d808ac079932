// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// bearerClaims extracts and validates the bearer token. Refresh tokens carry
// no user id and are refused.
func bearerClaims(c *gin.Context) (*utils.JWTClaims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, i18n.KeyAuthRequired
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, i18n.KeyAuthInvalidToken
	}

	claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
	if err != nil || claims.UserID == "" {
		return nil, i18n.KeyAuthInvalidToken
	}
	return claims, ""
}

func setUser(c *gin.Context, claims *utils.JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)
}

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, key := bearerClaims(c)
		if claims == nil {
			utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), key))
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		if role != string(models.UserRoleAdmin) {
			utils.ForbiddenResponse(c, "")
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and never rejects.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := bearerClaims(c); claims != nil {
			setUser(c, claims)
		}
		c.Next()
	}
}
