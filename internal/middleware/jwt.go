package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
	"github.com/fyp-portal/fyp-admin-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies access tokens and returns their claims.
type TokenValidator interface {
	Validate(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Actor extracts the authenticated actor from the gin context. The second
// return is false on unauthenticated requests.
func Actor(c *gin.Context) (models.ActorInfo, bool) {
	claimsValue, exists := c.Get(ContextUserKey)
	if !exists {
		return models.ActorInfo{}, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	if !ok {
		return models.ActorInfo{}, false
	}
	return models.ActorInfo{ID: claims.ActorID, Email: claims.Email, Role: claims.Role}, true
}
