package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fyp-portal/fyp-admin-api/internal/middleware"
	"github.com/fyp-portal/fyp-admin-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) models.ActorInfo {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.ActorInfo{}
	}
	return models.ActorInfo{ID: claims.ActorID, Email: claims.Email, Role: claims.Role}
}
