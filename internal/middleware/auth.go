package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/config"
	"profilehub/api/internal/models"
	"profilehub/api/internal/security"
	"profilehub/api/internal/service"
)

const (
	ContextAccount      = "current_account"
	ContextAccessClaims = "access_claims"
)

// abortWithKind stops the request with the taxonomy's status and code for
// the kind, matching the handlers' error envelope.
func abortWithKind(c *gin.Context, kind apperr.Kind, message string) {
	err := apperr.New(kind, message)
	c.AbortWithStatusJSON(err.Status, gin.H{
		"error": gin.H{"code": string(kind), "message": message},
	})
}

// Auth validates the bearer access token and loads the live account, so a
// suspension takes effect even while old access tokens are unexpired.
func Auth(cfg *config.AppConfig, auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithKind(c, apperr.KindTokenMissing, "missing bearer token")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
		if err != nil {
			abortWithKind(c, apperr.KindTokenInvalid, "invalid access token")
			return
		}

		account, err := auth.CurrentAccount(c.Request.Context(), claims.AccountID)
		if err != nil {
			abortWithKind(c, apperr.KindTokenInvalid, "account not found")
			return
		}

		if account.Status != models.AccountStatusActive {
			abortWithKind(c, apperr.KindInactiveAccount, "user account is not active")
			return
		}

		c.Set(ContextAccessClaims, *claims)
		c.Set(ContextAccount, account)

		c.Next()
	}
}
