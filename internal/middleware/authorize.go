package middleware

import (
	"github.com/gin-gonic/gin"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/models"
)

func RequireRoles(roles ...models.AccountRole) gin.HandlerFunc {
	roleSet := make(map[models.AccountRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		accountVal, exists := c.Get(ContextAccount)
		if !exists {
			abortWithKind(c, apperr.KindTokenMissing, "unauthorized")
			return
		}
		account, ok := accountVal.(models.Account)
		if !ok {
			abortWithKind(c, apperr.KindTokenInvalid, "invalid account")
			return
		}

		if _, ok := roleSet[account.Role]; !ok {
			abortWithKind(c, apperr.KindForbidden, "insufficient role")
			return
		}

		c.Next()
	}
}
