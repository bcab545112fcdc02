package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"profilehub/api/internal/apperr"
)

// Recovery converts a handler panic into the standard error envelope
// instead of tearing down the connection.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")
				abortWithKind(c, apperr.KindInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
