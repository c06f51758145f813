package telephony

import (
	"errors"
	"net/http"

	"voicemail-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireSignature gates provider webhooks behind signature validation.
// Failure is final for the request; the provider does not retry a 403.
func RequireSignature(authToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		if err := c.Request.ParseForm(); err != nil {
			log.Warn("webhook form parse failed", "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		err := ValidateSignature(
			authToken,
			RequestURL(c.Request),
			c.GetHeader(SignatureHeader),
			c.Request.PostForm,
		)
		switch {
		case errors.Is(err, ErrNoAuthToken):
			log.Error("webhook auth token not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook validation not configured"})
		case err != nil:
			log.Warn("webhook signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		default:
			c.Next()
		}
	}
}
