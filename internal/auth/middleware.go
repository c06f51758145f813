package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voicemail-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireStaffToken verifies the staff shared secret and enforces the per-IP
// lockout. It does not inject any identity; the dashboard has a single role.
func RequireStaffToken(g *Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		token := ""
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if strings.HasPrefix(raw, bearerPrefix) {
			token = strings.TrimPrefix(raw, bearerPrefix)
		}
		if token == "" {
			// The dashboard also passes the secret as a query parameter for
			// direct-link access.
			token = c.Query("token")
		}

		err := g.Check(c.Request.Context(), token, c.ClientIP())
		var rl *RateLimitedError
		switch {
		case errors.Is(err, ErrNoSecret):
			log.Error("dashboard secret not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dashboard auth not configured"})
		case errors.As(err, &rl):
			if !rl.RetryAfter.IsZero() {
				secs := int(time.Until(rl.RetryAfter).Seconds())
				if secs < 1 {
					secs = 1
				}
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			log.Warn("staff auth rate limited", "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many failed attempts",
				"retry_after": rl.RetryAfter.UTC().Format(time.RFC3339),
			})
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		default:
			c.Next()
		}
	}
}
