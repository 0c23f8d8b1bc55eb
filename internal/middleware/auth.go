package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/models"
)

// ProfileChecker looks up the access record for an authenticated identity.
type ProfileChecker interface {
	GetProfileByEmail(email string) (*models.Profile, error)
}

// RequireAdmin gates the admin API. Identity is established upstream by
// the auth proxy, which forwards the verified principal in X-User-Email.
// Requests without a principal, with an unapproved profile, or past
// their access expiry are rejected.
func RequireAdmin(profiles ProfileChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader("X-User-Email"))
		if email == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "Authentication required")
			return
		}

		profile, err := profiles.GetProfileByEmail(email)
		if err != nil {
			abortUnauthorized(c, "UNAUTHORIZED", "Unknown user")
			return
		}
		if !profile.IsApproved {
			abortForbidden(c, "NOT_APPROVED", "Account pending approval")
			return
		}
		if profile.AccessExpiry != nil && profile.AccessExpiry.Before(time.Now()) {
			abortForbidden(c, "ACCESS_EXPIRED", "Account access has expired")
			return
		}

		c.Set("user_email", email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
	c.Abort()
}

func abortForbidden(c *gin.Context, code, message string) {
	c.JSON(http.StatusForbidden, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
	c.Abort()
}
