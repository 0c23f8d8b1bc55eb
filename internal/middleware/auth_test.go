package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type fakeProfiles struct {
	profiles map[string]*models.Profile
}

func (f *fakeProfiles) GetProfileByEmail(email string) (*models.Profile, error) {
	if p, ok := f.profiles[email]; ok {
		return p, nil
	}
	return nil, repository.ErrProfileNotFound
}

func authRouter(profiles ProfileChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireAdmin(profiles))
	router.GET("/secure", func(c *gin.Context) {
		email := c.GetString("user_email")
		c.JSON(http.StatusOK, gin.H{"email": email})
	})
	return router
}

func request(router *gin.Engine, email string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if email != "" {
		req.Header.Set("X-User-Email", email)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"approved@example.com": {Email: "approved@example.com", IsApproved: true},
		"expiring@example.com": {Email: "expiring@example.com", IsApproved: true, AccessExpiry: &future},
		"expired@example.com":  {Email: "expired@example.com", IsApproved: true, AccessExpiry: &past},
		"pending@example.com":  {Email: "pending@example.com", IsApproved: false},
	}}
	router := authRouter(profiles)

	t.Run("MissingPrincipalRejected", func(t *testing.T) {
		w := request(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnknownUserRejected", func(t *testing.T) {
		w := request(router, "ghost@example.com")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("PendingApprovalRejected", func(t *testing.T) {
		w := request(router, "pending@example.com")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_APPROVED")
	})

	t.Run("ExpiredAccessRejected", func(t *testing.T) {
		w := request(router, "expired@example.com")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ACCESS_EXPIRED")
	})

	t.Run("ApprovedUserPasses", func(t *testing.T) {
		w := request(router, "approved@example.com")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "approved@example.com")
	})

	t.Run("FutureExpiryStillValid", func(t *testing.T) {
		w := request(router, "expiring@example.com")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
