package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/utils"
)

const (
	accountIDKey = "account_id"
	sessionIDKey = "session_id"
	profileKey   = "profile"
)

// SessionResolver turns an access token into a live session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Session, error)
}

// ProfileResolver finds the profile linked to an account.
type ProfileResolver interface {
	ProfileForAccount(ctx context.Context, accountID string) (*models.User, error)
}

func GetAccountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// GetProfile returns the acting profile, or nil on anonymous requests.
func GetProfile(c *gin.Context) *models.User {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	profile, _ := v.(*models.User)
	return profile
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware requires a Bearer token whose session still exists.
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.RespondRedirect(c, http.StatusUnauthorized, "Authorization required", utils.RedirectLogin)
			return
		}

		session, err := sessions.ResolveSession(c.Request.Context(), token)
		if err != nil {
			utils.RespondRedirect(c, http.StatusUnauthorized, "Session expired, please sign in again", utils.RedirectLogin)
			return
		}

		c.Set(accountIDKey, session.AccountID)
		c.Set(sessionIDKey, session.ID)
		c.Next()
	}
}

// ProfileMiddleware loads the profile for the authenticated account. It runs
// after AuthMiddleware and never creates a profile.
func ProfileMiddleware(profiles ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := GetAccountID(c)
		if accountID == "" {
			utils.RespondRedirect(c, http.StatusUnauthorized, "Authorization required", utils.RedirectLogin)
			return
		}

		profile, err := profiles.ProfileForAccount(c.Request.Context(), accountID)
		if err != nil {
			utils.RespondRedirect(c, http.StatusUnauthorized, "Profile not found", utils.RedirectLogin)
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

// OptionalAuth resolves the session and profile when a valid token is sent
// and lets the request through either way. Routes behind it also accept a
// share token.
func OptionalAuth(sessions SessionResolver, profiles ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		session, err := sessions.ResolveSession(c.Request.Context(), token)
		if err == nil {
			c.Set(accountIDKey, session.AccountID)
			c.Set(sessionIDKey, session.ID)
			if profile, err := profiles.ProfileForAccount(c.Request.Context(), session.AccountID); err == nil {
				c.Set(profileKey, profile)
			}
		}
		c.Next()
	}
}

// RequireAdmin rejects profiles without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := GetProfile(c)
		if profile == nil {
			utils.RespondRedirect(c, http.StatusUnauthorized, "Authorization required", utils.RedirectLogin)
			return
		}
		if !profile.IsAdmin() {
			utils.RespondRedirect(c, http.StatusForbidden, "Admin access required", utils.RedirectDashboard)
			return
		}
		c.Next()
	}
}
