package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"gorm.io/gorm"
)

const (
	SessionCookieName = "sessionid"

	principalKey = "principal"
)

// abort writes err as the JSON error body and stops the chain.
func abort(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)
	c.AbortWithStatusJSON(status, body)
}

// Session resolves the caller from the session cookie or a Bearer header.
// Requests without credentials pass through anonymously; bad or expired
// credentials are rejected.
func Session(sessions *auth.Service, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := sessions.ParseToken(token)
		if err != nil {
			msg := "Invalid session"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Session expired"
			}
			abort(c, apperr.Unauthenticated(msg))
			return
		}

		p, _, err := auth.LoadPrincipal(c.Request.Context(), db, claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abort(c, apperr.Unauthenticated("Invalid session"))
				return
			}
			log.WithError(err).Error("load principal")
			abort(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Set("userId", p.UserID)
		c.Set("userType", string(p.Role))
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			abort(c, apperr.Unauthenticated("Authentication credentials were not provided."))
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			abort(c, apperr.Unauthenticated("Authentication credentials were not provided."))
			return
		}
		if !p.IsAdmin() {
			abort(c, apperr.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated caller, or nil for anonymous
// requests.
func CurrentPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

func extractToken(c *gin.Context) string {
	if bearer := bearerToken(c); bearer != "" {
		return bearer
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CookieOptions controls the attributes of the cookies this package sets.
type CookieOptions struct {
	Secure bool
	Domain string
}

func (o CookieOptions) set(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", o.Domain, o.Secure, httpOnly)
}

// SetSession stores a session token in an HttpOnly cookie.
func (o CookieOptions) SetSession(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	o.set(c, SessionCookieName, token, maxAge, true)
}

func (o CookieOptions) ClearSession(c *gin.Context) {
	o.set(c, SessionCookieName, "", -1, true)
}
