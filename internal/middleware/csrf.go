package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"

	csrfMaxAge = 365 * 24 * 60 * 60
)

var errCSRF = apperr.New(apperr.KindCSRF, "CSRF Failed: CSRF token missing or incorrect.")

// CSRF enforces the double-submit check on state-changing methods: the
// csrftoken cookie must be echoed in the X-CSRFToken header. Requests
// authenticated by a Bearer header carry no ambient cookie credentials
// and are not checked.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		if bearerToken(c) != "" {
			c.Next()
			return
		}

		cookie, err := c.Cookie(CSRFCookieName)
		header := c.GetHeader(CSRFHeaderName)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			abort(c, errCSRF)
			return
		}
		c.Next()
	}
}

// IssueCSRFToken returns the caller's CSRF token, minting and setting a new
// cookie when none is present.
func (o CookieOptions) IssueCSRFToken(c *gin.Context) (string, error) {
	if existing, err := c.Cookie(CSRFCookieName); err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	// Readable by scripts so the frontend can echo it.
	o.set(c, CSRFCookieName, token, csrfMaxAge, false)
	return token, nil
}
