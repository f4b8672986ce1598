package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/database/dbtest"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.Response {
	t.Helper()
	var body apperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSessionAndRequireAuth(t *testing.T) {
	db := dbtest.New(t)
	sessions, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	owner := models.CarOwner{User: models.User{Email: "o@swiftserve.test", PasswordHash: "x", UserType: models.UserTypeCarOwner}}
	require.NoError(t, db.Create(&owner).Error)
	admin := models.User{Email: "a@swiftserve.test", PasswordHash: "x", UserType: models.UserTypeAdmin}
	require.NoError(t, db.Create(&admin).Error)

	r := gin.New()
	r.Use(Session(sessions, db))
	r.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": CurrentPrincipal(c) == nil})
	})
	r.GET("/me", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner_id": CurrentPrincipal(c).OwnerID})
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	ownerToken, _, err := sessions.IssueToken(&owner.User)
	require.NoError(t, err)
	adminToken, _, err := sessions.IssueToken(&admin)
	require.NoError(t, err)

	t.Run("anonymous passes public route", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperr.KindUnauthenticated, decodeError(t, w).Code)
	})

	t.Run("cookie session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: ownerToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]uint
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, owner.ID, body["owner_id"])
	})

	t.Run("bearer session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("non admin forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: ownerToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Admin access required", decodeError(t, w).Error)
	})

	t.Run("bad token rejected even on public route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := &models.User{ID: 999, Email: "ghost@swiftserve.test", UserType: models.UserTypeCarOwner}
		token, _, err := sessions.IssueToken(ghost)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCSRF(t *testing.T) {
	opts := CookieOptions{}
	r := gin.New()
	r.Use(CSRF())
	r.GET("/csrf", func(c *gin.Context) {
		token, err := opts.IssueCSRFToken(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"csrfToken": token})
	})
	r.POST("/mutate", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value
	assert.Equal(t, CSRFCookieName, cookies[0].Name)
	assert.Len(t, token, 64)
	assert.False(t, cookies[0].HttpOnly)

	tests := []struct {
		name   string
		cookie string
		header string
		bearer bool
		want   int
	}{
		{name: "matching", cookie: token, header: token, want: http.StatusNoContent},
		{name: "missing header", cookie: token, want: http.StatusForbidden},
		{name: "missing cookie", header: token, want: http.StatusForbidden},
		{name: "mismatch", cookie: token, header: "other", want: http.StatusForbidden},
		{name: "bearer exempt", bearer: true, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			if tt.bearer {
				req.Header.Set("Authorization", "Bearer abc")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				body := decodeError(t, w)
				assert.Equal(t, apperr.KindCSRF, body.Code)
				assert.Equal(t, "CSRF Failed: CSRF token missing or incorrect.", body.Error)
			}
		})
	}

	t.Run("existing token reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/csrf", nil)
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.JSONEq(t, `{"csrfToken":"`+token+`"}`, w.Body.String())
		assert.Empty(t, w.Result().Cookies())
	})
}

type countingLimiter struct {
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.seen[key]++
	return l.seen[key] <= l.limit, nil
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(&countingLimiter{limit: 2, seen: map[string]int{}}, "Too many login attempts"),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "Too many login attempts", decodeError(t, w).Error)
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestSessionCookieAttributes(t *testing.T) {
	opts := CookieOptions{Secure: true}
	r := gin.New()
	r.GET("/login", func(c *gin.Context) {
		opts.SetSession(c, "tok", time.Now().Add(time.Hour))
	})
	r.GET("/logout", func(c *gin.Context) {
		opts.ClearSession(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookie := w.Result().Cookies()[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.Less(t, w.Result().Cookies()[0].MaxAge, 0)
}
