package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/middleware"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CSRFToken sets the csrftoken cookie. Frontends call it once on load.
func CSRFToken(cookies middleware.CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := cookies.IssueCSRFToken(c)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "CSRF cookie set", "csrfToken": token})
	}
}

func Login(db *gorm.DB, sessions *auth.Service, cookies middleware.CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		// A body that does not decode is treated like missing credentials.
		_ = c.ShouldBindJSON(&input)

		email := normalizeEmail(input.Email)
		if email == "" || input.Password == "" {
			respondError(c, apperr.MissingData("Email and password are required"))
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, apperr.Unauthenticated("Invalid email or password"))
				return
			}
			respondError(c, err)
			return
		}
		if err := user.CheckPassword(input.Password); err != nil {
			respondError(c, apperr.Unauthenticated("Invalid email or password"))
			return
		}

		p, _, err := auth.LoadPrincipal(c.Request.Context(), db, user.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		token, expires, err := sessions.IssueToken(&user)
		if err != nil {
			respondError(c, err)
			return
		}
		cookies.SetSession(c, token, expires)
		if _, err := cookies.IssueCSRFToken(c); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "Login successful",
			"user_type": user.UserType,
			"user":      userPayload(&user, p),
		})
	}
}

func Logout(cookies middleware.CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookies.ClearSession(c)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, p.UserID).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_type": user.UserType,
			"user":      userPayload(&user, p),
		})
	}
}

// userPayload is the session user with the ID and onboarding status of
// its role profile.
func userPayload(user *models.User, p *auth.Principal) gin.H {
	out := gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
	switch {
	case p.OwnerID != 0:
		out["car_owner_id"] = p.OwnerID
	case p.DriverID != 0:
		out["mechanic_id"] = p.DriverID
		out["status"] = p.DriverStatus
	case p.GarageID != 0:
		out["garage_id"] = p.GarageID
		out["status"] = p.GarageStatus
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
