package database

import (
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

// EnsureAdmin creates the staff account if no user with that email exists.
// It never changes an existing account.
func EnsureAdmin(db *gorm.DB, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	admin := models.User{
		Email:     email,
		Password:  password,
		FirstName: "Platform",
		LastName:  "Admin",
		UserType:  models.UserTypeAdmin,
	}
	if err := admin.HashPassword(); err != nil {
		return nil, err
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	log.WithField("email", email).Info("created bootstrap admin account")
	return &admin, nil
}
