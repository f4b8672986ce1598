package auth

import (
	"context"
	"errors"

	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

// Principal is the authenticated caller of one request. It is resolved
// from the session on every request and passed explicitly to handlers
// and the lifecycle engine.
type Principal struct {
	UserID uint
	Email  string
	Role   models.UserType

	// Profile IDs. Only the one matching Role is non-zero.
	OwnerID  uint
	DriverID uint
	GarageID uint

	DriverStatus models.ApprovalStatus
	GarageStatus models.ApprovalStatus
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == models.UserTypeAdmin }
func (p *Principal) IsOwner() bool {
	return p != nil && p.Role == models.UserTypeCarOwner && p.OwnerID != 0
}
func (p *Principal) IsDriver() bool {
	return p != nil && p.Role == models.UserTypeMechanic && p.DriverID != 0
}
func (p *Principal) IsGarage() bool {
	return p != nil && p.Role == models.UserTypeGarage && p.GarageID != 0
}

func (p *Principal) IsApprovedDriver() bool {
	return p.IsDriver() && p.DriverStatus == models.ApprovalApproved
}

// LoadPrincipal reads the user and its role profile. A missing user returns
// gorm.ErrRecordNotFound.
func LoadPrincipal(ctx context.Context, db *gorm.DB, userID uint) (*Principal, *models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, nil, err
	}

	p := &Principal{UserID: user.ID, Email: user.Email, Role: user.UserType}
	var err error
	switch user.UserType {
	case models.UserTypeCarOwner:
		var owner models.CarOwner
		if err = db.WithContext(ctx).Where("user_id = ?", user.ID).First(&owner).Error; err == nil {
			p.OwnerID = owner.ID
		}
	case models.UserTypeMechanic:
		var driver models.Driver
		if err = db.WithContext(ctx).Where("user_id = ?", user.ID).First(&driver).Error; err == nil {
			p.DriverID = driver.ID
			p.DriverStatus = driver.Status
		}
	case models.UserTypeGarage:
		var garage models.Garage
		if err = db.WithContext(ctx).Where("user_id = ?", user.ID).First(&garage).Error; err == nil {
			p.GarageID = garage.ID
			p.GarageStatus = garage.Status
		}
	}
	// A user without its profile row still authenticates, it just has no
	// role-specific rights.
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	return p, &user, nil
}
