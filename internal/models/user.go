package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type UserType string

const (
	UserTypeCarOwner UserType = "car_owner"
	UserTypeMechanic UserType = "mechanic"
	UserTypeGarage   UserType = "garage"
	UserTypeAdmin    UserType = "admin"
)

// ApprovalStatus is the onboarding state shared by drivers and garages.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"-" json:"-"` // plain text, only set while registering
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string    `gorm:"column:first_name" json:"first_name"`
	LastName     string    `gorm:"column:last_name" json:"last_name"`
	UserType     UserType  `gorm:"column:user_type;not null" json:"user_type"`
	CreatedAt    time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	u.Password = ""
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CarOwner is the customer profile attached to a car_owner user.
type CarOwner struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"-"`
	User           User      `gorm:"foreignKey:UserID" json:"user"`
	PhoneNumber    string    `gorm:"size:15" json:"phone_number"`
	Address        string    `gorm:"type:text" json:"address"`
	ReferralCode   string    `gorm:"size:8;uniqueIndex" json:"referral_code"`
	ReferralPoints int       `gorm:"not null;default:0" json:"referral_points"`
	ReferredByID   *uint     `json:"referred_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func (CarOwner) TableName() string {
	return "car_owners"
}

// Driver moves cars between owners and garages. The wire format and
// table keep the historical "mechanic" name.
type Driver struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"uniqueIndex;not null" json:"-"`
	User          User           `gorm:"foreignKey:UserID" json:"user"`
	PhoneNumber   string         `gorm:"size:15" json:"phone_number"`
	Address       string         `gorm:"type:text" json:"address"`
	IDNumber      string         `gorm:"size:20" json:"id_number"`
	LicenseNumber string         `gorm:"size:50" json:"license_number"`
	Status        ApprovalStatus `gorm:"size:20;not null;index" json:"status"`
	Rating        float64        `gorm:"not null;default:0" json:"rating"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (Driver) TableName() string {
	return "mechanics"
}

func (d *Driver) IsApproved() bool {
	return d.Status == ApprovalApproved
}

type Garage struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"uniqueIndex;not null" json:"-"`
	User       User           `gorm:"foreignKey:UserID" json:"-"`
	Name       string         `gorm:"size:200;not null" json:"name"`
	OwnerName  string         `gorm:"size:200" json:"owner_name"`
	OwnerPhone string         `gorm:"size:15" json:"owner_phone"`
	OwnerEmail string         `gorm:"size:254" json:"owner_email"`
	Address    string         `gorm:"type:text" json:"address"`
	Location   string         `gorm:"size:200" json:"location"`
	Status     ApprovalStatus `gorm:"size:20;not null;index" json:"status"`
	Images     []GarageImage  `gorm:"foreignKey:GarageID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Garage) TableName() string {
	return "garages"
}

func (g *Garage) IsApproved() bool {
	return g.Status == ApprovalApproved
}

type GarageImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GarageID  uint      `gorm:"index;not null" json:"garage"`
	URL       string    `gorm:"type:text;not null" json:"image"`
	Caption   string    `gorm:"size:200" json:"caption"`
	CreatedAt time.Time `json:"uploaded_at"`
}

func (GarageImage) TableName() string {
	return "garage_images"
}
