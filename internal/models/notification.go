package models

import "time"

type RecipientType string

const (
	RecipientMechanic RecipientType = "mechanic"
	RecipientGarage   RecipientType = "garage"
	RecipientOwner    RecipientType = "owner"
)

// Notification is addressed to exactly one of a driver, a garage or an
// owner. Only the ID column matching RecipientType is set.
type Notification struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	RecipientType    RecipientType `gorm:"size:20;not null" json:"recipient_type"`
	MechanicID       *uint         `gorm:"index" json:"mechanic"`
	GarageID         *uint         `gorm:"index" json:"garage"`
	OwnerID          *uint         `gorm:"index" json:"owner"`
	ServiceRequestID *uint         `gorm:"index" json:"service_request"`
	Title            string        `gorm:"size:200;not null" json:"title"`
	Message          string        `gorm:"type:text;not null" json:"message"`
	IsRead           bool          `gorm:"not null" json:"is_read"`
	CreatedAt        time.Time     `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
