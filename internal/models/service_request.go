package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ServiceStatus string

// Lifecycle order. A request only ever moves one step forward.
const (
	StatusPending   ServiceStatus = "pending"
	StatusAssigned  ServiceStatus = "assigned"
	StatusPickedUp  ServiceStatus = "picked_up"
	StatusInService ServiceStatus = "in_service"
	StatusCompleted ServiceStatus = "completed"
	StatusDelivered ServiceStatus = "delivered"
)

// AllStatuses lists the lifecycle in order.
var AllStatuses = []ServiceStatus{
	StatusPending,
	StatusAssigned,
	StatusPickedUp,
	StatusInService,
	StatusCompleted,
	StatusDelivered,
}

type ServiceRequest struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	CarID               uint            `gorm:"index;not null" json:"car"`
	Car                 *Car            `gorm:"foreignKey:CarID" json:"car_details,omitempty"`
	OwnerID             uint            `gorm:"index;not null" json:"owner"`
	Owner               *CarOwner       `gorm:"foreignKey:OwnerID" json:"owner_details,omitempty"`
	AssignedMechanicID  *uint           `gorm:"index" json:"assigned_mechanic"`
	AssignedMechanic    *Driver         `gorm:"foreignKey:AssignedMechanicID" json:"mechanic_details,omitempty"`
	AssignedGarageID    *uint           `gorm:"index" json:"assigned_garage"`
	AssignedGarage      *Garage         `gorm:"foreignKey:AssignedGarageID" json:"garage_details,omitempty"`
	PickupLocation      string          `gorm:"type:text;not null" json:"pickup_location"`
	PreferredDate       string          `gorm:"size:10;not null" json:"preferred_date"`
	PreferredTime       string          `gorm:"size:8;not null" json:"preferred_time"`
	ServiceType         string          `gorm:"size:100;not null" json:"service_type"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	Status              ServiceStatus   `gorm:"size:20;not null;index" json:"status"`
	WorkItems           []WorkItem      `gorm:"foreignKey:ServiceRequestID;constraint:OnDelete:CASCADE" json:"work_items"`
	GarageCost          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"garage_cost"`
	TotalCost           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_cost"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

// WorkItem is a billable line recorded by the garage. Items are never
// edited, only added or removed.
type WorkItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ServiceRequestID uint            `gorm:"index;not null" json:"service_request"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	Cost             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (WorkItem) TableName() string {
	return "service_work_items"
}
