package models

import (
	"fmt"
	"time"
)

type InquiryType string

const (
	InquiryFleetManagement InquiryType = "fleet_management"
	InquiryNTSAInspection  InquiryType = "ntsa_inspection"
	InquiryDedicatedDriver InquiryType = "dedicated_drivers"
)

func (t InquiryType) Valid() bool {
	switch t {
	case InquiryFleetManagement, InquiryNTSAInspection, InquiryDedicatedDriver:
		return true
	}
	return false
}

// ServiceInquiry is a B2B lead from the public inquiry form. Fields that
// vary by inquiry type are kept in Details as submitted.
type ServiceInquiry struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ServiceType   InquiryType    `gorm:"size:30;not null;index" json:"service_type"`
	CompanyName   string         `gorm:"size:200;not null" json:"company_name"`
	ContactPerson string         `gorm:"size:200;not null" json:"contact_person"`
	Email         string         `gorm:"size:254;not null" json:"email"`
	Phone         string         `gorm:"size:20;not null" json:"phone"`
	Details       map[string]any `gorm:"type:text;serializer:json" json:"inquiry_data"`
	Status        string         `gorm:"size:20;not null" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (ServiceInquiry) TableName() string {
	return "service_inquiries"
}

func (i *ServiceInquiry) Reference() string {
	return fmt.Sprintf("INQ-%06d", i.ID)
}
