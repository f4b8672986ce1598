package models

import "time"

type Car struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	OwnerID            uint      `gorm:"index;not null" json:"owner"`
	Make               string    `gorm:"size:100;not null" json:"make"`
	Model              string    `gorm:"size:100;not null" json:"model"`
	Year               int       `gorm:"not null" json:"year"`
	RegistrationNumber string    `gorm:"size:20;uniqueIndex;not null" json:"registration_number"`
	Color              string    `gorm:"size:50" json:"color"`
	Mileage            int       `gorm:"not null;default:0" json:"mileage"`
	FuelType           string    `gorm:"size:20" json:"fuel_type"`
	Transmission       string    `gorm:"size:20" json:"transmission"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Car) TableName() string {
	return "cars"
}

// Label is the "make model" form used in notification texts.
func (c *Car) Label() string {
	if c == nil {
		return "car"
	}
	return c.Make + " " + c.Model
}
