package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

const msgRegistrationTaken = "A car with this registration number already exists."

type CarInput struct {
	Make               string `json:"make" binding:"required,max=100"`
	Model              string `json:"model" binding:"required,max=100"`
	Year               int    `json:"year" binding:"required,gte=1900,lte=2100"`
	RegistrationNumber string `json:"registration_number" binding:"required,max=20"`
	Color              string `json:"color" binding:"max=50"`
	Mileage            int    `json:"mileage" binding:"gte=0"`
	FuelType           string `json:"fuel_type" binding:"max=20"`
	Transmission       string `json:"transmission" binding:"max=20"`
}

func ListCars(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		cars := []models.Car{}
		q := db.WithContext(c.Request.Context()).Order("created_at DESC")
		switch {
		case p.IsAdmin():
		case p.IsOwner():
			q = q.Where("owner_id = ?", p.OwnerID)
		default:
			c.JSON(http.StatusOK, cars)
			return
		}
		if err := q.Find(&cars).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cars)
	}
}

func CreateCar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		if !p.IsOwner() {
			respondError(c, apperr.Forbidden("Only car owners can add cars"))
			return
		}
		var input CarInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		car := models.Car{
			OwnerID:            p.OwnerID,
			Make:               input.Make,
			Model:              input.Model,
			Year:               input.Year,
			RegistrationNumber: strings.ToUpper(strings.TrimSpace(input.RegistrationNumber)),
			Color:              input.Color,
			Mileage:            input.Mileage,
			FuelType:           input.FuelType,
			Transmission:       input.Transmission,
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var taken int64
			if err := tx.Model(&models.Car{}).Where("registration_number = ?", car.RegistrationNumber).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return apperr.Field("registration_number", msgRegistrationTaken)
			}
			return tx.Create(&car).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, car)
	}
}
