package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

const (
	msgEmailTaken  = "A user with this email already exists."
	referralReward = 10
)

type OwnerRegistrationInput struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=6"`
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name" binding:"required"`
	PhoneNumber      string `json:"phone_number" binding:"required,max=15"`
	Address          string `json:"address" binding:"required"`
	ReferralCodeUsed string `json:"referral_code_used"`

	// The first car is optional and only created when make, model, year
	// and registration are all given.
	CarMake         string `json:"car_make"`
	CarModel        string `json:"car_model"`
	CarYear         int    `json:"car_year"`
	CarRegistration string `json:"car_registration"`
	CarColor        string `json:"car_color"`
	CarMileage      int    `json:"car_mileage" binding:"gte=0"`
	CarFuelType     string `json:"car_fuel_type"`
	CarTransmission string `json:"car_transmission"`
}

func (in *OwnerRegistrationInput) car() *models.Car {
	if in.CarMake == "" || in.CarModel == "" || in.CarYear == 0 || in.CarRegistration == "" {
		return nil
	}
	car := &models.Car{
		Make:               in.CarMake,
		Model:              in.CarModel,
		Year:               in.CarYear,
		RegistrationNumber: strings.ToUpper(strings.TrimSpace(in.CarRegistration)),
		Color:              in.CarColor,
		Mileage:            in.CarMileage,
		FuelType:           in.CarFuelType,
		Transmission:       in.CarTransmission,
	}
	if car.FuelType == "" {
		car.FuelType = "petrol"
	}
	if car.Transmission == "" {
		car.Transmission = "automatic"
	}
	return car
}

type MechanicRegistrationInput struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	PhoneNumber   string `json:"phone_number" binding:"required,max=15"`
	Address       string `json:"address" binding:"required"`
	IDNumber      string `json:"id_number" binding:"required,max=20"`
	LicenseNumber string `json:"license_number" binding:"max=50"`
}

type GarageRegistrationInput struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Name       string `json:"name" binding:"required,max=200"`
	OwnerName  string `json:"owner_name" binding:"required,max=200"`
	OwnerPhone string `json:"owner_phone" binding:"required,max=15"`
	OwnerEmail string `json:"owner_email" binding:"omitempty,email"`
	Address    string `json:"address" binding:"required"`
	Location   string `json:"location" binding:"required,max=200"`
}

func RegisterCarOwner(db *gorm.DB, mailer Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input OwnerRegistrationInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		owner := models.CarOwner{
			User: models.User{
				Email:     normalizeEmail(input.Email),
				Password:  input.Password,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				UserType:  models.UserTypeCarOwner,
			},
			PhoneNumber: input.PhoneNumber,
			Address:     input.Address,
		}
		if err := owner.User.HashPassword(); err != nil {
			respondError(c, err)
			return
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := requireFreshEmail(tx, owner.User.Email); err != nil {
				return err
			}

			if code := strings.ToUpper(strings.TrimSpace(input.ReferralCodeUsed)); code != "" {
				var referrer models.CarOwner
				err := tx.Where("referral_code = ?", code).First(&referrer).Error
				switch {
				case err == nil:
					owner.ReferredByID = &referrer.ID
					if err := tx.Model(&referrer).
						UpdateColumn("referral_points", gorm.Expr("referral_points + ?", referralReward)).Error; err != nil {
						return err
					}
				case errors.Is(err, gorm.ErrRecordNotFound):
					// Unknown codes are ignored.
				default:
					return err
				}
			}

			code, err := uniqueCode(tx, &models.CarOwner{}, "referral_code", referralCodes)
			if err != nil {
				return err
			}
			owner.ReferralCode = code
			if err := tx.Create(&owner).Error; err != nil {
				return err
			}

			if car := input.car(); car != nil {
				var taken int64
				if err := tx.Model(&models.Car{}).Where("registration_number = ?", car.RegistrationNumber).Count(&taken).Error; err != nil {
					return err
				}
				if taken > 0 {
					return apperr.Field("car_registration", msgRegistrationTaken)
				}
				car.OwnerID = owner.ID
				if err := tx.Create(car).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithFields(log.Fields{"user_id": owner.UserID, "car_owner_id": owner.ID}).Info("car owner registered")
		warnMail(mailer.SendWelcomeOwner(owner.User.Email, owner.User.FullName()), "owner welcome")

		c.JSON(http.StatusCreated, gin.H{
			"message":   "Registration successful",
			"car_owner": owner,
		})
	}
}

func RegisterMechanic(db *gorm.DB, mailer Mailer, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input MechanicRegistrationInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		driver := models.Driver{
			User: models.User{
				Email:     normalizeEmail(input.Email),
				Password:  input.Password,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				UserType:  models.UserTypeMechanic,
			},
			PhoneNumber:   input.PhoneNumber,
			Address:       input.Address,
			IDNumber:      input.IDNumber,
			LicenseNumber: input.LicenseNumber,
			Status:        models.ApprovalPending,
		}
		if err := driver.User.HashPassword(); err != nil {
			respondError(c, err)
			return
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := requireFreshEmail(tx, driver.User.Email); err != nil {
				return err
			}
			return tx.Create(&driver).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}

		name := driver.User.FullName()
		log.WithFields(log.Fields{"user_id": driver.UserID, "mechanic_id": driver.ID}).Info("mechanic application received")
		warnMail(mailer.SendRegistrationReceived(driver.User.Email, name, "driver"), "mechanic application")
		warnMail(mailer.SendAdminAlert(adminEmail, "New Mechanic Application",
			"Name: "+name, "Email: "+driver.User.Email, "Phone: "+driver.PhoneNumber), "mechanic admin alert")

		c.JSON(http.StatusCreated, gin.H{
			"message":  "Application submitted successfully! We will review your details and get back to you soon.",
			"mechanic": driver,
		})
	}
}

func RegisterGarage(db *gorm.DB, mailer Mailer, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input GarageRegistrationInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		first, last := splitName(input.OwnerName)
		email := normalizeEmail(input.Email)
		contact := normalizeEmail(input.OwnerEmail)
		if contact == "" {
			contact = email
		}
		garage := models.Garage{
			User: models.User{
				Email:     email,
				Password:  input.Password,
				FirstName: first,
				LastName:  last,
				UserType:  models.UserTypeGarage,
			},
			Name:       input.Name,
			OwnerName:  input.OwnerName,
			OwnerPhone: input.OwnerPhone,
			OwnerEmail: contact,
			Address:    input.Address,
			Location:   input.Location,
			Status:     models.ApprovalPending,
		}
		if err := garage.User.HashPassword(); err != nil {
			respondError(c, err)
			return
		}

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := requireFreshEmail(tx, email); err != nil {
				return err
			}
			return tx.Create(&garage).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithFields(log.Fields{"user_id": garage.UserID, "garage_id": garage.ID}).Info("garage registration received")
		warnMail(mailer.SendRegistrationReceived(garage.OwnerEmail, garage.OwnerName, "garage partner"), "garage registration")
		warnMail(mailer.SendAdminAlert(adminEmail, "New Garage Registration",
			"Name: "+garage.Name, "Owner: "+garage.OwnerName, "Email: "+garage.OwnerEmail, "Phone: "+garage.OwnerPhone),
			"garage admin alert")

		garage.Images = []models.GarageImage{}
		c.JSON(http.StatusCreated, gin.H{
			"message": "Registration submitted successfully! We will verify your details and get back to you soon.",
			"garage":  garage,
		})
	}
}

func requireFreshEmail(tx *gorm.DB, email string) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Field("email", msgEmailTaken)
	}
	return nil
}

// newReferralCode returns 8 upper-case hex characters.
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Generators for the short unique codes. Tests swap them to force collisions.
var (
	referralCodes = newReferralCode
	orderNumbers  = newOrderNumber
)

const maxCodeAttempts = 5

// uniqueCode draws from gen until it finds a value not yet stored in column.
func uniqueCode(tx *gorm.DB, model any, column string, gen func() string) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := gen()
		var n int64
		if err := tx.Model(model).Where(column+" = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free %s after %d attempts", column, maxCodeAttempts)
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
