package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

type ApprovalInput struct {
	Status models.ApprovalStatus `json:"status" binding:"omitempty,oneof=approved rejected"`
}

func CarOwnerMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var owner models.CarOwner
		err := db.WithContext(c.Request.Context()).Preload("User").Where("user_id = ?", p.UserID).First(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.NotFound("Car owner profile not found")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, owner)
	}
}

func MechanicMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var driver models.Driver
		err := db.WithContext(c.Request.Context()).Preload("User").Where("user_id = ?", p.UserID).First(&driver).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.NotFound("Mechanic profile not found")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, driver)
	}
}

func GarageMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var garage models.Garage
		err := db.WithContext(c.Request.Context()).Preload("Images").Where("user_id = ?", p.UserID).First(&garage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperr.NotFound("Garage profile not found")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, garage)
	}
}

func PendingMechanics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var drivers []models.Driver
		if err := db.WithContext(c.Request.Context()).Preload("User").
			Where("status = ?", models.ApprovalPending).Order("created_at ASC").Find(&drivers).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, drivers)
	}
}

func PendingGarages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var garages []models.Garage
		if err := db.WithContext(c.Request.Context()).Preload("Images").
			Where("status = ?", models.ApprovalPending).Order("created_at ASC").Find(&garages).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, garages)
	}
}

// ApproveMechanic records the onboarding decision for a driver. An empty
// body approves.
func ApproveMechanic(db *gorm.DB, mailer Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		status, err := approvalStatus(c)
		if err != nil {
			respondError(c, err)
			return
		}

		var driver models.Driver
		ctx := c.Request.Context()
		if err := db.WithContext(ctx).Preload("User").First(&driver, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = apperr.NotFound("Mechanic not found")
			}
			respondError(c, err)
			return
		}
		if err := db.WithContext(ctx).Model(&driver).Update("status", status).Error; err != nil {
			respondError(c, err)
			return
		}
		driver.Status = status

		log.WithFields(log.Fields{"mechanic_id": driver.ID, "status": status}).Info("mechanic reviewed")
		warnMail(mailer.SendApprovalDecision(driver.User.Email, driver.User.FullName(), "driver",
			status == models.ApprovalApproved), "mechanic decision")

		c.JSON(http.StatusOK, gin.H{"message": "Mechanic " + string(status) + " successfully", "mechanic": driver})
	}
}

func ApproveGarage(db *gorm.DB, mailer Mailer, cache GarageCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		status, err := approvalStatus(c)
		if err != nil {
			respondError(c, err)
			return
		}

		var garage models.Garage
		ctx := c.Request.Context()
		if err := db.WithContext(ctx).Preload("Images").First(&garage, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = apperr.NotFound("Garage not found")
			}
			respondError(c, err)
			return
		}
		if err := db.WithContext(ctx).Model(&garage).Update("status", status).Error; err != nil {
			respondError(c, err)
			return
		}
		garage.Status = status
		if cache != nil {
			cache.InvalidateApprovedGarages(ctx)
		}

		log.WithFields(log.Fields{"garage_id": garage.ID, "status": status}).Info("garage reviewed")
		warnMail(mailer.SendApprovalDecision(garage.OwnerEmail, garage.OwnerName, "garage",
			status == models.ApprovalApproved), "garage decision")

		c.JSON(http.StatusOK, gin.H{"message": "Garage " + string(status) + " successfully", "garage": garage})
	}
}

func approvalStatus(c *gin.Context) (models.ApprovalStatus, error) {
	var input ApprovalInput
	if err := bindJSON(c, &input); err != nil {
		return "", err
	}
	if input.Status == "" {
		return models.ApprovalApproved, nil
	}
	return input.Status, nil
}
