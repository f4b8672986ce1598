package lifecycle

import (
	"strings"

	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

func notifyOwner(tx *gorm.DB, sr *models.ServiceRequest, title, message string) error {
	ownerID, requestID := sr.OwnerID, sr.ID
	return tx.Create(&models.Notification{
		RecipientType:    models.RecipientOwner,
		OwnerID:          &ownerID,
		ServiceRequestID: &requestID,
		Title:            title,
		Message:          message,
	}).Error
}

func notifyMechanic(tx *gorm.DB, sr *models.ServiceRequest, title, message string) error {
	if sr.AssignedMechanicID == nil {
		return nil
	}
	mechanicID, requestID := *sr.AssignedMechanicID, sr.ID
	return tx.Create(&models.Notification{
		RecipientType:    models.RecipientMechanic,
		MechanicID:       &mechanicID,
		ServiceRequestID: &requestID,
		Title:            title,
		Message:          message,
	}).Error
}

func notifyGarage(tx *gorm.DB, sr *models.ServiceRequest, title, message string) error {
	if sr.AssignedGarageID == nil {
		return nil
	}
	garageID, requestID := *sr.AssignedGarageID, sr.ID
	return tx.Create(&models.Notification{
		RecipientType:    models.RecipientGarage,
		GarageID:         &garageID,
		ServiceRequestID: &requestID,
		Title:            title,
		Message:          message,
	}).Error
}

// serviceLabel turns "oil_change" into "oil change".
func serviceLabel(serviceType string) string {
	return strings.ReplaceAll(serviceType, "_", " ")
}
