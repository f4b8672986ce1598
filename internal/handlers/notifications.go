package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

type BroadcastInput struct {
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
}

// ListNotifications returns the caller's notifications, newest first.
// Admins see every notification.
func ListNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		notifications := []models.Notification{}
		q := db.WithContext(c.Request.Context()).Order("created_at DESC, id DESC")
		switch {
		case p.IsAdmin():
		case p.IsOwner():
			q = q.Where("owner_id = ?", p.OwnerID)
		case p.IsDriver():
			q = q.Where("mechanic_id = ?", p.DriverID)
		case p.IsGarage():
			q = q.Where("garage_id = ?", p.GarageID)
		default:
			c.JSON(http.StatusOK, notifications)
			return
		}
		if err := q.Find(&notifications).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

func MarkNotificationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, err := parseID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		var n models.Notification
		if err := db.WithContext(ctx).First(&n, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = apperr.NotFound("Notification not found")
			}
			respondError(c, err)
			return
		}
		if !addressedTo(&n, p) {
			respondError(c, apperr.Forbidden("You cannot mark this notification as read"))
			return
		}

		if err := db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
			respondError(c, err)
			return
		}
		n.IsRead = true
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read", "notification": n})
	}
}

func addressedTo(n *models.Notification, p *auth.Principal) bool {
	switch {
	case p.IsAdmin():
		return true
	case p.IsOwner():
		return n.OwnerID != nil && *n.OwnerID == p.OwnerID
	case p.IsDriver():
		return n.MechanicID != nil && *n.MechanicID == p.DriverID
	case p.IsGarage():
		return n.GarageID != nil && *n.GarageID == p.GarageID
	}
	return false
}

// SendToMechanics notifies every approved driver.
func SendToMechanics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input BroadcastInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		var ids []uint
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Driver{}).Where("status = ?", models.ApprovalApproved).Pluck("id", &ids).Error; err != nil {
				return err
			}
			return createBroadcast(tx, ids, func(id uint) models.Notification {
				return models.Notification{RecipientType: models.RecipientMechanic, MechanicID: &id, Title: input.Title, Message: input.Message}
			})
		})
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithField("count", len(ids)).Info("broadcast sent to mechanics")
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Notification sent to %d mechanics", len(ids)), "count": len(ids)})
	}
}

// SendToGarages notifies every approved garage.
func SendToGarages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input BroadcastInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}

		var ids []uint
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Garage{}).Where("status = ?", models.ApprovalApproved).Pluck("id", &ids).Error; err != nil {
				return err
			}
			return createBroadcast(tx, ids, func(id uint) models.Notification {
				return models.Notification{RecipientType: models.RecipientGarage, GarageID: &id, Title: input.Title, Message: input.Message}
			})
		})
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithField("count", len(ids)).Info("broadcast sent to garages")
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Notification sent to %d garages", len(ids)), "count": len(ids)})
	}
}

func createBroadcast(tx *gorm.DB, ids []uint, build func(id uint) models.Notification) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, build(id))
	}
	return tx.CreateInBatches(&rows, 100).Error
}
