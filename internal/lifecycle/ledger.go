package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"github.com/swiftserve/swiftserve-backend/pkg/utils"
	"gorm.io/gorm"
)

// maxCost fits a decimal(10,2) column.
var maxCost = decimal.RequireFromString("99999999.99")

// WorkItemInput is a line item as submitted. Cost is the raw text of the
// submitted amount so malformed values can be reported per field.
type WorkItemInput struct {
	Description string
	Cost        string
}

func (in WorkItemInput) parse() (string, decimal.Decimal, error) {
	fields := map[string]string{}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		fields["description"] = "Description is required"
	}

	var cost decimal.Decimal
	raw := strings.TrimSpace(in.Cost)
	if raw == "" || raw == "null" {
		fields["cost"] = "Cost is required"
	} else if c, err := decimal.NewFromString(raw); err != nil {
		fields["cost"] = "Invalid cost value"
	} else if !c.IsPositive() {
		fields["cost"] = "Cost must be greater than zero"
	} else if !c.Equal(c.Round(2)) {
		fields["cost"] = "Cost can have at most 2 decimal places"
	} else if c.GreaterThan(maxCost) {
		fields["cost"] = "Cost is too large"
	} else {
		cost = c
	}

	if len(fields) > 0 {
		return "", decimal.Decimal{}, apperr.Validation(fields)
	}
	return description, cost, nil
}

// AddWorkItem bills a line item to a request in service and recomputes
// its costs.
func (e *Engine) AddWorkItem(ctx context.Context, p *auth.Principal, id uint, in WorkItemInput) (*models.WorkItem, *models.ServiceRequest, error) {
	var item models.WorkItem
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := loadRequest(tx, id)
		if err != nil {
			return err
		}
		if err := requireAssignedGarage(p, sr, "Only garages can add work items"); err != nil {
			return err
		}
		if sr.Status != models.StatusInService {
			return apperr.WrongStatus("Can only add work items when service is in progress")
		}
		description, cost, err := in.parse()
		if err != nil {
			return err
		}
		if err := holdInService(tx, id, e.now(), "Can only add work items when service is in progress"); err != nil {
			return err
		}

		item = models.WorkItem{ServiceRequestID: id, Description: description, Cost: cost}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return recomputeCosts(tx, id)
	})
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{"request_id": id, "work_item_id": item.ID, "cost": item.Cost.String()}).Info("work item added")
	sr, err := e.fetch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &item, sr, nil
}

// RemoveWorkItem deletes one of the request's own items. Corrections are a
// remove followed by an add.
func (e *Engine) RemoveWorkItem(ctx context.Context, p *auth.Principal, id, workItemID uint) (*models.ServiceRequest, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := loadRequest(tx, id)
		if err != nil {
			return err
		}
		if err := requireAssignedGarage(p, sr, "Only garages can remove work items"); err != nil {
			return err
		}
		if sr.Status != models.StatusInService {
			return apperr.WrongStatus("Can only remove work items when service is in progress")
		}
		if workItemID == 0 {
			return apperr.Field("work_item_id", "This field is required.")
		}

		var item models.WorkItem
		err = tx.Where("id = ? AND service_request_id = ?", workItemID, id).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Work item not found")
		}
		if err != nil {
			return err
		}
		if err := holdInService(tx, id, e.now(), "Can only remove work items when service is in progress"); err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return recomputeCosts(tx, id)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"request_id": id, "work_item_id": workItemID}).Info("work item removed")
	return e.fetch(ctx, id)
}

// holdInService touches the request only while it is still in service.
// The write also locks the row until the transaction ends, which keeps
// the ledger from changing under a concurrent completion.
func holdInService(tx *gorm.DB, id uint, now time.Time, message string) error {
	res := tx.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", id, models.StatusInService).
		Update("updated_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return apperr.WrongStatus(message)
	}
	return nil
}

func loadWorkItems(tx *gorm.DB, id uint) ([]models.WorkItem, error) {
	var items []models.WorkItem
	err := tx.Where("service_request_id = ?", id).Order("id").Find(&items).Error
	return items, err
}

func costsOf(items []models.WorkItem) (garageCost, totalCost decimal.Decimal) {
	garageCost = decimal.Zero
	for _, item := range items {
		garageCost = garageCost.Add(item.Cost)
	}
	return garageCost, utils.CalculateOwnerTotal(garageCost).TotalCost
}

// recomputeCosts derives both totals from the persisted items.
func recomputeCosts(tx *gorm.DB, id uint) error {
	items, err := loadWorkItems(tx, id)
	if err != nil {
		return err
	}
	garageCost, totalCost := costsOf(items)
	return tx.Model(&models.ServiceRequest{}).Where("id = ?", id).
		Updates(map[string]any{"garage_cost": garageCost, "total_cost": totalCost}).Error
}
