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

// CreateInput is the booking intent an owner submits.
type CreateInput struct {
	CarID               uint
	PickupLocation      string
	PreferredDate       string
	PreferredTime       string
	ServiceType         string
	SpecialInstructions string
}

func (in CreateInput) validate() map[string]string {
	fields := map[string]string{}
	if in.CarID == 0 {
		fields["car"] = "This field is required."
	}
	if strings.TrimSpace(in.PickupLocation) == "" {
		fields["pickup_location"] = "This field is required."
	}
	if in.PreferredDate == "" {
		fields["preferred_date"] = "This field is required."
	} else if _, err := time.Parse("2006-01-02", in.PreferredDate); err != nil {
		fields["preferred_date"] = "Date has wrong format. Use YYYY-MM-DD."
	}
	if in.PreferredTime == "" {
		fields["preferred_time"] = "This field is required."
	} else if !validClock(in.PreferredTime) {
		fields["preferred_time"] = "Time has wrong format. Use hh:mm."
	}
	if strings.TrimSpace(in.ServiceType) == "" {
		fields["service_type"] = "This field is required."
	}
	return fields
}

func validClock(v string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// Create books a new request for one of the owner's cars. It starts
// pending with no work and only the trip fee on the owner's total.
func (e *Engine) Create(ctx context.Context, p *auth.Principal, in CreateInput) (*models.ServiceRequest, error) {
	if !p.IsOwner() {
		return nil, apperr.Forbidden("Only car owners can create service requests")
	}
	fields := in.validate()

	db := e.db.WithContext(ctx)
	if in.CarID != 0 {
		var car models.Car
		err := db.Where("id = ? AND owner_id = ?", in.CarID, p.OwnerID).First(&car).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields["car"] = "Car not found"
		} else if err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	empty := utils.CalculateOwnerTotal(decimal.Zero)
	sr := models.ServiceRequest{
		CarID:               in.CarID,
		OwnerID:             p.OwnerID,
		PickupLocation:      strings.TrimSpace(in.PickupLocation),
		PreferredDate:       in.PreferredDate,
		PreferredTime:       in.PreferredTime,
		ServiceType:         strings.TrimSpace(in.ServiceType),
		SpecialInstructions: in.SpecialInstructions,
		Status:              models.StatusPending,
		GarageCost:          empty.GarageCost,
		TotalCost:           empty.TotalCost,
	}
	if err := db.Create(&sr).Error; err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"request_id": sr.ID, "owner_id": p.OwnerID}).Info("service request created")
	e.publish(ctx, StatusChange{RequestID: sr.ID, To: models.StatusPending, ActorID: p.UserID, Timestamp: e.now()})
	return e.fetch(ctx, sr.ID)
}

// List returns the requests the caller may see, newest first.
func (e *Engine) List(ctx context.Context, p *auth.Principal) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	err := visibleTo(withDetails(e.db.WithContext(ctx)), p).
		Order("created_at DESC, id DESC").
		Find(&requests).Error
	return requests, err
}

// Get returns one request if the caller may see it.
func (e *Engine) Get(ctx context.Context, p *auth.Principal, id uint) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := visibleTo(withDetails(e.db.WithContext(ctx)), p).First(&sr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgRequestNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// Earnings is both views over one request's garage cost.
type Earnings struct {
	RequestID uint                 `json:"service_request"`
	Status    models.ServiceStatus `json:"status"`
	Garage    utils.GarageEarnings `json:"garage"`
	Owner     utils.OwnerTotal     `json:"owner"`
}

func (e *Engine) Earnings(ctx context.Context, p *auth.Principal, id uint) (*Earnings, error) {
	sr, err := loadRequest(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		if err := requireAssignedGarage(p, sr, "Only garages can view earnings"); err != nil {
			return nil, err
		}
	}
	return &Earnings{
		RequestID: sr.ID,
		Status:    sr.Status,
		Garage:    utils.CalculateGarageEarnings(sr.GarageCost),
		Owner:     utils.CalculateOwnerTotal(sr.GarageCost),
	}, nil
}

func (e *Engine) fetch(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	if err := withDetails(e.db.WithContext(ctx)).First(&sr, id).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Car").
		Preload("Owner.User").
		Preload("AssignedMechanic.User").
		Preload("AssignedGarage").
		Preload("WorkItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func visibleTo(q *gorm.DB, p *auth.Principal) *gorm.DB {
	switch {
	case p.IsAdmin():
		return q
	case p.IsOwner():
		return q.Where("owner_id = ?", p.OwnerID)
	case p.IsDriver():
		return q.Where("(status = ? OR assigned_mechanic_id = ?)", models.StatusPending, p.DriverID)
	case p.IsGarage():
		return q.Where("assigned_garage_id = ?", p.GarageID)
	}
	return q.Where("1 = 0")
}
