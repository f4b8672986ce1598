// Package lifecycle owns every status change of a service request. Each
// transition checks the caller's role, then its assignment, then the
// current status, then the data it needs, and finally moves the status
// with a conditional update so concurrent callers cannot both win.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

const (
	msgAlreadyTaken      = "This request has already been taken"
	msgOnlyDrivers       = "Only drivers can perform this action"
	msgNotAssigned       = "You are not assigned to this request"
	msgNotAtYourGarage   = "This request is not at your garage"
	msgRequestNotFound   = "Service request not found"
	msgServiceNotRunning = "Service is not in progress"
	msgNoWorkItems       = "Add at least one work item before completing the service"
)

// StatusChange is published after a transition commits.
type StatusChange struct {
	RequestID uint                 `json:"requestId"`
	From      models.ServiceStatus `json:"from"`
	To        models.ServiceStatus `json:"to"`
	ActorID   uint                 `json:"actorId"`
	Timestamp time.Time            `json:"timestamp"`
}

type EventPublisher interface {
	PublishStatusChange(ctx context.Context, change StatusChange) error
}

type Engine struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
}

// NewEngine returns an engine writing through db. events may be nil.
func NewEngine(db *gorm.DB, events EventPublisher) *Engine {
	return &Engine{db: db, events: events, now: time.Now}
}

// step is one forward move out of from.
type step struct {
	name string
	from models.ServiceStatus
	// statusMessage is returned when the request is not in from.
	statusMessage string
	// guard adds SQL to the conditional update, on top of the status check.
	guard     string
	authorize func(p *auth.Principal, sr *models.ServiceRequest) error
	// apply runs after the status has been claimed and returns extra
	// columns to write. An error rolls the claim back.
	apply  func(tx *gorm.DB, sr *models.ServiceRequest) (map[string]any, error)
	notify func(tx *gorm.DB, sr *models.ServiceRequest) error
}

func (e *Engine) advance(ctx context.Context, p *auth.Principal, id uint, st step) (*models.ServiceRequest, error) {
	to, ok := Next(st.from)
	if !ok {
		return nil, fmt.Errorf("%s: no transition out of %s", st.name, st.from)
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sr, err := loadRequest(tx, id)
		if err != nil {
			return err
		}
		if err := st.authorize(p, sr); err != nil {
			return err
		}
		if sr.Status != st.from {
			return apperr.WrongStatus(st.statusMessage)
		}

		claim := tx.Model(&models.ServiceRequest{}).Where("id = ? AND status = ?", sr.ID, st.from)
		if st.guard != "" {
			claim = claim.Where(st.guard)
		}
		res := claim.Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// lost a race between our read and our write
			return apperr.WrongStatus(st.statusMessage)
		}
		sr.Status = to

		if st.apply != nil {
			extra, err := st.apply(tx, sr)
			if err != nil {
				return err
			}
			if len(extra) > 0 {
				if err := tx.Model(&models.ServiceRequest{}).Where("id = ?", sr.ID).Updates(extra).Error; err != nil {
					return err
				}
			}
		}
		if st.notify != nil {
			return st.notify(tx, sr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"request_id": id,
		"action":     st.name,
		"from":       st.from,
		"to":         to,
		"user_id":    p.UserID,
	}).Info("service request transitioned")
	e.publish(ctx, StatusChange{RequestID: id, From: st.from, To: to, ActorID: p.UserID, Timestamp: e.now()})

	return e.fetch(ctx, id)
}

func (e *Engine) publish(ctx context.Context, change StatusChange) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishStatusChange(ctx, change); err != nil {
		log.WithError(err).WithField("request_id", change.RequestID).Warn("failed to publish status change")
	}
}

// AcceptJob assigns the calling driver to a pending request. When several
// drivers race, exactly one wins and the rest get a wrong-status error.
func (e *Engine) AcceptJob(ctx context.Context, p *auth.Principal, id uint) (*models.ServiceRequest, error) {
	return e.advance(ctx, p, id, step{
		name:          "accept_job",
		from:          models.StatusPending,
		statusMessage: msgAlreadyTaken,
		guard:         "assigned_mechanic_id IS NULL",
		authorize: func(p *auth.Principal, sr *models.ServiceRequest) error {
			if !p.IsApprovedDriver() {
				return apperr.Forbidden("Only approved drivers can accept jobs")
			}
			return nil
		},
		apply: func(tx *gorm.DB, sr *models.ServiceRequest) (map[string]any, error) {
			driverID := p.DriverID
			sr.AssignedMechanicID = &driverID
			return map[string]any{"assigned_mechanic_id": driverID}, nil
		},
		notify: func(tx *gorm.DB, sr *models.ServiceRequest) error {
			return notifyOwner(tx, sr, "Driver Assigned",
				"A driver has accepted your service request and will pick up your car soon.")
		},
	})
}

// AssignMechanic is the admin path to the same transition as AcceptJob.
func (e *Engine) AssignMechanic(ctx context.Context, p *auth.Principal, id, driverID uint) (*models.ServiceRequest, error) {
	return e.advance(ctx, p, id, step{
		name:          "assign_mechanic",
		from:          models.StatusPending,
		statusMessage: msgAlreadyTaken,
		guard:         "assigned_mechanic_id IS NULL",
		authorize: func(p *auth.Principal, sr *models.ServiceRequest) error {
			if !p.IsAdmin() {
				return apperr.Forbidden("Admin access required")
			}
			return nil
		},
		apply: func(tx *gorm.DB, sr *models.ServiceRequest) (map[string]any, error) {
			if driverID == 0 {
				return nil, apperr.Field("mechanic_id", "This field is required.")
			}
			var driver models.Driver
			err := tx.Where("id = ? AND status = ?", driverID, models.ApprovalApproved).First(&driver).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Mechanic not found")
			}
			if err != nil {
				return nil, err
			}
			sr.AssignedMechanicID = &driver.ID
			return map[string]any{"assigned_mechanic_id": driver.ID}, nil
		},
		notify: func(tx *gorm.DB, sr *models.ServiceRequest) error {
			if err := notifyMechanic(tx, sr, "New Job Assigned",
				fmt.Sprintf("You have been assigned to pick up a %s from %s.", sr.Car.Label(), sr.PickupLocation)); err != nil {
				return err
			}
			return notifyOwner(tx, sr, "Driver Assigned",
				"A driver has been assigned to your service request and will pick up your car soon.")
		},
	})
}

func (e *Engine) PickupCar(ctx context.Context, p *auth.Principal, id uint) (*models.ServiceRequest, error) {
	return e.advance(ctx, p, id, step{
		name:          "pickup_car",
		from:          models.StatusAssigned,
		statusMessage: "Cannot pick up car at this stage",
		authorize:     requireAssignedDriver,
		notify: func(tx *gorm.DB, sr *models.ServiceRequest) error {
			return notifyOwner(tx, sr, "Car Picked Up",
				"Your car has been picked up by the driver and is on its way to the garage.")
		},
	})
}

// DeliverToGarage hands the car to an approved garage and starts the service.
func (e *Engine) DeliverToGarage(ctx context.Context, p *auth.Principal, id, garageID uint) (*models.ServiceRequest, error) {
	return e.advance(ctx, p, id, step{
		name:          "deliver_to_garage",
		from:          models.StatusPickedUp,
		statusMessage: "Car must be picked up first",
		guard:         "assigned_garage_id IS NULL",
		authorize:     requireAssignedDriver,
		apply: func(tx *gorm.DB, sr *models.ServiceRequest) (map[string]any, error) {
			if garageID == 0 {
				return nil, apperr.Field("garage_id", "This field is required.")
			}
			var garage models.Garage
			err := tx.Where("id = ? AND status = ?", garageID, models.ApprovalApproved).First(&garage).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Garage not found")
			}
			if err != nil {
				return nil, err
			}
			sr.AssignedGarageID = &garage.ID
			sr.AssignedGarage = &garage
			return map[string]any{"assigned_garage_id": garage.ID}, nil
		},
		notify: func(tx *gorm.DB, sr *models.ServiceRequest) error {
			msg := fmt.Sprintf("A %s has been delivered for %s.", sr.Car.Label(), serviceLabel(sr.ServiceType))
			if err := notifyGarage(tx, sr, "New Car Arrived", msg); err != nil {
				return err
			}
			return notifyOwner(tx, sr, "Car At Garage",
				fmt.Sprintf("Your car has arrived at %s and service has begun.", sr.AssignedGarage.Name))
		},
	})
}

// CompleteService closes the ledger. It refuses a request without work items.
func (e *Engine) CompleteService(ctx context.Context, p *auth.Principal, id uint) (*models.ServiceRequest, error) {
	return e.advance(ctx, p, id, step{
		name:          "complete_service",
		from:          models.StatusInService,
		statusMessage: msgServiceNotRunning,
		authorize: func(p *auth.Principal, sr *models.ServiceRequest) error {
			return requireAssignedGarage(p, sr, "Only garages can complete services")
		},
		apply: func(tx *gorm.DB, sr *models.ServiceRequest) (map[string]any, error) {
			// The claim above holds the row, so no item can be added
			// between this read and the commit.
			items, err := loadWorkItems(tx, sr.ID)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, apperr.MissingData(msgNoWorkItems)
			}
			sr.GarageCost, sr.TotalCost = costsOf(items)
			return map[string]any{"garage_cost": sr.GarageCost, "total_cost": sr.TotalCost}, nil
		},
		notify: func(tx *gorm.DB, sr *models.ServiceRequest) error {
			if err := notifyMechanic(tx, sr, "Service Complete",
				fmt.Sprintf("The service for %s is complete. Please pick up and return to owner.", sr.Car.Label())); err != nil {
				return err
			}
			return notifyOwner(tx, sr, "Service Complete",
				fmt.Sprintf("Your car service has been completed! Total cost: KSH %s. The driver will return your car soon.",
					sr.TotalCost.StringFixed(2)))
		},
	})
}

func (e *Engine) ReturnToOwner(ctx context.Context, p *auth.Principal, id uint) (*models.ServiceRequest, error) {
	return e.advance(ctx, p, id, step{
		name:          "return_to_owner",
		from:          models.StatusCompleted,
		statusMessage: "Service must be completed first",
		authorize:     requireAssignedDriver,
		notify: func(tx *gorm.DB, sr *models.ServiceRequest) error {
			return notifyOwner(tx, sr, "Car Returned",
				"Your car has been returned. Thank you for using SwiftServe!")
		},
	})
}

func requireAssignedDriver(p *auth.Principal, sr *models.ServiceRequest) error {
	if !p.IsDriver() {
		return apperr.Forbidden(msgOnlyDrivers)
	}
	if sr.AssignedMechanicID == nil || *sr.AssignedMechanicID != p.DriverID {
		return apperr.Forbidden(msgNotAssigned)
	}
	return nil
}

func requireAssignedGarage(p *auth.Principal, sr *models.ServiceRequest, roleMessage string) error {
	if !p.IsGarage() {
		return apperr.Forbidden(roleMessage)
	}
	if sr.AssignedGarageID == nil || *sr.AssignedGarageID != p.GarageID {
		return apperr.Forbidden(msgNotAtYourGarage)
	}
	return nil
}

func loadRequest(tx *gorm.DB, id uint) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := tx.Preload("Car").First(&sr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgRequestNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
