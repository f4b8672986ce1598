package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/lifecycle"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

type ServiceRequestInput struct {
	Car                 uint   `json:"car"`
	PickupLocation      string `json:"pickup_location"`
	PreferredDate       string `json:"preferred_date"`
	PreferredTime       string `json:"preferred_time"`
	ServiceType         string `json:"service_type"`
	SpecialInstructions string `json:"special_instructions"`
}

type DeliverInput struct {
	GarageID uint `json:"garage_id"`
}

type AssignMechanicInput struct {
	MechanicID uint `json:"mechanic_id"`
}

// WorkItemInput keeps cost raw so both "1500.50" and 1500.50 are accepted
// and a malformed amount is reported against the cost field.
type WorkItemInput struct {
	Description string          `json:"description"`
	Cost        json.RawMessage `json:"cost"`
}

func (in WorkItemInput) costText() string {
	var s string
	if err := json.Unmarshal(in.Cost, &s); err == nil {
		return s
	}
	return string(in.Cost)
}

type RemoveWorkItemInput struct {
	WorkItemID uint `json:"work_item_id"`
}

type transitionFunc func(ctx context.Context, p *auth.Principal, id uint) (*models.ServiceRequest, error)

// transition runs a bodiless lifecycle step and returns the updated request.
func transition(fn transitionFunc, message string) gin.HandlerFunc {
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
		sr, err := fn(c.Request.Context(), p, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "service_request": sr})
	}
}

func ListServiceRequests(engine *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		requests, err := engine.List(c.Request.Context(), p)
		if err != nil {
			respondError(c, err)
			return
		}
		if requests == nil {
			requests = []models.ServiceRequest{}
		}
		c.JSON(http.StatusOK, requests)
	}
}

func GetServiceRequest(engine *lifecycle.Engine) gin.HandlerFunc {
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
		sr, err := engine.Get(c.Request.Context(), p, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sr)
	}
}

func CreateServiceRequest(engine *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var input ServiceRequestInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		sr, err := engine.Create(c.Request.Context(), p, lifecycle.CreateInput{
			CarID:               input.Car,
			PickupLocation:      input.PickupLocation,
			PreferredDate:       input.PreferredDate,
			PreferredTime:       input.PreferredTime,
			ServiceType:         input.ServiceType,
			SpecialInstructions: input.SpecialInstructions,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sr)
	}
}

func AcceptJob(engine *lifecycle.Engine) gin.HandlerFunc {
	return transition(engine.AcceptJob, "Job accepted successfully")
}

func PickupCar(engine *lifecycle.Engine) gin.HandlerFunc {
	return transition(engine.PickupCar, "Car picked up successfully")
}

func ReturnToOwner(engine *lifecycle.Engine) gin.HandlerFunc {
	return transition(engine.ReturnToOwner, "Car returned to owner successfully")
}

func DeliverToGarage(engine *lifecycle.Engine) gin.HandlerFunc {
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
		var input DeliverInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		sr, err := engine.DeliverToGarage(c.Request.Context(), p, id, input.GarageID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Car delivered to garage successfully", "service_request": sr})
	}
}

func AssignMechanic(engine *lifecycle.Engine) gin.HandlerFunc {
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
		var input AssignMechanicInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		sr, err := engine.AssignMechanic(c.Request.Context(), p, id, input.MechanicID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Mechanic assigned successfully", "service_request": sr})
	}
}

func AddWorkItem(engine *lifecycle.Engine) gin.HandlerFunc {
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
		var input WorkItemInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		item, sr, err := engine.AddWorkItem(c.Request.Context(), p, id, lifecycle.WorkItemInput{
			Description: input.Description,
			Cost:        input.costText(),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":         "Work item added successfully",
			"work_item":       item,
			"garage_cost":     sr.GarageCost.StringFixed(2),
			"total_cost":      sr.TotalCost.StringFixed(2),
			"service_request": sr,
		})
	}
}

// RemoveWorkItem takes work_item_id from the DELETE body, or from the
// query string for clients that cannot send one.
func RemoveWorkItem(engine *lifecycle.Engine) gin.HandlerFunc {
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
		var input RemoveWorkItemInput
		if err := bindJSON(c, &input); err != nil {
			respondError(c, err)
			return
		}
		if input.WorkItemID == 0 {
			if v, err := strconv.ParseUint(c.Query("work_item_id"), 10, 64); err == nil {
				input.WorkItemID = uint(v)
			}
		}
		sr, err := engine.RemoveWorkItem(c.Request.Context(), p, id, input.WorkItemID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":         "Work item removed",
			"garage_cost":     sr.GarageCost.StringFixed(2),
			"total_cost":      sr.TotalCost.StringFixed(2),
			"service_request": sr,
		})
	}
}

func CompleteService(engine *lifecycle.Engine) gin.HandlerFunc {
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
		sr, err := engine.CompleteService(c.Request.Context(), p, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":         "Service marked as complete",
			"garage_cost":     sr.GarageCost.StringFixed(2),
			"total_cost":      sr.TotalCost.StringFixed(2),
			"service_request": sr,
		})
	}
}

func ServiceRequestEarnings(engine *lifecycle.Engine) gin.HandlerFunc {
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
		earnings, err := engine.Earnings(c.Request.Context(), p, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, earnings)
	}
}
