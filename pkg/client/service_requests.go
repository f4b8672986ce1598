package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/swiftserve/swiftserve-backend/internal/lifecycle"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

type ServiceRequestInput struct {
	Car                 uint   `json:"car"`
	PickupLocation      string `json:"pickup_location"`
	PreferredDate       string `json:"preferred_date"`
	PreferredTime       string `json:"preferred_time"`
	ServiceType         string `json:"service_type"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// WorkItemResult is the garage's view after a ledger change.
type WorkItemResult struct {
	WorkItem       *models.WorkItem      `json:"work_item,omitempty"`
	GarageCost     decimal.Decimal       `json:"garage_cost"`
	TotalCost      decimal.Decimal       `json:"total_cost"`
	ServiceRequest models.ServiceRequest `json:"service_request"`
}

func requestPath(id uint, action string) string {
	if action == "" {
		return fmt.Sprintf("/api/service-requests/%d/", id)
	}
	return fmt.Sprintf("/api/service-requests/%d/%s/", id, action)
}

func (c *Client) ServiceRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	err := c.get(ctx, "/api/service-requests/", &out)
	return out, err
}

func (c *Client) ServiceRequest(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var out models.ServiceRequest
	if err := c.get(ctx, requestPath(id, ""), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateServiceRequest(ctx context.Context, in ServiceRequestInput) (*models.ServiceRequest, error) {
	var out models.ServiceRequest
	if err := c.post(ctx, "/api/service-requests/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) transition(ctx context.Context, id uint, action string, in any) (*models.ServiceRequest, error) {
	var out struct {
		ServiceRequest models.ServiceRequest `json:"service_request"`
	}
	if err := c.post(ctx, requestPath(id, action), in, &out); err != nil {
		return nil, err
	}
	return &out.ServiceRequest, nil
}

func (c *Client) AcceptJob(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	return c.transition(ctx, id, "accept_job", nil)
}

func (c *Client) AssignMechanic(ctx context.Context, id, mechanicID uint) (*models.ServiceRequest, error) {
	return c.transition(ctx, id, "assign_mechanic", map[string]uint{"mechanic_id": mechanicID})
}

func (c *Client) PickupCar(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	return c.transition(ctx, id, "pickup_car", nil)
}

func (c *Client) DeliverToGarage(ctx context.Context, id, garageID uint) (*models.ServiceRequest, error) {
	return c.transition(ctx, id, "deliver_to_garage", map[string]uint{"garage_id": garageID})
}

func (c *Client) CompleteService(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	return c.transition(ctx, id, "complete_service", nil)
}

func (c *Client) ReturnToOwner(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	return c.transition(ctx, id, "return_to_owner", nil)
}

func (c *Client) AddWorkItem(ctx context.Context, id uint, description string, cost decimal.Decimal) (*WorkItemResult, error) {
	in := map[string]string{"description": description, "cost": cost.String()}
	var out WorkItemResult
	if err := c.post(ctx, requestPath(id, "add_work_item"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveWorkItem(ctx context.Context, id, workItemID uint) (*WorkItemResult, error) {
	var out WorkItemResult
	err := c.mutate(ctx, http.MethodDelete, requestPath(id, "remove_work_item"), map[string]uint{"work_item_id": workItemID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Earnings(ctx context.Context, id uint) (*lifecycle.Earnings, error) {
	var out lifecycle.Earnings
	if err := c.get(ctx, requestPath(id, "earnings"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
