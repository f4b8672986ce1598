package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

func TestWorkItemInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		in     WorkItemInput
		fields map[string]string
	}{
		{"both missing", WorkItemInput{}, map[string]string{
			"description": "Description is required",
			"cost":        "Cost is required",
		}},
		{"blank description", WorkItemInput{Description: "  ", Cost: "10"}, map[string]string{
			"description": "Description is required",
		}},
		{"null cost", WorkItemInput{Description: "Oil", Cost: "null"}, map[string]string{"cost": "Cost is required"}},
		{"malformed cost", WorkItemInput{Description: "Oil", Cost: "five"}, map[string]string{"cost": "Invalid cost value"}},
		{"zero cost", WorkItemInput{Description: "Oil", Cost: "0"}, map[string]string{"cost": "Cost must be greater than zero"}},
		{"negative cost", WorkItemInput{Description: "Oil", Cost: "-20"}, map[string]string{"cost": "Cost must be greater than zero"}},
		{"sub-cent cost", WorkItemInput{Description: "Oil", Cost: "10.005"}, map[string]string{"cost": "Cost can have at most 2 decimal places"}},
		{"huge cost", WorkItemInput{Description: "Oil", Cost: "100000000"}, map[string]string{"cost": "Cost is too large"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.in.parse()
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.fields, appErr.Fields)
		})
	}

	description, cost, err := WorkItemInput{Description: " Wheel alignment ", Cost: "2500.50"}.parse()
	require.NoError(t, err)
	assert.Equal(t, "Wheel alignment", description)
	assert.Equal(t, "2500.50", cost.StringFixed(2))
}

func TestAddWorkItemChecks(t *testing.T) {
	f := newFixture(t)
	sr := f.inService()

	_, _, err := f.engine.AddWorkItem(f.ctx, f.driverA, sr.ID, WorkItemInput{Description: "x", Cost: "1"})
	assertKind(t, err, apperr.KindForbidden, "Only garages can add work items")

	_, _, err = f.engine.AddWorkItem(f.ctx, f.rival, sr.ID, WorkItemInput{Description: "x", Cost: "1"})
	assertKind(t, err, apperr.KindForbidden, "This request is not at your garage")

	_, _, err = f.engine.AddWorkItem(f.ctx, f.garage, sr.ID, WorkItemInput{Description: "", Cost: "abc"})
	assertKind(t, err, apperr.KindValidation, "")

	item, updated, err := f.engine.AddWorkItem(f.ctx, f.garage, sr.ID, WorkItemInput{Description: "Spark plugs", Cost: "1200.25"})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, sr.ID, item.ServiceRequestID)
	assert.Equal(t, "1200.25", updated.GarageCost.StringFixed(2))
	assert.Equal(t, "1960.26", updated.TotalCost.StringFixed(2))
}

func TestRemoveWorkItemRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	sr := f.inService()
	f.addItem(sr.ID, "Suspension bushings", "20000")
	sr = f.addItem(sr.ID, "Alignment", "5000")
	require.Len(t, sr.WorkItems, 2)
	assert.Equal(t, "25000.00", sr.GarageCost.StringFixed(2))
	assert.Equal(t, "26950.00", sr.TotalCost.StringFixed(2))

	sr, err := f.engine.RemoveWorkItem(f.ctx, f.garage, sr.ID, sr.WorkItems[1].ID)
	require.NoError(t, err)
	assert.Len(t, sr.WorkItems, 1)
	assert.Equal(t, "20000.00", sr.GarageCost.StringFixed(2))
	assert.Equal(t, "21700.00", sr.TotalCost.StringFixed(2))

	var stored models.ServiceRequest
	require.NoError(t, f.db.First(&stored, sr.ID).Error)
	assert.Equal(t, "21700.00", stored.TotalCost.StringFixed(2), "persisted total must match")

	last := sr.WorkItems[0].ID
	sr, err = f.engine.RemoveWorkItem(f.ctx, f.garage, sr.ID, last)
	require.NoError(t, err)
	assert.Empty(t, sr.WorkItems)
	assert.Equal(t, "0.00", sr.GarageCost.StringFixed(2))
	assert.Equal(t, "700.00", sr.TotalCost.StringFixed(2))
}

func TestRemoveWorkItemMustBelongToRequest(t *testing.T) {
	f := newFixture(t)
	first := f.inService()
	second := f.inService()
	other := f.addItem(second.ID, "Battery", "9000")

	_, err := f.engine.RemoveWorkItem(f.ctx, f.garage, first.ID, other.WorkItems[0].ID)
	assertKind(t, err, apperr.KindNotFound, "Work item not found")

	_, err = f.engine.RemoveWorkItem(f.ctx, f.garage, first.ID, 0)
	assertKind(t, err, apperr.KindValidation, "")

	_, err = f.engine.RemoveWorkItem(f.ctx, f.rival, second.ID, other.WorkItems[0].ID)
	assertKind(t, err, apperr.KindForbidden, "This request is not at your garage")
}

func TestRemoveWorkItemAfterCompletion(t *testing.T) {
	f := newFixture(t)
	sr := f.inService()
	sr = f.addItem(sr.ID, "Radiator flush", "4000")
	itemID := sr.WorkItems[0].ID
	_, err := f.engine.CompleteService(f.ctx, f.garage, sr.ID)
	require.NoError(t, err)

	_, err = f.engine.RemoveWorkItem(f.ctx, f.garage, sr.ID, itemID)
	assertKind(t, err, apperr.KindWrongStatus, "Can only remove work items when service is in progress")

	var count int64
	f.db.Model(&models.WorkItem{}).Where("service_request_id = ?", sr.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
