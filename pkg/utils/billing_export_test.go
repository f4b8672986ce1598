package utils_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/swiftserve/swiftserve-backend/pkg/utils"
)

// Callers only see the owner total through CalculateOwnerTotal, and a
// changed result never leaks into the next calculation.
func TestOwnerTotalCannotBeChangedByCallers(t *testing.T) {
	first := utils.CalculateOwnerTotal(decimal.NewFromInt(8000))
	first.TripFee = decimal.Zero
	first.ServiceFee = decimal.NewFromInt(1)

	again := utils.CalculateOwnerTotal(decimal.NewFromInt(8000))
	assert.Equal(t, "700.00", again.TripFee.StringFixed(2))
	assert.Equal(t, "400.00", again.ServiceFee.StringFixed(2))
	assert.Equal(t, "9100.00", again.TotalCost.StringFixed(2))
}
