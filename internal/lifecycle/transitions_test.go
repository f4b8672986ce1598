package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

func TestCanTransitionOnlyAllowsNextStep(t *testing.T) {
	order := models.AllStatuses
	for i, from := range order {
		for j, to := range order {
			want := j == i+1
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestNext(t *testing.T) {
	next, ok := Next(models.StatusInService)
	assert.True(t, ok)
	assert.Equal(t, models.StatusCompleted, next)

	_, ok = Next(models.StatusDelivered)
	assert.False(t, ok)

	_, ok = Next("cancelled")
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusDelivered))
	assert.False(t, IsTerminal(models.StatusCompleted))
	assert.False(t, IsTerminal("unknown"))
}
