package lifecycle

import "github.com/swiftserve/swiftserve-backend/internal/models"

// transitions maps each status to the only status it may move to.
var transitions = map[models.ServiceStatus]models.ServiceStatus{
	models.StatusPending:   models.StatusAssigned,
	models.StatusAssigned:  models.StatusPickedUp,
	models.StatusPickedUp:  models.StatusInService,
	models.StatusInService: models.StatusCompleted,
	models.StatusCompleted: models.StatusDelivered,
}

// Next returns the status that follows current. ok is false for delivered
// and for unknown values.
func Next(current models.ServiceStatus) (next models.ServiceStatus, ok bool) {
	next, ok = transitions[current]
	return next, ok
}

// CanTransition reports whether the lifecycle allows moving from current
// to next. Staying in place, skipping and going back are all refused.
func CanTransition(current, next models.ServiceStatus) bool {
	allowed, ok := transitions[current]
	return ok && allowed == next
}

func IsTerminal(status models.ServiceStatus) bool {
	_, ok := transitions[status]
	return !ok && status == models.StatusDelivered
}
