package finance

import (
	"fmt"

	"studiodesk/internal/models"
)

const (
	ActionConfirm  = "confirm"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
	ActionEdit     = "edit"
)

var transitionMap = map[string][]string{
	ActionConfirm:  {models.StatusPending},
	ActionCancel:   {models.StatusPending, models.StatusConfirmed},
	ActionComplete: {models.StatusPending, models.StatusConfirmed},
	ActionEdit:     {models.StatusPending, models.StatusConfirmed},
}

var targetStatus = map[string]string{
	ActionConfirm:  models.StatusConfirmed,
	ActionCancel:   models.StatusCancelled,
	ActionComplete: models.StatusCompleted,
}

// ValidTransition reports whether action may run on a booking in fromStatus.
func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	fromStatus = NormalizeStatus(fromStatus)
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// CheckTransition explains why action is not allowed, or returns nil.
func CheckTransition(action, fromStatus string) error {
	if _, ok := transitionMap[action]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	fromStatus = NormalizeStatus(fromStatus)
	if models.IsTerminal(fromStatus) {
		return fmt.Errorf("%w: %s %s booking", ErrTerminalStatus, action, fromStatus)
	}
	if !ValidTransition(action, fromStatus) {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, fromStatus)
	}
	return nil
}

// ApplyTransition returns the status patch for a status-changing action.
// A rejected action yields an empty patch and an error.
func ApplyTransition(b models.Booking, action string) (models.BookingPatch, error) {
	if err := CheckTransition(action, b.Status); err != nil {
		return models.BookingPatch{}, err
	}
	target, ok := targetStatus[action]
	if !ok {
		return models.BookingPatch{}, fmt.Errorf("%w: %q changes no status", ErrUnknownAction, action)
	}
	return models.BookingPatch{Status: &target}, nil
}
