package appointment

import "klinika/models"

var transitions = map[string][]string{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
}

func ValidStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from one status to another.
// Keeping the current status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Remindable reports whether reminders may still be sent in the given status.
func Remindable(status string) bool {
	return status == models.StatusPending || status == models.StatusConfirmed
}
