package policy

import (
	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/metrics"
)

// Enforce runs Authorize and returns the denial as an error, counting it in the denial metric.
func Enforce(actor Actor, action Action, target any) error {
	d := Authorize(actor, action, target)
	if d.Allowed {
		return nil
	}
	metrics.PolicyDenialsTotal.WithLabelValues(resourceName(target), string(action)).Inc()
	return d.Err()
}

func resourceName(target any) string {
	switch target.(type) {
	case ProjectSubject:
		return "project"
	case *entity.Task:
		return "task"
	case *entity.User, UserResource:
		return "user"
	default:
		return "unknown"
	}
}
