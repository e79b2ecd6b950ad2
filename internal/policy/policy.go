// Package policy decides which actor may perform which action on projects, tasks and users.
//
// Every function in this package is a pure predicate: callers load whatever state a rule needs
// (for example project membership) and pass it in the target.
package policy

import (
	"fmt"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
)

type Action string

const (
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionCreateTask Action = "createTask"
)

// Actor is the authenticated caller a decision is made for.
type Actor struct {
	ID   uuid.UUID
	Role entity.Role
}

// ActorFromUser builds an Actor from a stored user.
func ActorFromUser(u *entity.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

// Decision is the outcome of a policy check. Reason is only set on denials.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into an error wrapping apperror.ErrForbidden.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == "" {
		return apperror.ErrForbidden
	}
	return fmt.Errorf("%s: %w", d.Reason, apperror.ErrForbidden)
}

// Rule evaluates one action on one kind of target.
type Rule[T any] func(actor Actor, target T) Decision

// AdminBypass wraps rule so that administrators are allowed before rule runs.
func AdminBypass[T any](rule Rule[T]) Rule[T] {
	return func(actor Actor, target T) Decision {
		if actor.IsAdmin() {
			return Allow()
		}
		return rule(actor, target)
	}
}

// UserResource is the target for actions on the user collection itself (create).
type UserResource struct{}

// Authorize dispatches to the rule registered for the target's type and action.
// Unknown target types or actions are denied.
func Authorize(actor Actor, action Action, target any) Decision {
	switch t := target.(type) {
	case ProjectSubject:
		return evaluate(projectRules, actor, action, t)
	case *entity.Task:
		return evaluate(taskRules, actor, action, t)
	case *entity.User:
		return evaluate(userRules, actor, action, t)
	case UserResource:
		return evaluate(userCollectionRules, actor, action, t)
	default:
		return Deny(fmt.Sprintf("no policy for target %T", target))
	}
}

// Can is the boolean form of Authorize.
func Can(actor Actor, action Action, target any) bool {
	return Authorize(actor, action, target).Allowed
}

func evaluate[T any](rules map[Action]Rule[T], actor Actor, action Action, target T) Decision {
	rule, ok := rules[action]
	if !ok {
		return Deny(fmt.Sprintf("action %q is not supported", action))
	}
	return rule(actor, target)
}
