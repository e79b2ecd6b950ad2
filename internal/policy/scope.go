package policy

import "github.com/google/uuid"

// ProjectScope restricts a project listing. A zero MemberID with All unset matches nothing.
type ProjectScope struct {
	All bool
	// MemberID matches projects created by this user or holding a task assigned to them.
	MemberID uuid.UUID
}

// TaskScope restricts a task listing or summary.
type TaskScope struct {
	All bool
	// AssigneeID matches only tasks assigned to this user.
	AssigneeID *uuid.UUID
	// VisibleTo matches tasks assigned to this user or in projects they created.
	VisibleTo *uuid.UUID
}

// ScopeProjects returns the projects actor may list.
func ScopeProjects(actor Actor) ProjectScope {
	if actor.IsAdmin() {
		return ProjectScope{All: true}
	}
	return ProjectScope{MemberID: actor.ID}
}

// ScopeTasks returns the tasks actor may list. userID is only honoured for administrators.
func ScopeTasks(actor Actor, userID *uuid.UUID) TaskScope {
	if actor.IsAdmin() {
		if userID != nil {
			id := *userID
			return TaskScope{AssigneeID: &id}
		}
		return TaskScope{All: true}
	}
	id := actor.ID
	return TaskScope{VisibleTo: &id}
}
