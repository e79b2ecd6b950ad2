package policy

import "anoa.com/taskmanager/internal/entity"

// ProjectSubject is a project together with the caller-resolved membership of the actor.
type ProjectSubject struct {
	Project *entity.Project
	// HasAssignedTask is true when the actor is assignee of at least one task in Project.
	HasAssignedTask bool
}

func (s ProjectSubject) createdBy(actor Actor) bool {
	return s.Project != nil && s.Project.CreatorID == actor.ID
}

var projectRules = map[Action]Rule[ProjectSubject]{
	ActionView:       AdminBypass(viewProject),
	ActionUpdate:     AdminBypass(ownProject("only the project creator can update this project")),
	ActionDelete:     AdminBypass(ownProject("only the project creator can delete this project")),
	ActionCreateTask: AdminBypass(ownProject("only the project creator can add tasks to this project")),
}

func viewProject(actor Actor, s ProjectSubject) Decision {
	if s.createdBy(actor) || s.HasAssignedTask {
		return Allow()
	}
	return Deny("unauthorized to view this project")
}

func ownProject(reason string) Rule[ProjectSubject] {
	return func(actor Actor, s ProjectSubject) Decision {
		if s.createdBy(actor) {
			return Allow()
		}
		return Deny(reason)
	}
}
