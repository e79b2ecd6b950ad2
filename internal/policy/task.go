package policy

import "anoa.com/taskmanager/internal/entity"

// Task rules read the parent project's creator, so the task must carry its Project.
var taskRules = map[Action]Rule[*entity.Task]{
	ActionView:   AdminBypass(creatorOrAssignee("unauthorized to view this task")),
	ActionUpdate: AdminBypass(creatorOrAssignee("unauthorized to update this task")),
	ActionDelete: AdminBypass(deleteTask),
}

func projectCreatedBy(t *entity.Task, actor Actor) bool {
	return t != nil && t.Project != nil && t.Project.CreatorID == actor.ID
}

func creatorOrAssignee(reason string) Rule[*entity.Task] {
	return func(actor Actor, t *entity.Task) Decision {
		if projectCreatedBy(t, actor) {
			return Allow()
		}
		if t != nil && t.IsAssignedTo(actor.ID) {
			return Allow()
		}
		return Deny(reason)
	}
}

func deleteTask(actor Actor, t *entity.Task) Decision {
	if projectCreatedBy(t, actor) {
		return Allow()
	}
	return Deny("only the project creator can delete this task")
}
