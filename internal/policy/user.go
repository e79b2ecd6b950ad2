package policy

import "anoa.com/taskmanager/internal/entity"

// User management is an admin-only resource. Its rules are not wrapped in AdminBypass:
// an administrator may not update or delete their own account through it.
var userRules = map[Action]Rule[*entity.User]{
	ActionView:   func(Actor, *entity.User) Decision { return Allow() },
	ActionUpdate: manageOtherUser("you cannot update your own account through user management"),
	ActionDelete: manageOtherUser("you cannot delete your own account through user management"),
}

var userCollectionRules = map[Action]Rule[UserResource]{
	ActionCreate: func(actor Actor, _ UserResource) Decision {
		if actor.IsAdmin() {
			return Allow()
		}
		return Deny("only administrators can create users")
	},
}

func manageOtherUser(selfReason string) Rule[*entity.User] {
	return func(actor Actor, target *entity.User) Decision {
		if !actor.IsAdmin() {
			return Deny("administrator role required")
		}
		if target == nil || target.ID == actor.ID {
			return Deny(selfReason)
		}
		return Allow()
	}
}
