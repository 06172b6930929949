package auth

import "github.com/pwronski/go-taskboard/internal/models"

// Action is an operation an identity may request on tasks.
type Action string

const (
	ActionCreate  Action = "create"
	ActionReadOwn Action = "read-own"
	ActionReadAll Action = "read-all"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// Allow reports whether the identity may perform action on a task owned by
// ownerID. ownerID is empty for actions that target no single task.
// Rules: any authenticated identity may create; admins may do everything;
// everyone else only touches their own tasks.
func Allow(identity Identity, action Action, ownerID string) bool {
	switch action {
	case ActionCreate:
		return true
	case ActionReadAll:
		return identity.Role == models.RoleAdmin
	case ActionReadOwn, ActionUpdate, ActionDelete:
		return identity.Role == models.RoleAdmin || identity.UserID == ownerID
	default:
		return false
	}
}
