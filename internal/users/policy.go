package users

import (
	"eventhub/internal/apperr"
	"eventhub/internal/auth"
)

// Action is a user-management operation subject to Authorize.
type Action string

const (
	ActionList    Action = "list"
	ActionApprove Action = "approve"
	ActionArchive Action = "archive"
	ActionDelete  Action = "delete"
)

// Authorize is the single permission check for the approval workflow.
// target is ignored for ActionList; grant is only read for ActionApprove.
//
//	admin:   approve into student or officer; archive/delete any non-admin
//	officer: approve into student only; archive/delete students or pending users
//	others:  nothing
func Authorize(p auth.Principal, action Action, target User, grant auth.Role) error {
	if !p.HasRole(auth.RoleAdmin, auth.RoleOfficer) {
		return apperr.Forbidden("access denied")
	}
	if action == ActionList {
		return nil
	}
	if target.Role == auth.RoleAdmin {
		return apperr.Forbidden("administrator accounts cannot be modified")
	}

	switch action {
	case ActionApprove:
		if grant != auth.RoleStudent && grant != auth.RoleOfficer {
			return apperr.Forbidden("role cannot be granted")
		}
		if p.Role == auth.RoleAdmin {
			return nil
		}
		if grant != auth.RoleStudent {
			return apperr.Forbidden("only administrators can approve officers")
		}
		if !officerCanManage(target) {
			return apperr.Forbidden("officers can only manage students and pending users")
		}
		return nil
	case ActionArchive, ActionDelete:
		if p.Role == auth.RoleAdmin {
			return nil
		}
		if !officerCanManage(target) {
			return apperr.Forbidden("officers can only manage students and pending users")
		}
		return nil
	}
	return apperr.Forbidden("unknown action")
}

func officerCanManage(target User) bool {
	return target.Status == auth.StatusPending || target.Role == auth.RoleStudent
}
