package users

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
)

func TestAuthorize(t *testing.T) {
	admin := auth.Principal{UserID: "a", Role: auth.RoleAdmin, Status: auth.StatusActive}
	officer := auth.Principal{UserID: "o", Role: auth.RoleOfficer, Status: auth.StatusActive}
	student := auth.Principal{UserID: "s", Role: auth.RoleStudent, Status: auth.StatusActive}
	pendingAdmin := auth.Principal{UserID: "pa", Role: auth.RoleAdmin, Status: auth.StatusPending}

	pendingUser := User{ID: "p", Role: auth.RoleOfficer, Status: auth.StatusPending}
	activeStudent := User{ID: "st", Role: auth.RoleStudent, Status: auth.StatusActive}
	activeOfficer := User{ID: "of", Role: auth.RoleOfficer, Status: auth.StatusActive}
	adminUser := User{ID: "ad", Role: auth.RoleAdmin, Status: auth.StatusActive}

	tests := []struct {
		name    string
		p       auth.Principal
		action  Action
		target  User
		grant   auth.Role
		allowed bool
	}{
		{"admin lists", admin, ActionList, User{}, "", true},
		{"officer lists", officer, ActionList, User{}, "", true},
		{"student cannot list", student, ActionList, User{}, "", false},
		{"inactive admin cannot list", pendingAdmin, ActionList, User{}, "", false},

		{"admin approves student", admin, ActionApprove, pendingUser, auth.RoleStudent, true},
		{"admin approves officer", admin, ActionApprove, pendingUser, auth.RoleOfficer, true},
		{"admin cannot grant admin", admin, ActionApprove, pendingUser, auth.RoleAdmin, false},
		{"officer approves student", officer, ActionApprove, pendingUser, auth.RoleStudent, true},
		{"officer cannot approve officer", officer, ActionApprove, pendingUser, auth.RoleOfficer, false},
		{"officer cannot demote officer", officer, ActionApprove, activeOfficer, auth.RoleStudent, false},
		{"student cannot approve", student, ActionApprove, pendingUser, auth.RoleStudent, false},
		{"nobody approves an admin", admin, ActionApprove, adminUser, auth.RoleStudent, false},

		{"admin archives officer", admin, ActionArchive, activeOfficer, "", true},
		{"admin cannot archive admin", admin, ActionArchive, adminUser, "", false},
		{"officer archives student", officer, ActionArchive, activeStudent, "", true},
		{"officer archives pending", officer, ActionArchive, pendingUser, "", true},
		{"officer cannot archive officer", officer, ActionArchive, activeOfficer, "", false},
		{"officer cannot delete admin", officer, ActionDelete, adminUser, "", false},
		{"officer deletes student", officer, ActionDelete, activeStudent, "", true},
		{"student cannot delete", student, ActionDelete, activeStudent, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.p, tt.action, tt.target, tt.grant)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrForbidden)
		})
	}
}
