package auth

// Role is the privilege tier of an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// Status is the lifecycle state of an account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Principal is the authenticated actor behind a request. It is resolved from
// the user store on every request so role and status are never stale.
type Principal struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    Status `json:"status"`
	StudentID string `json:"studentId,omitempty"`
}

// Active reports whether the principal holds any privileges at all.
func (p Principal) Active() bool { return p.Status == StatusActive }

// HasRole reports whether p is active and holds one of roles.
func (p Principal) HasRole(roles ...Role) bool {
	if !p.Active() {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
