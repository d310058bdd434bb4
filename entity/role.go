package entity

// Role is the closed set of identities the service distinguishes.
// What each role may do is decided by internal/authz only.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSecurity:
		return Role(s), true
	}
	return "", false
}

func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSecurity
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserId string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
}

func (c *Caller) IsZero() bool {
	return c == nil || c.UserId == ""
}
