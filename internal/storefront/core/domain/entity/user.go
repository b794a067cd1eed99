package entity

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleOwner  Role = "OWNER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleOwner
}

type User struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Session is the authentication state of the running client.
// A zero Session is unauthenticated.
type Session struct {
	Token string
	User  *User
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

// HasRole reports whether the session belongs to an authenticated user with role r.
func (s Session) HasRole(r Role) bool {
	return s.User != nil && s.User.Role == r
}
