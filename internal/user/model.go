package user

type Role string

const (
	RoleSeller  Role = "seller"
	RolePrinter Role = "printer"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSeller, RolePrinter, RoleAdmin:
		return true
	}
	return false
}

// Actor is the pre-validated identity threaded into every core call.
// It is built by the auth middleware and never read from global state.
type Actor struct {
	Username string
	Name     string
	Role     Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
