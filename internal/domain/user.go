package domain

// UserRole is a privileged attribute changed only through an explicit role update.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

// User is an account profile as stored under users/<uid>.
type User struct {
	UID         string   `json:"-"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"photoURL"`
	Role        UserRole `json:"role,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == UserRoleAdmin }
