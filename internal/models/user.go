package models

import "time"

// UserRole represents the staff roles known to the records system.
type UserRole string

const (
	RoleEditor     UserRole = "EDITOR"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleViewer     UserRole = "VIEWER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleEditor, RoleSupervisor, RoleViewer:
		return true
	}
	return false
}

// User is a staff member. Credentials live with the identity provider.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
