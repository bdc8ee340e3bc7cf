package dto

import "github.com/noah-isme/gwd-records-api/internal/models"

// CreateUserRequest registers a staff member already known to the identity provider.
type CreateUserRequest struct {
	ID       string          `json:"id" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=EDITOR SUPERVISOR VIEWER"`
}

// ChangeRoleRequest moves a staff member to another role.
type ChangeRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=EDITOR SUPERVISOR VIEWER"`
}

// RoleChangeResult reports the side effects of a role change.
type RoleChangeResult struct {
	User              *models.User `json:"user"`
	SitesUnassigned   int          `json:"sitesUnassigned"`
	OrphanSweepQueued bool         `json:"orphanSweepQueued"`
}
