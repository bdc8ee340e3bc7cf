package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionFileCreate            = "FILE_CREATE"
	AuditActionFileUpdate            = "FILE_UPDATE"
	AuditActionSupervisorAssign      = "SUPERVISOR_ASSIGN"
	AuditActionPendingUpdateSubmit   = "PENDING_UPDATE_SUBMIT"
	AuditActionPendingUpdateApprove  = "PENDING_UPDATE_APPROVE"
	AuditActionPendingUpdateReject   = "PENDING_UPDATE_REJECT"
	AuditActionPendingUpdateOrphaned = "PENDING_UPDATE_ORPHANED"
	AuditActionUserCreate            = "USER_CREATE"
	AuditActionUserRoleChange        = "USER_ROLE_CHANGE"
	AuditActionExportCreate          = "EXPORT_CREATE"
	AuditActionExportDownload        = "EXPORT_DOWNLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
