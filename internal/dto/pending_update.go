package dto

import (
	"github.com/noah-isme/gwd-records-api/internal/models"
)

// SubmitPendingUpdateRequest carries a supervisor's proposed site objects.
type SubmitPendingUpdateRequest struct {
	FileNo             string              `json:"fileNo" validate:"required"`
	UpdatedSiteDetails []models.SiteDetail `json:"updatedSiteDetails" validate:"required,min=1,dive"`
}

// RejectPendingUpdateRequest requires a reason the supervisor will see.
type RejectPendingUpdateRequest struct {
	Notes string `json:"notes" validate:"required"`
}

// PendingUpdateQuery mirrors supported listing filters.
type PendingUpdateQuery struct {
	FileNo   string
	Statuses []models.PendingUpdateStatus
	Mine     bool
	Limit    int
	Offset   int
}

// FieldChange is one differing field between the canonical and proposed site.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// SiteDiff lists the changes proposed for one site.
type SiteDiff struct {
	SiteID     string        `json:"siteId"`
	NameOfSite string        `json:"nameOfSite"`
	Changes    []FieldChange `json:"changes"`
}

// PendingUpdateReview is what an editor sees before deciding.
type PendingUpdateReview struct {
	Update *models.PendingUpdate `json:"update"`
	Sites  []SiteDiff            `json:"sites"`
}

// ApprovalResult returns the merged file and the approval context the editor
// view opens with.
type ApprovalResult struct {
	Update          *models.PendingUpdate `json:"update"`
	File            *models.FileEntry     `json:"file"`
	PendingUpdateID string                `json:"pendingUpdateId"`
}

// OrphanSweepRequest scopes a manual orphan sweep. Empty fields sweep everything.
type OrphanSweepRequest struct {
	SubmittedBy string `json:"submittedBy"`
	FileNo      string `json:"fileNo"`
}

// OrphanSweepResult lists updates moved to supervisor-unassigned.
type OrphanSweepResult struct {
	Transitioned []models.PendingUpdate `json:"transitioned"`
	Count        int                    `json:"count"`
}
