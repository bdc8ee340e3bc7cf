package models

import "time"

// PendingUpdateStatus captures the review state of a supervisor proposal.
type PendingUpdateStatus string

const (
	PendingUpdateStatusPending              PendingUpdateStatus = "pending"
	PendingUpdateStatusApproved             PendingUpdateStatus = "approved"
	PendingUpdateStatusRejected             PendingUpdateStatus = "rejected"
	PendingUpdateStatusSupervisorUnassigned PendingUpdateStatus = "supervisor-unassigned"
)

// Valid reports whether s is a known status.
func (s PendingUpdateStatus) Valid() bool {
	switch s {
	case PendingUpdateStatusPending,
		PendingUpdateStatusApproved,
		PendingUpdateStatusRejected,
		PendingUpdateStatusSupervisorUnassigned:
		return true
	}
	return false
}

// PendingUpdate is one supervisor's proposed edit to sites of a file. Records
// are never deleted.
type PendingUpdate struct {
	ID                 string              `db:"id" json:"id"`
	FileNo             string              `db:"file_no" json:"fileNo"`
	SubmittedByUID     string              `db:"submitted_by_uid" json:"submittedByUid"`
	SubmittedByName    string              `db:"submitted_by_name" json:"submittedByName"`
	SubmittedAt        time.Time           `db:"submitted_at" json:"submittedAt"`
	UpdatedSiteDetails SiteDetails         `db:"updated_site_details" json:"updatedSiteDetails"`
	Status             PendingUpdateStatus `db:"status" json:"status"`
	Notes              *string             `db:"notes" json:"notes,omitempty"`
	ReviewedBy         *string             `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time          `db:"reviewed_at" json:"reviewedAt,omitempty"`
}

// TouchesSite reports whether the update proposes a change to the site with the given id.
func (p *PendingUpdate) TouchesSite(siteID string) bool {
	for _, site := range p.UpdatedSiteDetails {
		if site.ID != "" && site.ID == siteID {
			return true
		}
	}
	return false
}

// PendingUpdateFilter constrains registry queries. Empty fields match everything.
type PendingUpdateFilter struct {
	FileNo      string
	Statuses    []PendingUpdateStatus
	SubmittedBy string
	Limit       int
	Offset      int
}

// OrphanScope narrows an orphan sweep to one submitter or one file. The zero
// value sweeps every pending update.
type OrphanScope struct {
	SubmittedBy string
	FileNo      string
}

// PendingUpdateTransition is a conditional status change from pending.
type PendingUpdateTransition struct {
	ID         string
	Status     PendingUpdateStatus
	Notes      *string
	ReviewedBy *string
	ReviewedAt time.Time
}
