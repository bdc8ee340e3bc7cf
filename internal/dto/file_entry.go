package dto

import (
	"time"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

// FileEntryRequest creates or replaces a file's editable fields.
type FileEntryRequest struct {
	FileNo            string              `json:"fileNo" validate:"required"`
	ApplicantName     string              `json:"applicantName" validate:"required"`
	PhoneNo           string              `json:"phoneNo"`
	ApplicationType   string              `json:"applicationType"`
	FileStatus        string              `json:"fileStatus"`
	Remarks           string              `json:"remarks"`
	RemittanceDetails []models.Remittance `json:"remittanceDetails" validate:"dive"`
	PaymentDetails    []models.Payment    `json:"paymentDetails" validate:"dive"`
	SiteDetails       []models.SiteDetail `json:"siteDetails" validate:"dive"`
	// UpdatedAt, when set on a replace, must match the stored value.
	UpdatedAt         *time.Time          `json:"updatedAt,omitempty"`
}

// FileEntryQuery filters the file list.
type FileEntryQuery struct {
	Search   string
	Page     int
	PageSize int
}

// AssignSupervisorRequest sets or clears a site's supervisor.
type AssignSupervisorRequest struct {
	SupervisorUID *string `json:"supervisorUid"`
}

// AssignedSite flattens a site with the file it belongs to.
type AssignedSite struct {
	FileNo        string            `json:"fileNo"`
	ApplicantName string            `json:"applicantName"`
	Site          models.SiteDetail `json:"site"`
	HasPending    bool              `json:"hasPendingUpdate"`
}
