package models

import "time"

// ExportDataset names what an export contains.
type ExportDataset string

const (
	ExportDatasetSites          ExportDataset = "sites"
	ExportDatasetFiles          ExportDataset = "files"
	ExportDatasetPendingUpdates ExportDataset = "pending-updates"
)

// ExportFormat is the rendered file type.
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
)

// ExportResult points at a stored export and its signed download link.
type ExportResult struct {
	ID          string        `json:"id"`
	Dataset     ExportDataset `json:"dataset"`
	Format      ExportFormat  `json:"format"`
	ObjectName  string        `json:"-"`
	DownloadURL string        `json:"downloadUrl"`
	Rows        int           `json:"rows"`
	ExpiresAt   time.Time     `json:"expiresAt"`
}
