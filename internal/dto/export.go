package dto

import "github.com/noah-isme/gwd-records-api/internal/models"

// ExportRequest selects a dataset and format.
type ExportRequest struct {
	Dataset models.ExportDataset `json:"dataset" validate:"required,oneof=sites files pending-updates"`
	Format  models.ExportFormat  `json:"format" validate:"required,oneof=xlsx csv"`
	FileNo  string               `json:"fileNo"`
	Status  string               `json:"status"`
}
