package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates the records view shown on the landing page.
type DashboardSummary struct {
	TotalFiles        int                         `json:"totalFiles"`
	TotalSites        int                         `json:"totalSites"`
	SitesByWorkStatus map[WorkStatus]int          `json:"sitesByWorkStatus"`
	SitesByPurpose    map[SitePurpose]int         `json:"sitesByPurpose"`
	UnassignedSites   int                         `json:"unassignedSites"`
	PendingUpdates    map[PendingUpdateStatus]int `json:"pendingUpdates"`
	TotalRemittance   decimal.Decimal             `json:"totalRemittance"`
	TotalPayment      decimal.Decimal             `json:"totalPayment"`
	OverallBalance    decimal.Decimal             `json:"overallBalance"`
	TotalEstimate     decimal.Decimal             `json:"totalEstimate"`
	TotalExpenditure  decimal.Decimal             `json:"totalExpenditure"`
	GeneratedAt       time.Time                   `json:"generatedAt"`
}
