package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// WorkStatus is the closed set of states a work site moves through.
type WorkStatus string

const (
	WorkStatusUnderProcess         WorkStatus = "Under Process"
	WorkStatusAddlASAwaited        WorkStatus = "Addl. AS Awaited"
	WorkStatusToBeRefunded         WorkStatus = "To be Refunded"
	WorkStatusTendered             WorkStatus = "Tendered"
	WorkStatusWorkOrderIssued      WorkStatus = "Work Order Issued"
	WorkStatusWorkInProgress       WorkStatus = "Work in Progress"
	WorkStatusWorkCompleted        WorkStatus = "Work Completed"
	WorkStatusWorkFailed           WorkStatus = "Work Failed"
	WorkStatusBillPrepared         WorkStatus = "Bill Prepared"
	WorkStatusPaymentCompleted     WorkStatus = "Payment Completed"
	WorkStatusUtilizationCertified WorkStatus = "Utilization Certificate Issued"
)

var workStatuses = []WorkStatus{
	WorkStatusUnderProcess,
	WorkStatusAddlASAwaited,
	WorkStatusToBeRefunded,
	WorkStatusTendered,
	WorkStatusWorkOrderIssued,
	WorkStatusWorkInProgress,
	WorkStatusWorkCompleted,
	WorkStatusWorkFailed,
	WorkStatusBillPrepared,
	WorkStatusPaymentCompleted,
	WorkStatusUtilizationCertified,
}

// WorkStatuses returns the closed set in display order.
func WorkStatuses() []WorkStatus {
	return append([]WorkStatus(nil), workStatuses...)
}

// Valid reports whether s belongs to the closed set.
func (s WorkStatus) Valid() bool {
	for _, candidate := range workStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// SitePurpose classifies the kind of groundwater work.
type SitePurpose string

const (
	PurposeBWC           SitePurpose = "BWC"
	PurposeTWC           SitePurpose = "TWC"
	PurposeFPW           SitePurpose = "FPW"
	PurposeBWDev         SitePurpose = "BW Dev"
	PurposeTWDev         SitePurpose = "TW Dev"
	PurposeFPWDev        SitePurpose = "FPW Dev"
	PurposeMWSS          SitePurpose = "MWSS"
	PurposeMWSSExt       SitePurpose = "MWSS Ext"
	PurposePumpingScheme SitePurpose = "Pumping Scheme"
	PurposeMWSSPumpReno  SitePurpose = "MWSS Pump Reno"
	PurposeHPS           SitePurpose = "HPS"
	PurposeHPR           SitePurpose = "HPR"
	PurposeARS           SitePurpose = "ARS"
)

var sitePurposes = []SitePurpose{
	PurposeBWC, PurposeTWC, PurposeFPW, PurposeBWDev, PurposeTWDev, PurposeFPWDev,
	PurposeMWSS, PurposeMWSSExt, PurposePumpingScheme, PurposeMWSSPumpReno,
	PurposeHPS, PurposeHPR, PurposeARS,
}

// SitePurposes returns the closed set in display order.
func SitePurposes() []SitePurpose {
	return append([]SitePurpose(nil), sitePurposes...)
}

// Valid reports whether p belongs to the closed set.
func (p SitePurpose) Valid() bool {
	for _, candidate := range sitePurposes {
		if p == candidate {
			return true
		}
	}
	return false
}

// SiteDetail is one physical work site funded by a file. Field order is the
// order used when presenting field-level diffs.
type SiteDetail struct {
	ID               string          `json:"id"`
	NameOfSite       string          `json:"nameOfSite" validate:"required"`
	Purpose          SitePurpose     `json:"purpose" validate:"required,sitepurpose"`
	WorkStatus       WorkStatus      `json:"workStatus" validate:"required,workstatus"`
	SupervisorUID    *string         `json:"supervisorUid"`
	SupervisorName   string          `json:"supervisorName"`
	Latitude         *float64        `json:"latitude"`
	Longitude        *float64        `json:"longitude"`
	EstimateAmount   decimal.Decimal `json:"estimateAmount"`
	TSAmount         decimal.Decimal `json:"tsAmount"`
	TenderNo         string          `json:"tenderNo"`
	ContractorName   string          `json:"contractorName"`
	WorkOrderDate    *time.Time      `json:"workOrderDate"`
	TotalExpenditure decimal.Decimal `json:"totalExpenditure"`
	DateOfCompletion *time.Time      `json:"dateOfCompletion"`
	WorkRemarks      string          `json:"workRemarks"`
	Version          int             `json:"version"`
}

// SupervisedBy reports whether uid is the site's assigned supervisor.
func (s SiteDetail) SupervisedBy(uid string) bool {
	return uid != "" && s.SupervisorUID != nil && *s.SupervisorUID == uid
}

// SiteDetails is the JSONB-backed ordered site collection of a file.
type SiteDetails []SiteDetail

// Scan implements sql.Scanner.
func (s *SiteDetails) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Value implements driver.Valuer.
func (s SiteDetails) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]SiteDetail(s))
}
