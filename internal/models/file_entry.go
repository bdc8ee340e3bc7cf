package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// Remittance records money received against a file.
type Remittance struct {
	Date    *time.Time      `json:"remittanceDate"`
	Amount  decimal.Decimal `json:"amount"`
	Account string          `json:"account"`
}

// Payment records money paid out against a file.
type Payment struct {
	Date      *time.Time      `json:"paymentDate"`
	Amount    decimal.Decimal `json:"amount"`
	Account   string          `json:"account"`
	Reference string          `json:"reference"`
	Remarks   string          `json:"remarks"`
}

// Remittances is stored as JSONB.
type Remittances []Remittance

// Scan implements sql.Scanner.
func (r *Remittances) Scan(src interface{}) error { return scanJSON(src, r) }

// Value implements driver.Valuer.
func (r Remittances) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]Remittance(r))
}

// Payments is stored as JSONB.
type Payments []Payment

// Scan implements sql.Scanner.
func (p *Payments) Scan(src interface{}) error { return scanJSON(src, p) }

// Value implements driver.Valuer.
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]Payment(p))
}

// FileEntry is a case record funding one or more work sites.
type FileEntry struct {
	FileNo            string          `db:"file_no" json:"fileNo"`
	ApplicantName     string          `db:"applicant_name" json:"applicantName"`
	PhoneNo           string          `db:"phone_no" json:"phoneNo"`
	ApplicationType   string          `db:"application_type" json:"applicationType"`
	FileStatus        string          `db:"file_status" json:"fileStatus"`
	Remarks           string          `db:"remarks" json:"remarks"`
	RemittanceDetails Remittances     `db:"remittance_details" json:"remittanceDetails"`
	PaymentDetails    Payments        `db:"payment_details" json:"paymentDetails"`
	TotalRemittance   decimal.Decimal `db:"total_remittance" json:"totalRemittance"`
	TotalPayment      decimal.Decimal `db:"total_payment" json:"totalPayment"`
	OverallBalance    decimal.Decimal `db:"overall_balance" json:"overallBalance"`
	SiteDetails       SiteDetails     `db:"site_details" json:"siteDetails"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// RecomputeTotals derives the financial summary from the remittance and payment rows.
func (f *FileEntry) RecomputeTotals() {
	total := decimal.Zero
	for _, r := range f.RemittanceDetails {
		total = total.Add(r.Amount)
	}
	paid := decimal.Zero
	for _, p := range f.PaymentDetails {
		paid = paid.Add(p.Amount)
	}
	f.TotalRemittance = total
	f.TotalPayment = paid
	f.OverallBalance = total.Sub(paid)
}

// SiteByID returns the index of the site with the given id, or -1.
func (f *FileEntry) SiteByID(id string) int {
	if id == "" {
		return -1
	}
	for i := range f.SiteDetails {
		if f.SiteDetails[i].ID == id {
			return i
		}
	}
	return -1
}

// SiteByName returns the index of the first site named name, or -1.
func (f *FileEntry) SiteByName(name string) int {
	if name == "" {
		return -1
	}
	for i := range f.SiteDetails {
		if f.SiteDetails[i].NameOfSite == name {
			return i
		}
	}
	return -1
}

// FileEntryFilter constrains file listing queries.
type FileEntryFilter struct {
	Search   string
	Page     int
	PageSize int
}
