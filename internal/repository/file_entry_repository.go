package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

const fileEntryColumns = `file_no, applicant_name, phone_no, application_type, file_status, remarks,
       remittance_details, payment_details, total_remittance, total_payment, overall_balance,
       site_details, created_at, updated_at`

// FileEntryRepository persists file entries with their embedded sites as JSONB.
type FileEntryRepository struct {
	db *sqlx.DB
}

// NewFileEntryRepository constructs the repository.
func NewFileEntryRepository(db *sqlx.DB) *FileEntryRepository {
	return &FileEntryRepository{db: db}
}

// FindByFileNo returns the file or sql.ErrNoRows.
func (r *FileEntryRepository) FindByFileNo(ctx context.Context, fileNo string) (*models.FileEntry, error) {
	query := `SELECT ` + fileEntryColumns + ` FROM file_entries WHERE file_no = $1`
	var file models.FileEntry
	if err := r.db.GetContext(ctx, &file, query, fileNo); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find file entry: %w", err)
	}
	return &file, nil
}

// List returns files matching the filter together with the total count.
func (r *FileEntryRepository) List(ctx context.Context, filter models.FileEntryFilter) ([]models.FileEntry, int, error) {
	baseQuery := `FROM file_entries WHERE 1=1`
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		baseQuery += fmt.Sprintf(" AND (file_no ILIKE $%d OR applicant_name ILIKE $%d OR site_details::text ILIKE $%d)", len(args), len(args), len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY updated_at DESC LIMIT %d OFFSET %d", fileEntryColumns, baseQuery, pageSize, offset)
	var files []models.FileEntry
	if err := r.db.SelectContext(ctx, &files, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list file entries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count file entries: %w", err)
	}
	return files, total, nil
}

// All returns every file ordered by file number.
func (r *FileEntryRepository) All(ctx context.Context) ([]models.FileEntry, error) {
	query := `SELECT ` + fileEntryColumns + ` FROM file_entries ORDER BY file_no`
	var files []models.FileEntry
	if err := r.db.SelectContext(ctx, &files, query); err != nil {
		return nil, fmt.Errorf("list all file entries: %w", err)
	}
	return files, nil
}

// ListByFileNos loads the given files. Unknown numbers are skipped.
func (r *FileEntryRepository) ListByFileNos(ctx context.Context, fileNos []string) ([]models.FileEntry, error) {
	if len(fileNos) == 0 {
		return nil, nil
	}
	query := `SELECT ` + fileEntryColumns + ` FROM file_entries WHERE file_no = ANY($1)`
	var files []models.FileEntry
	if err := r.db.SelectContext(ctx, &files, query, pq.Array(fileNos)); err != nil {
		return nil, fmt.Errorf("list file entries by number: %w", err)
	}
	return files, nil
}

// ListBySupervisor returns files with at least one site assigned to uid.
func (r *FileEntryRepository) ListBySupervisor(ctx context.Context, uid string) ([]models.FileEntry, error) {
	containment, err := supervisorContainment(uid)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + fileEntryColumns + ` FROM file_entries WHERE site_details @> $1::jsonb ORDER BY file_no`
	var files []models.FileEntry
	if err := r.db.SelectContext(ctx, &files, query, containment); err != nil {
		return nil, fmt.Errorf("list files by supervisor: %w", err)
	}
	return files, nil
}

// Create inserts a new file. A taken file number yields ErrDuplicateKey.
func (r *FileEntryRepository) Create(ctx context.Context, file *models.FileEntry) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now
	const query = `INSERT INTO file_entries
	(file_no, applicant_name, phone_no, application_type, file_status, remarks, remittance_details, payment_details,
	 total_remittance, total_payment, overall_balance, site_details, created_at, updated_at)
	VALUES (:file_no, :applicant_name, :phone_no, :application_type, :file_status, :remarks, :remittance_details, :payment_details,
	 :total_remittance, :total_payment, :overall_balance, :site_details, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create file entry: %w", err)
	}
	return nil
}

// Update replaces the file when its stored updated_at still equals expected.
// A lost race yields ErrStaleWrite.
func (r *FileEntryRepository) Update(ctx context.Context, file *models.FileEntry, expected time.Time) error {
	return updateFileEntry(ctx, r.db, file, expected)
}

// ClearSupervisor removes uid from every site it supervises in one
// transaction and returns the affected file numbers and site count.
func (r *FileEntryRepository) ClearSupervisor(ctx context.Context, uid string) ([]string, int, error) {
	containment, err := supervisorContainment(uid)
	if err != nil {
		return nil, 0, err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin clear supervisor: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `SELECT ` + fileEntryColumns + ` FROM file_entries WHERE site_details @> $1::jsonb FOR UPDATE`
	var files []models.FileEntry
	if err := tx.SelectContext(ctx, &files, query, containment); err != nil {
		return nil, 0, fmt.Errorf("lock supervised files: %w", err)
	}

	fileNos := make([]string, 0, len(files))
	cleared := 0
	for i := range files {
		file := &files[i]
		for j := range file.SiteDetails {
			if file.SiteDetails[j].SupervisedBy(uid) {
				file.SiteDetails[j].SupervisorUID = nil
				file.SiteDetails[j].SupervisorName = ""
				file.SiteDetails[j].Version++
				cleared++
			}
		}
		if err := updateFileEntry(ctx, tx, file, file.UpdatedAt); err != nil {
			return nil, 0, err
		}
		fileNos = append(fileNos, file.FileNo)
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit clear supervisor: %w", err)
	}
	return fileNos, cleared, nil
}

func updateFileEntry(ctx context.Context, db execer, file *models.FileEntry, expected time.Time) error {
	updatedAt := time.Now().UTC().Truncate(time.Microsecond)
	const query = `UPDATE file_entries SET applicant_name = $2, phone_no = $3, application_type = $4, file_status = $5,
	remarks = $6, remittance_details = $7, payment_details = $8, total_remittance = $9, total_payment = $10,
	overall_balance = $11, site_details = $12, updated_at = $13
	WHERE file_no = $1 AND updated_at = $14`
	result, err := db.ExecContext(ctx, query,
		file.FileNo,
		file.ApplicantName,
		file.PhoneNo,
		file.ApplicationType,
		file.FileStatus,
		file.Remarks,
		file.RemittanceDetails,
		file.PaymentDetails,
		file.TotalRemittance,
		file.TotalPayment,
		file.OverallBalance,
		file.SiteDetails,
		updatedAt,
		expected,
	)
	if err != nil {
		return fmt.Errorf("update file entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check file entry update rows: %w", err)
	}
	if rows == 0 {
		return ErrStaleWrite
	}
	file.UpdatedAt = updatedAt
	return nil
}

func supervisorContainment(uid string) ([]byte, error) {
	raw, err := json.Marshal([]map[string]string{{"supervisorUid": uid}})
	if err != nil {
		return nil, fmt.Errorf("encode supervisor filter: %w", err)
	}
	return raw, nil
}
