package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

const pendingUpdateColumns = `id, file_no, submitted_by_uid, submitted_by_name, submitted_at, updated_site_details,
       status, notes, reviewed_by, reviewed_at`

// PendingUpdateRepository persists supervisor proposals. Rows are never deleted.
type PendingUpdateRepository struct {
	db *sqlx.DB
}

// NewPendingUpdateRepository constructs the repository.
func NewPendingUpdateRepository(db *sqlx.DB) *PendingUpdateRepository {
	return &PendingUpdateRepository{db: db}
}

// Create inserts a new pending update.
func (r *PendingUpdateRepository) Create(ctx context.Context, update *models.PendingUpdate) error {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if update.Status == "" {
		update.Status = models.PendingUpdateStatusPending
	}
	if update.SubmittedAt.IsZero() {
		update.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO pending_updates
	(id, file_no, submitted_by_uid, submitted_by_name, submitted_at, updated_site_details, status, notes, reviewed_by, reviewed_at)
	VALUES (:id, :file_no, :submitted_by_uid, :submitted_by_name, :submitted_at, :updated_site_details, :status, :notes, :reviewed_by, :reviewed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, update); err != nil {
		return fmt.Errorf("create pending update: %w", err)
	}
	return nil
}

// GetByID fetches a pending update by identifier.
func (r *PendingUpdateRepository) GetByID(ctx context.Context, id string) (*models.PendingUpdate, error) {
	query := `SELECT ` + pendingUpdateColumns + ` FROM pending_updates WHERE id = $1`
	var update models.PendingUpdate
	if err := r.db.GetContext(ctx, &update, query, id); err != nil {
		return nil, err
	}
	return &update, nil
}

// List returns pending updates matching the filter, latest submission first.
func (r *PendingUpdateRepository) List(ctx context.Context, filter models.PendingUpdateFilter) ([]models.PendingUpdate, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT ` + pendingUpdateColumns + ` FROM pending_updates`)

	conditions := make([]string, 0, 3)
	if filter.FileNo != "" {
		args = append(args, filter.FileNo)
		conditions = append(conditions, fmt.Sprintf("file_no = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.SubmittedBy != "" {
		args = append(args, filter.SubmittedBy)
		conditions = append(conditions, fmt.Sprintf("submitted_by_uid = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC, id")

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset))
	}

	var updates []models.PendingUpdate
	if err := r.db.SelectContext(ctx, &updates, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list pending updates: %w", err)
	}
	return updates, nil
}

// Transition moves a pending update out of pending. It returns sql.ErrNoRows
// when the update is missing or no longer pending.
func (r *PendingUpdateRepository) Transition(ctx context.Context, t models.PendingUpdateTransition) error {
	return transitionPendingUpdate(ctx, r.db, t)
}

// ApproveAndMerge writes the merged file and marks the update approved in one
// transaction. A file changed since it was read yields ErrStaleWrite; an
// update no longer pending yields sql.ErrNoRows.
func (r *PendingUpdateRepository) ApproveAndMerge(ctx context.Context, file *models.FileEntry, expected time.Time, t models.PendingUpdateTransition) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := transitionPendingUpdate(ctx, tx, t); err != nil {
		return err
	}
	if err := updateFileEntry(ctx, tx, file, expected); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve: %w", err)
	}
	return nil
}

// CountByStatus returns the number of updates per status.
func (r *PendingUpdateRepository) CountByStatus(ctx context.Context) (map[models.PendingUpdateStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM pending_updates GROUP BY status`
	var rows []struct {
		Status models.PendingUpdateStatus `db:"status"`
		Total  int                        `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count pending updates: %w", err)
	}
	counts := make(map[models.PendingUpdateStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func transitionPendingUpdate(ctx context.Context, db execer, t models.PendingUpdateTransition) error {
	const query = `UPDATE pending_updates SET status = $2, notes = COALESCE($3, notes), reviewed_by = $4, reviewed_at = $5
	WHERE id = $1 AND status = $6`
	result, err := db.ExecContext(ctx, query, t.ID, t.Status, t.Notes, t.ReviewedBy, t.ReviewedAt, models.PendingUpdateStatusPending)
	if err != nil {
		return fmt.Errorf("update pending update status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check pending update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
