package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

var pendingRowColumns = []string{
	"id", "file_no", "submitted_by_uid", "submitted_by_name", "submitted_at", "updated_site_details",
	"status", "notes", "reviewed_by", "reviewed_at",
}

func TestPendingUpdateRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPendingUpdateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pending_updates")).WillReturnResult(sqlmock.NewResult(1, 1))

	update := &models.PendingUpdate{
		FileNo:          "GWD/12/2024",
		SubmittedByUID:  "sup-1",
		SubmittedByName: "Ravi Kumar",
		UpdatedSiteDetails: models.SiteDetails{
			{ID: "site-12", NameOfSite: "Borewell-12", WorkStatus: models.WorkStatusWorkCompleted},
		},
	}
	require.NoError(t, repo.Create(context.Background(), update))
	assert.NotEmpty(t, update.ID)
	assert.Equal(t, models.PendingUpdateStatusPending, update.Status)

	rows := sqlmock.NewRows(pendingRowColumns).AddRow(
		update.ID, "GWD/12/2024", "sup-1", "Ravi Kumar", time.Now(),
		`[{"id":"site-12","nameOfSite":"Borewell-12","workStatus":"Work Completed"}]`,
		"pending", nil, nil, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM pending_updates WHERE id = $1")).
		WithArgs(update.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), update.ID)
	require.NoError(t, err)
	require.Len(t, found.UpdatedSiteDetails, 1)
	assert.Equal(t, models.WorkStatusWorkCompleted, found.UpdatedSiteDetails[0].WorkStatus)
	assert.Nil(t, found.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingUpdateRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPendingUpdateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pending_updates WHERE file_no = $1 AND status = ANY($2) AND submitted_by_uid = $3 ORDER BY submitted_at DESC, id LIMIT 10 OFFSET 0")).
		WithArgs("GWD/12/2024", pq.Array([]string{"pending"}), "sup-1").
		WillReturnRows(sqlmock.NewRows(pendingRowColumns).AddRow(
			"pu-1", "GWD/12/2024", "sup-1", "Ravi Kumar", time.Now(), `[]`, "pending", nil, nil, nil,
		))

	list, err := repo.List(context.Background(), models.PendingUpdateFilter{
		FileNo:      "GWD/12/2024",
		Statuses:    []models.PendingUpdateStatus{models.PendingUpdateStatusPending},
		SubmittedBy: "sup-1",
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pu-1", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingUpdateRepositoryTransitionOnlyFromPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPendingUpdateRepository(db)

	notes := "Missing photo evidence"
	reviewer := "editor-1"
	transition := models.PendingUpdateTransition{
		ID:         "pu-1",
		Status:     models.PendingUpdateStatusRejected,
		Notes:      &notes,
		ReviewedBy: &reviewer,
		ReviewedAt: time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_updates SET status = $2")).
		WithArgs("pu-1", models.PendingUpdateStatusRejected, &notes, &reviewer, sqlmock.AnyArg(), models.PendingUpdateStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Transition(context.Background(), transition))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_updates SET status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Transition(context.Background(), transition), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingUpdateRepositoryApproveAndMergeCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPendingUpdateRepository(db)

	expected := time.Now().Add(-time.Hour)
	file := &models.FileEntry{FileNo: "GWD/12/2024", UpdatedAt: expected}
	reviewer := "editor-1"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_updates SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE file_entries SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApproveAndMerge(context.Background(), file, expected, models.PendingUpdateTransition{
		ID: "pu-1", Status: models.PendingUpdateStatusApproved, ReviewedBy: &reviewer, ReviewedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingUpdateRepositoryApproveAndMergeRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPendingUpdateRepository(db)

	expected := time.Now().Add(-time.Hour)
	file := &models.FileEntry{FileNo: "GWD/12/2024", UpdatedAt: expected}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_updates SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE file_entries SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApproveAndMerge(context.Background(), file, expected, models.PendingUpdateTransition{
		ID: "pu-1", Status: models.PendingUpdateStatusApproved, ReviewedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingUpdateRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPendingUpdateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM pending_updates GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow("pending", 3).
			AddRow("supervisor-unassigned", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.PendingUpdateStatusPending])
	assert.Equal(t, 1, counts[models.PendingUpdateStatusSupervisorUnassigned])
	assert.NoError(t, mock.ExpectationsWereMet())
}
