package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *pendingRepoStub, *auditStub) {
	t.Helper()
	access, err := authz.NewService(nil, nil)
	require.NoError(t, err)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	files := newFileRepoStub(sampleFile())
	pending := newPendingRepoStub(files)
	audit := &auditStub{}
	svc := NewExportService(ExportServiceParams{
		Files:   files,
		Pending: pending,
		Store:   store,
		Signer:  storage.NewDownloadSigner("secret", time.Hour),
		Access:  access,
		Audit:   audit,
		Metrics: NewMetricsService(),
		Config:  ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour},
	})
	return svc, pending, audit
}

func readDownload(t *testing.T, svc *ExportService, url string) (*Download, []byte) {
	t.Helper()
	token := url[strings.LastIndex(url, "/")+1:]
	download, err := svc.Open(context.Background(), token)
	require.NoError(t, err)
	defer download.Body.Close()
	body, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	return download, body
}

func TestExportServiceSitesCSV(t *testing.T) {
	svc, _, audit := newExportServiceForTest(t)

	result, err := svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetSites, Format: models.ExportFormatCSV,
	}, &models.JWTClaims{UserID: "view-1", Role: models.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.True(t, strings.HasPrefix(result.DownloadURL, "/api/v1/exports/download/"))
	assert.Equal(t, []string{models.AuditActionExportCreate}, audit.actions())

	download, body := readDownload(t, svc, result.DownloadURL)
	assert.Equal(t, "text/csv", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Name of Site", records[0][3])
	assert.Equal(t, "Borewell-12", records[1][3])
	assert.Equal(t, "15/01/2026", records[1][11])
}

func TestExportServicePendingUpdatesXLSX(t *testing.T) {
	svc, pending, _ := newExportServiceForTest(t)
	require.NoError(t, pending.Create(context.Background(), &models.PendingUpdate{
		FileNo:             "GWD/2026/001",
		SubmittedByName:    "Ravi Supervisor",
		Status:             models.PendingUpdateStatusPending,
		UpdatedSiteDetails: models.SiteDetails{{ID: "site-b12", NameOfSite: "Borewell-12"}},
	}))

	result, err := svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetPendingUpdates, Format: models.ExportFormatXLSX, Status: "pending",
	}, editorClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)

	_, body := readDownload(t, svc, result.DownloadURL)
	book, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Borewell-12", rows[1][5])
}

func TestExportServiceRejectsBadRequests(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	_, err := svc.Create(context.Background(), dto.ExportRequest{Dataset: "grades", Format: models.ExportFormatCSV}, editorClaims())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetPendingUpdates, Format: models.ExportFormatCSV, Status: "archived",
	}, editorClaims())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetFiles, Format: models.ExportFormatCSV, FileNo: "GWD/404",
	}, editorClaims())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetFiles, Format: models.ExportFormatCSV,
	}, supervisorClaims("sup-1", "Ravi Supervisor"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Open(context.Background(), "tampered.token")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportServiceOpenChecksGrantAgainstObject(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	result, err := svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetSites, Format: models.ExportFormatCSV,
	}, editorClaims())
	require.NoError(t, err)

	signer := storage.NewDownloadSigner("secret", time.Hour)
	for _, grant := range []storage.DownloadGrant{
		{ExportID: result.ID, Object: result.ObjectName, Dataset: "pending-updates", Format: "csv"},
		{ExportID: result.ID, Object: result.ObjectName, Dataset: "sites", Format: "xlsx"},
		{ExportID: result.ID, Object: result.ObjectName, Dataset: "sites", Format: "pdf"},
	} {
		token, _, err := signer.Sign(grant)
		require.NoError(t, err)
		_, err = svc.Open(context.Background(), token)
		assert.ErrorIs(t, err, appErrors.ErrNotFound, "%s/%s", grant.Dataset, grant.Format)
	}

	token, _, err := signer.Sign(storage.DownloadGrant{
		ExportID: result.ID, Object: result.ObjectName, Dataset: "sites", Format: "csv",
	})
	require.NoError(t, err)
	download, err := svc.Open(context.Background(), token)
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, "text/csv", download.ContentType)
}

func TestExportServiceCleanup(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	_, err := svc.Create(context.Background(), dto.ExportRequest{
		Dataset: models.ExportDatasetFiles, Format: models.ExportFormatCSV,
	}, editorClaims())
	require.NoError(t, err)

	removed, err := svc.Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Empty(t, removed)

	time.Sleep(20 * time.Millisecond)
	removed, err = svc.Cleanup(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}
