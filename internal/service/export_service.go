package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/export"
	"github.com/noah-isme/gwd-records-api/pkg/storage"
)

type exportFileSource interface {
	All(ctx context.Context) ([]models.FileEntry, error)
	FindByFileNo(ctx context.Context, fileNo string) (*models.FileEntry, error)
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// Download is an opened export ready to stream.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

// ExportService renders spreadsheets of the records and stores them behind
// signed download links.
type ExportService struct {
	files     exportFileSource
	pending   pendingUpdateLister
	store     storage.ObjectStore
	signer    *storage.DownloadSigner
	access    accessControl
	audit     auditLogger
	metrics   *MetricsService
	renderers map[models.ExportFormat]Renderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Files     exportFileSource
	Pending   pendingUpdateLister
	Store     storage.ObjectStore
	Signer    *storage.DownloadSigner
	Access    accessControl
	Audit     auditLogger
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    ExportConfig
}

// NewExportService constructs an ExportService with the CSV and XLSX renderers.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &ExportService{
		files:   params.Files,
		pending: params.Pending,
		store:   params.Store,
		signer:  params.Signer,
		access:  params.Access,
		audit:   params.Audit,
		metrics: params.Metrics,
		renderers: map[models.ExportFormat]Renderer{
			models.ExportFormatCSV:  export.NewCSVExporter(),
			models.ExportFormatXLSX: export.NewXLSXExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create renders the requested dataset, stores it and returns a signed link.
func (s *ExportService) Create(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (*models.ExportResult, error) {
	if err := s.access.Authorize(actor, authz.ObjectExports, authz.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", req.Format))
	}

	dataset, err := s.buildDataset(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}

	now := s.now()
	id := uuid.NewString()
	objectName := path.Join("exports", now.Format("2006/01/02"),
		fmt.Sprintf("%s_%s_%s.%s", req.Dataset, now.Format("150405"), id[:8], renderer.Extension()))
	stored, err := s.store.Save(ctx, objectName, payload, renderer.ContentType())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(storage.DownloadGrant{
		ExportID: id,
		Object:   stored,
		Dataset:  string(req.Dataset),
		Format:   string(req.Format),
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign export link")
	}

	result := &models.ExportResult{
		ID:          id,
		Dataset:     req.Dataset,
		Format:      req.Format,
		ObjectName:  stored,
		DownloadURL: fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Rows:        len(dataset.Rows),
		ExpiresAt:   expiresAt,
	}
	s.metrics.RecordExport(req.Dataset, req.Format)
	s.recordAudit(ctx, actor.UserID, result)
	return result, nil
}

// Open resolves a signed link to the stored export. The link's dataset and
// format must agree with the object it names.
func (s *ExportService) Open(ctx context.Context, token string) (*Download, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		msg := "download link is invalid"
		if errors.Is(err, storage.ErrGrantExpired) {
			msg = "download link has expired"
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, msg)
	}
	renderer, ok := s.renderers[models.ExportFormat(grant.Format)]
	if !ok || !grantMatchesObject(grant, renderer.Extension()) {
		s.logger.Warn("download grant does not match its object",
			zap.String("export_id", grant.ExportID), zap.String("object", grant.Object),
			zap.String("dataset", grant.Dataset), zap.String("format", grant.Format))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link is invalid")
	}
	body, err := s.store.Open(ctx, grant.Object)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export no longer available")
	}
	return &Download{Body: body, Filename: path.Base(grant.Object), ContentType: renderer.ContentType()}, nil
}

// grantMatchesObject checks the object was written for the grant's dataset
// and format: exports/<date>/<dataset>_<time>_<id>.<ext>.
func grantMatchesObject(grant *storage.DownloadGrant, ext string) bool {
	base := path.Base(grant.Object)
	return strings.HasPrefix(base, grant.Dataset+"_") && path.Ext(base) == "."+ext
}

// Cleanup removes exports older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ctx context.Context, ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.store.CleanupOlderThan(ctx, ttl)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired exports", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *ExportService) buildDataset(ctx context.Context, req dto.ExportRequest) (export.Dataset, error) {
	switch req.Dataset {
	case models.ExportDatasetSites:
		files, err := s.loadFiles(ctx, req.FileNo)
		if err != nil {
			return export.Dataset{}, err
		}
		return sitesDataset(files), nil
	case models.ExportDatasetFiles:
		files, err := s.loadFiles(ctx, req.FileNo)
		if err != nil {
			return export.Dataset{}, err
		}
		return filesDataset(files), nil
	case models.ExportDatasetPendingUpdates:
		filter := models.PendingUpdateFilter{FileNo: strings.TrimSpace(req.FileNo)}
		if req.Status != "" {
			status := models.PendingUpdateStatus(req.Status)
			if !status.Valid() {
				return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
			}
			filter.Statuses = []models.PendingUpdateStatus{status}
		}
		updates, err := s.pending.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, appErrors.Internal(err, "failed to list pending updates")
		}
		return pendingUpdatesDataset(updates), nil
	default:
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported dataset %s", req.Dataset))
	}
}

func (s *ExportService) loadFiles(ctx context.Context, fileNo string) ([]models.FileEntry, error) {
	fileNo = strings.TrimSpace(fileNo)
	if fileNo == "" {
		files, err := s.files.All(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load files")
		}
		return files, nil
	}
	file, err := s.files.FindByFileNo(ctx, fileNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("file %s not found", fileNo))
	}
	return []models.FileEntry{*file}, nil
}

func (s *ExportService) recordAudit(ctx context.Context, actorID string, result *models.ExportResult) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"dataset": result.Dataset, "format": result.Format, "rows": result.Rows, "object": result.ObjectName,
	})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionExportCreate,
		Resource:   "exports",
		ResourceID: &result.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "export-service",
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}
}

func sitesDataset(files []models.FileEntry) export.Dataset {
	headers := []string{
		"File No", "Applicant", "Site ID", "Name of Site", "Purpose", "Work Status", "Supervisor",
		"Estimate Amount", "TS Amount", "Tender No", "Contractor", "Work Order Date",
		"Total Expenditure", "Date of Completion", "Remarks",
	}
	rows := make([]map[string]string, 0)
	for _, file := range files {
		for _, site := range file.SiteDetails {
			rows = append(rows, map[string]string{
				"File No":            file.FileNo,
				"Applicant":          file.ApplicantName,
				"Site ID":            site.ID,
				"Name of Site":       site.NameOfSite,
				"Purpose":            string(site.Purpose),
				"Work Status":        string(site.WorkStatus),
				"Supervisor":         site.SupervisorName,
				"Estimate Amount":    site.EstimateAmount.StringFixed(2),
				"TS Amount":          site.TSAmount.StringFixed(2),
				"Tender No":          site.TenderNo,
				"Contractor":         site.ContractorName,
				"Work Order Date":    FormatDisplayDate(site.WorkOrderDate),
				"Total Expenditure":  site.TotalExpenditure.StringFixed(2),
				"Date of Completion": FormatDisplayDate(site.DateOfCompletion),
				"Remarks":            site.WorkRemarks,
			})
		}
	}
	return export.Dataset{Title: "Sites", Headers: headers, Rows: rows}
}

func filesDataset(files []models.FileEntry) export.Dataset {
	headers := []string{
		"File No", "Applicant", "Phone", "Application Type", "File Status", "Sites",
		"Total Remittance", "Total Payment", "Balance", "Updated",
	}
	rows := make([]map[string]string, 0, len(files))
	for _, file := range files {
		file.RecomputeTotals()
		updated := file.UpdatedAt
		rows = append(rows, map[string]string{
			"File No":          file.FileNo,
			"Applicant":        file.ApplicantName,
			"Phone":            file.PhoneNo,
			"Application Type": file.ApplicationType,
			"File Status":      file.FileStatus,
			"Sites":            strconv.Itoa(len(file.SiteDetails)),
			"Total Remittance": file.TotalRemittance.StringFixed(2),
			"Total Payment":    file.TotalPayment.StringFixed(2),
			"Balance":          file.OverallBalance.StringFixed(2),
			"Updated":          FormatDisplayDate(&updated),
		})
	}
	return export.Dataset{Title: "Files", Headers: headers, Rows: rows}
}

func pendingUpdatesDataset(updates []models.PendingUpdate) export.Dataset {
	headers := []string{"ID", "File No", "Submitted By", "Submitted", "Status", "Sites", "Notes", "Reviewed"}
	rows := make([]map[string]string, 0, len(updates))
	for _, update := range updates {
		names := make([]string, 0, len(update.UpdatedSiteDetails))
		for _, site := range update.UpdatedSiteDetails {
			names = append(names, site.NameOfSite)
		}
		notes := ""
		if update.Notes != nil {
			notes = *update.Notes
		}
		submitted := update.SubmittedAt
		rows = append(rows, map[string]string{
			"ID":           update.ID,
			"File No":      update.FileNo,
			"Submitted By": update.SubmittedByName,
			"Submitted":    FormatDisplayDate(&submitted),
			"Status":       string(update.Status),
			"Sites":        strings.Join(names, ", "),
			"Notes":        notes,
			"Reviewed":     FormatDisplayDate(update.ReviewedAt),
		})
	}
	return export.Dataset{Title: "Pending Updates", Headers: headers, Rows: rows}
}
