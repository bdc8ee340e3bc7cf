package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/internal/repository"
	"github.com/noah-isme/gwd-records-api/internal/search"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

type fileEntryStore interface {
	FindByFileNo(ctx context.Context, fileNo string) (*models.FileEntry, error)
	List(ctx context.Context, filter models.FileEntryFilter) ([]models.FileEntry, int, error)
	ListBySupervisor(ctx context.Context, uid string) ([]models.FileEntry, error)
	Create(ctx context.Context, file *models.FileEntry) error
	Update(ctx context.Context, file *models.FileEntry, expected time.Time) error
}

type pendingUpdateLister interface {
	List(ctx context.Context, filter models.PendingUpdateFilter) ([]models.PendingUpdate, error)
}

type fileSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]search.Hit, error)
	IndexFile(file models.FileEntry)
}

type fileSweepScheduler interface {
	ScheduleForFile(fileNo string) bool
}

// FileEntryService manages files and the sites they fund.
type FileEntryService struct {
	repo      fileEntryStore
	pending   pendingUpdateLister
	users     userFinder
	access    accessControl
	audit     auditLogger
	search    fileSearcher
	sweeper   fileSweepScheduler
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// FileEntryServiceOption configures optional collaborators.
type FileEntryServiceOption func(*FileEntryService)

// WithFileSearch routes search through the full-text index and keeps it current.
func WithFileSearch(searcher fileSearcher) FileEntryServiceOption {
	return func(s *FileEntryService) {
		s.search = searcher
	}
}

// WithFileSweeper schedules orphan sweeps when a site's supervisor changes.
func WithFileSweeper(sweeper fileSweepScheduler) FileEntryServiceOption {
	return func(s *FileEntryService) {
		s.sweeper = sweeper
	}
}

// WithFileDashboardCache invalidates the dashboard after writes.
func WithFileDashboardCache(cache *CacheService) FileEntryServiceOption {
	return func(s *FileEntryService) {
		s.cache = cache
	}
}

// NewFileEntryService constructs the service.
func NewFileEntryService(
	repo fileEntryStore,
	pending pendingUpdateLister,
	users userFinder,
	access accessControl,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ...FileEntryServiceOption,
) *FileEntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerSiteValidations(validate)
	svc := &FileEntryService{
		repo:      repo,
		pending:   pending,
		users:     users,
		access:    access,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns a page of files, most recently updated first.
func (s *FileEntryService) List(ctx context.Context, query dto.FileEntryQuery, actor *models.JWTClaims) ([]models.FileEntry, *response.Pagination, error) {
	if err := s.access.Authorize(actor, authz.ObjectFiles, authz.ActionRead); err != nil {
		return nil, nil, err
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	files, total, err := s.repo.List(ctx, models.FileEntryFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list files")
	}
	return files, &response.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one file.
func (s *FileEntryService) Get(ctx context.Context, fileNo string, actor *models.JWTClaims) (*models.FileEntry, error) {
	if err := s.access.Authorize(actor, authz.ObjectFiles, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.load(ctx, fileNo)
}

// Search finds files by number, applicant or site name.
func (s *FileEntryService) Search(ctx context.Context, text string, limit int, actor *models.JWTClaims) ([]search.Hit, error) {
	if err := s.access.Authorize(actor, authz.ObjectFiles, authz.ActionRead); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []search.Hit{}, nil
	}
	if s.search == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "search is not configured")
	}
	hits, err := s.search.Search(ctx, text, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to search files")
	}
	return hits, nil
}

// Create registers a new file. Sites receive stable ids and start at version 1.
func (s *FileEntryService) Create(ctx context.Context, req dto.FileEntryRequest, actor *models.JWTClaims) (*models.FileEntry, error) {
	if err := s.access.Authorize(actor, authz.ObjectFiles, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	file := &models.FileEntry{}
	applyFileRequest(file, req)
	sites, _, err := s.mergeSites(ctx, nil, req.SiteDetails)
	if err != nil {
		return nil, err
	}
	file.SiteDetails = sites
	file.RecomputeTotals()

	if err := s.repo.Create(ctx, file); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("file %s already exists", file.FileNo))
		}
		return nil, appErrors.Internal(err, "failed to create file")
	}
	s.afterWrite(ctx, file, nil, actor.UserID, models.AuditActionFileCreate)
	return file, nil
}

// Update replaces a file's editable fields. Edited sites advance their version,
// so pending updates prepared against the old values go stale.
func (s *FileEntryService) Update(ctx context.Context, fileNo string, req dto.FileEntryRequest, actor *models.JWTClaims) (*models.FileEntry, error) {
	if err := s.access.Authorize(actor, authz.ObjectFiles, authz.ActionWrite); err != nil {
		return nil, err
	}
	req.FileNo = fileNo
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, fileNo)
	if err != nil {
		return nil, err
	}
	if req.UpdatedAt != nil && !req.UpdatedAt.Equal(current.UpdatedAt) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "file changed since it was loaded; reload and retry")
	}

	before := *current
	next := *current
	applyFileRequest(&next, req)
	sites, reassigned, err := s.mergeSites(ctx, current.SiteDetails, req.SiteDetails)
	if err != nil {
		return nil, err
	}
	next.SiteDetails = sites
	next.RecomputeTotals()

	if err := s.repo.Update(ctx, &next, current.UpdatedAt); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "file changed since it was loaded; reload and retry")
		}
		return nil, appErrors.Internal(err, "failed to update file")
	}
	s.afterWrite(ctx, &next, &before, actor.UserID, models.AuditActionFileUpdate)
	if reassigned && s.sweeper != nil {
		s.sweeper.ScheduleForFile(next.FileNo)
	}
	return &next, nil
}

// AssignSupervisor sets or clears the supervisor of one site.
func (s *FileEntryService) AssignSupervisor(ctx context.Context, fileNo, siteID string, req dto.AssignSupervisorRequest, actor *models.JWTClaims) (*models.FileEntry, error) {
	if err := s.access.Authorize(actor, authz.ObjectSites, authz.ActionAssign); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, fileNo)
	if err != nil {
		return nil, err
	}
	idx := current.SiteByID(siteID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("site %s not found in file %s", siteID, fileNo))
	}

	before := *current
	next := *current
	next.SiteDetails = append(models.SiteDetails(nil), current.SiteDetails...)
	site := next.SiteDetails[idx]
	if err := s.resolveSupervisor(ctx, &site, req.SupervisorUID); err != nil {
		return nil, err
	}
	if sameSupervisor(site.SupervisorUID, current.SiteDetails[idx].SupervisorUID) {
		return current, nil
	}
	site.Version++
	next.SiteDetails[idx] = site

	if err := s.repo.Update(ctx, &next, current.UpdatedAt); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "file changed while assigning; retry")
		}
		return nil, appErrors.Internal(err, "failed to assign supervisor")
	}
	s.afterWrite(ctx, &next, &before, actor.UserID, models.AuditActionSupervisorAssign)
	if s.sweeper != nil {
		s.sweeper.ScheduleForFile(next.FileNo)
	}
	return &next, nil
}

// AssignedSites lists the sites the acting supervisor is responsible for.
func (s *FileEntryService) AssignedSites(ctx context.Context, actor *models.JWTClaims) ([]dto.AssignedSite, error) {
	if err := s.access.Authorize(actor, authz.ObjectSites, authz.ActionRead); err != nil {
		return nil, err
	}
	files, err := s.repo.ListBySupervisor(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assigned sites")
	}
	open, err := s.pending.List(ctx, models.PendingUpdateFilter{
		Statuses:    []models.PendingUpdateStatus{models.PendingUpdateStatusPending},
		SubmittedBy: actor.UserID,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending updates")
	}

	sites := make([]dto.AssignedSite, 0)
	for _, file := range files {
		for _, site := range file.SiteDetails {
			if !site.SupervisedBy(actor.UserID) {
				continue
			}
			hasPending := false
			for i := range open {
				if open[i].FileNo == file.FileNo && open[i].TouchesSite(site.ID) {
					hasPending = true
					break
				}
			}
			sites = append(sites, dto.AssignedSite{
				FileNo:        file.FileNo,
				ApplicantName: file.ApplicantName,
				Site:          site,
				HasPending:    hasPending,
			})
		}
	}
	return sites, nil
}

func (s *FileEntryService) validateRequest(req dto.FileEntryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file payload")
	}
	for _, r := range req.RemittanceDetails {
		if r.Amount.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, "remittance amounts cannot be negative")
		}
	}
	for _, p := range req.PaymentDetails {
		if p.Amount.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, "payment amounts cannot be negative")
		}
	}
	names := make(map[string]bool, len(req.SiteDetails))
	for _, site := range req.SiteDetails {
		key := strings.ToLower(strings.TrimSpace(site.NameOfSite))
		if names[key] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("site name %q is used twice", site.NameOfSite))
		}
		names[key] = true
	}
	return nil
}

// mergeSites reconciles requested sites with the stored ones. It reports
// whether any existing site lost or changed its supervisor.
func (s *FileEntryService) mergeSites(ctx context.Context, existing models.SiteDetails, requested []models.SiteDetail) (models.SiteDetails, bool, error) {
	byID := make(map[string]models.SiteDetail, len(existing))
	for _, site := range existing {
		byID[site.ID] = site
	}
	kept := make(map[string]bool, len(requested))
	merged := make(models.SiteDetails, 0, len(requested))
	reassigned := false

	for _, site := range requested {
		site.NameOfSite = strings.TrimSpace(site.NameOfSite)
		if err := s.resolveSupervisor(ctx, &site, site.SupervisorUID); err != nil {
			return nil, false, err
		}
		prior, known := byID[site.ID]
		switch {
		case site.ID == "":
			site.ID = uuid.NewString()
			site.Version = 1
		case !known:
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("site %s does not belong to this file", site.ID))
		default:
			kept[site.ID] = true
			site.Version = prior.Version
			if len(DiffSites(prior, site)) > 0 {
				site.Version++
			}
			if !sameSupervisor(prior.SupervisorUID, site.SupervisorUID) {
				reassigned = true
			}
		}
		merged = append(merged, site)
	}
	for _, site := range existing {
		if !kept[site.ID] && site.SupervisorUID != nil {
			reassigned = true
		}
	}
	return merged, reassigned, nil
}

// resolveSupervisor validates uid against the staff registry and stamps the
// supervisor's display name on site.
func (s *FileEntryService) resolveSupervisor(ctx context.Context, site *models.SiteDetail, uid *string) error {
	if uid == nil || strings.TrimSpace(*uid) == "" {
		site.SupervisorUID = nil
		site.SupervisorName = ""
		return nil
	}
	id := strings.TrimSpace(*uid)
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("supervisor %s is not registered", id))
		}
		return appErrors.Internal(err, "failed to load supervisor")
	}
	if user.Role != models.RoleSupervisor || !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not an active supervisor", user.FullName))
	}
	site.SupervisorUID = &id
	site.SupervisorName = user.FullName
	return nil
}

func (s *FileEntryService) load(ctx context.Context, fileNo string) (*models.FileEntry, error) {
	file, err := s.repo.FindByFileNo(ctx, fileNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("file %s not found", fileNo))
		}
		return nil, appErrors.Internal(err, "failed to load file")
	}
	return file, nil
}

func (s *FileEntryService) afterWrite(ctx context.Context, file, before *models.FileEntry, actorID, action string) {
	if s.search != nil {
		s.search.IndexFile(*file)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.String("file_no", file.FileNo), zap.Error(err))
		}
	}
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "file_entry",
		ResourceID: &file.FileNo,
		IPAddress:  "system",
		UserAgent:  "file-entry-service",
	}
	log.NewValues, _ = json.Marshal(file)
	if before != nil {
		log.OldValues, _ = json.Marshal(before)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func applyFileRequest(file *models.FileEntry, req dto.FileEntryRequest) {
	file.FileNo = strings.TrimSpace(req.FileNo)
	file.ApplicantName = strings.TrimSpace(req.ApplicantName)
	file.PhoneNo = req.PhoneNo
	file.ApplicationType = req.ApplicationType
	file.FileStatus = req.FileStatus
	file.Remarks = req.Remarks
	file.RemittanceDetails = append(models.Remittances{}, req.RemittanceDetails...)
	file.PaymentDetails = append(models.Payments{}, req.PaymentDetails...)
}

func sameSupervisor(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
