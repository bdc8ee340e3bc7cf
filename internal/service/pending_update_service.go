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
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/internal/repository"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/pubsub"
)

// DefaultPendingUpdatesTopic carries PendingUpdateEvent messages.
const DefaultPendingUpdatesTopic = "gwd:pending-updates"

type pendingUpdateStore interface {
	Create(ctx context.Context, update *models.PendingUpdate) error
	GetByID(ctx context.Context, id string) (*models.PendingUpdate, error)
	List(ctx context.Context, filter models.PendingUpdateFilter) ([]models.PendingUpdate, error)
	Transition(ctx context.Context, t models.PendingUpdateTransition) error
	ApproveAndMerge(ctx context.Context, file *models.FileEntry, expected time.Time, t models.PendingUpdateTransition) error
}

type fileEntryReader interface {
	FindByFileNo(ctx context.Context, fileNo string) (*models.FileEntry, error)
	ListByFileNos(ctx context.Context, fileNos []string) ([]models.FileEntry, error)
}

type accessControl interface {
	Authorize(actor *models.JWTClaims, object authz.Object, action authz.Action) error
	CanEditSite(actor *models.JWTClaims, site models.SiteDetail) error
	HoldsAssignment(uid string, role models.UserRole, site models.SiteDetail) bool
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type fileIndexer interface {
	IndexFile(file models.FileEntry)
}

// PendingUpdateEvent is published whenever a pending update is created or transitioned.
type PendingUpdateEvent struct {
	ID             string                     `json:"id"`
	FileNo         string                     `json:"fileNo"`
	SubmittedByUID string                     `json:"submittedByUid"`
	Status         models.PendingUpdateStatus `json:"status"`
}

// PendingUpdateService runs the supervisor proposal review workflow.
type PendingUpdateService struct {
	repo      pendingUpdateStore
	files     fileEntryReader
	access    accessControl
	audit     auditLogger
	events    pubsub.Broker
	topic     string
	users     userFinder
	indexer   fileIndexer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// PendingUpdateServiceOption configures the service.
type PendingUpdateServiceOption func(*PendingUpdateService)

// WithPendingUpdateTopic overrides the event topic.
func WithPendingUpdateTopic(topic string) PendingUpdateServiceOption {
	return func(s *PendingUpdateService) {
		if topic != "" {
			s.topic = topic
		}
	}
}

// WithSubmitterRoles lets orphan detection consult the staff registry for the
// submitter's current role.
func WithSubmitterRoles(users userFinder) PendingUpdateServiceOption {
	return func(s *PendingUpdateService) {
		s.users = users
	}
}

// WithFileIndexer reindexes files merged by approvals.
func WithFileIndexer(indexer fileIndexer) PendingUpdateServiceOption {
	return func(s *PendingUpdateService) {
		s.indexer = indexer
	}
}

// WithDashboardCache invalidates the dashboard after workflow writes.
func WithDashboardCache(cache *CacheService) PendingUpdateServiceOption {
	return func(s *PendingUpdateService) {
		s.cache = cache
	}
}

// WithPendingUpdateMetrics records transition counters.
func WithPendingUpdateMetrics(metrics *MetricsService) PendingUpdateServiceOption {
	return func(s *PendingUpdateService) {
		s.metrics = metrics
	}
}

// NewPendingUpdateService constructs the service with defaults.
func NewPendingUpdateService(
	repo pendingUpdateStore,
	files fileEntryReader,
	access accessControl,
	audit auditLogger,
	events pubsub.Broker,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ...PendingUpdateServiceOption,
) *PendingUpdateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = pubsub.NewMemoryBroker()
	}
	registerSiteValidations(validate)
	svc := &PendingUpdateService{
		repo:      repo,
		files:     files,
		access:    access,
		audit:     audit,
		events:    events,
		topic:     DefaultPendingUpdatesTopic,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit records a supervisor's proposed site objects as a new pending update.
// Every proposed site must be assigned to the submitting supervisor.
func (s *PendingUpdateService) Submit(ctx context.Context, req dto.SubmitPendingUpdateRequest, actor *models.JWTClaims) (*models.PendingUpdate, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(actor.UserID) == "" || strings.TrimSpace(actor.DisplayName()) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submitter identity is required")
	}
	req.FileNo = strings.TrimSpace(req.FileNo)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pending update payload")
	}
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionSubmit); err != nil {
		return nil, err
	}

	file, err := s.loadFile(ctx, req.FileNo)
	if err != nil {
		return nil, err
	}

	proposed := make(models.SiteDetails, 0, len(req.UpdatedSiteDetails))
	seen := make(map[string]bool, len(req.UpdatedSiteDetails))
	for _, site := range req.UpdatedSiteDetails {
		idx, err := MatchSite(file, site)
		if err != nil {
			return nil, err
		}
		canonical := file.SiteDetails[idx]
		if seen[canonical.ID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("site %q appears more than once", canonical.NameOfSite))
		}
		seen[canonical.ID] = true
		if err := s.access.CanEditSite(actor, canonical); err != nil {
			return nil, err
		}
		if site.Version != 0 && site.Version != canonical.Version {
			return nil, appErrors.Clone(appErrors.ErrStaleSiteVersion, fmt.Sprintf("site %q changed since you opened it; reload before submitting", canonical.NameOfSite))
		}
		site.ID = canonical.ID
		site.Version = canonical.Version
		site.SupervisorUID = canonical.SupervisorUID
		site.SupervisorName = canonical.SupervisorName
		proposed = append(proposed, site)
	}

	open, err := s.repo.List(ctx, models.PendingUpdateFilter{
		FileNo:      file.FileNo,
		Statuses:    []models.PendingUpdateStatus{models.PendingUpdateStatusPending},
		SubmittedBy: actor.UserID,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check open pending updates")
	}
	for i := range open {
		for _, site := range proposed {
			if open[i].TouchesSite(site.ID) {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("site %q already has an update awaiting review", site.NameOfSite))
			}
		}
	}

	update := &models.PendingUpdate{
		FileNo:             file.FileNo,
		SubmittedByUID:     actor.UserID,
		SubmittedByName:    actor.DisplayName(),
		SubmittedAt:        s.now(),
		UpdatedSiteDetails: proposed,
		Status:             models.PendingUpdateStatusPending,
	}
	if err := s.repo.Create(ctx, update); err != nil {
		return nil, appErrors.Internal(err, "failed to create pending update")
	}
	s.afterWrite(ctx, update, actor.UserID, models.AuditActionPendingUpdateSubmit)
	return update, nil
}

// List returns pending updates newest first. Supervisors only see their own.
func (s *PendingUpdateService) List(ctx context.Context, query dto.PendingUpdateQuery, actor *models.JWTClaims) ([]models.PendingUpdate, error) {
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionRead); err != nil {
		return nil, err
	}
	for _, status := range query.Statuses {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
		}
	}
	filter := models.PendingUpdateFilter{
		FileNo:   strings.TrimSpace(query.FileNo),
		Statuses: query.Statuses,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if actor.Role == models.RoleSupervisor || query.Mine {
		filter.SubmittedBy = actor.UserID
	}
	updates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending updates")
	}
	if updates == nil {
		updates = []models.PendingUpdate{}
	}
	return updates, nil
}

// Actionable lists updates an editor can approve or reject.
func (s *PendingUpdateService) Actionable(ctx context.Context, fileNo string, actor *models.JWTClaims) ([]models.PendingUpdate, error) {
	return s.List(ctx, dto.PendingUpdateQuery{
		FileNo:   fileNo,
		Statuses: []models.PendingUpdateStatus{models.PendingUpdateStatusPending},
	}, actor)
}

// ReassignQueue lists orphaned updates waiting for a new site supervisor.
func (s *PendingUpdateService) ReassignQueue(ctx context.Context, fileNo string, actor *models.JWTClaims) ([]models.PendingUpdate, error) {
	return s.List(ctx, dto.PendingUpdateQuery{
		FileNo:   fileNo,
		Statuses: []models.PendingUpdateStatus{models.PendingUpdateStatusSupervisorUnassigned},
	}, actor)
}

// Get returns one update. Supervisors may only read their own.
func (s *PendingUpdateService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PendingUpdate, error) {
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionRead); err != nil {
		return nil, err
	}
	update, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleSupervisor && update.SubmittedByUID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return update, nil
}

// Subscribe pushes the current list to fn immediately and again after every
// relevant change. The returned function stops the subscription; cancelling
// ctx does the same.
func (s *PendingUpdateService) Subscribe(ctx context.Context, query dto.PendingUpdateQuery, actor *models.JWTClaims, fn func([]models.PendingUpdate)) (func(), error) {
	initial, err := s.List(ctx, query, actor)
	if err != nil {
		return nil, err
	}
	messages, unsubscribe, err := s.events.Subscribe(ctx, s.topic)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "live updates unavailable")
	}
	fn(initial)

	submitter := ""
	if actor.Role == models.RoleSupervisor || query.Mine {
		submitter = actor.UserID
	}
	go func() {
		for msg := range messages {
			var event PendingUpdateEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				s.logger.Warn("discarding malformed pending update event", zap.Error(err))
				continue
			}
			if query.FileNo != "" && event.FileNo != query.FileNo {
				continue
			}
			if submitter != "" && event.SubmittedByUID != submitter {
				continue
			}
			updates, err := s.List(ctx, query, actor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("failed to refresh pending update subscription", zap.Error(err))
				continue
			}
			fn(updates)
		}
	}()
	return unsubscribe, nil
}

// Diff computes the field-level review of an update against the current file.
func (s *PendingUpdateService) Diff(ctx context.Context, id string, actor *models.JWTClaims) (*dto.PendingUpdateReview, error) {
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionReview); err != nil {
		return nil, err
	}
	update, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	file, err := s.loadFile(ctx, update.FileNo)
	if err != nil {
		return nil, err
	}
	sites, err := DiffUpdate(file, update)
	if err != nil {
		return nil, err
	}
	return &dto.PendingUpdateReview{Update: update, Sites: sites}, nil
}

// Reject marks a pending update rejected with the editor's reason. The record
// is kept; the supervisor may submit a fresh update afterwards.
func (s *PendingUpdateService) Reject(ctx context.Context, id string, req dto.RejectPendingUpdateRequest, actor *models.JWTClaims) (*models.PendingUpdate, error) {
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionReview); err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection reason is required")
	}
	update, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Status != models.PendingUpdateStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("update is %s, only pending updates can be rejected", update.Status))
	}

	reviewer := actor.UserID
	now := s.now()
	err = s.repo.Transition(ctx, models.PendingUpdateTransition{
		ID:         update.ID,
		Status:     models.PendingUpdateStatusRejected,
		Notes:      &notes,
		ReviewedBy: &reviewer,
		ReviewedAt: now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "update already processed")
		}
		return nil, appErrors.Internal(err, "failed to reject pending update")
	}
	update.Status = models.PendingUpdateStatusRejected
	update.Notes = &notes
	update.ReviewedBy = &reviewer
	update.ReviewedAt = &now
	s.afterWrite(ctx, update, reviewer, models.AuditActionPendingUpdateReject)
	return update, nil
}

// Approve merges the proposed sites into the file and marks the update
// approved in one transaction. A site whose version advanced since submission
// fails with STALE_SITE_VERSION.
func (s *PendingUpdateService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ApprovalResult, error) {
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionReview); err != nil {
		return nil, err
	}
	update, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Status != models.PendingUpdateStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("update is %s, only pending updates can be approved", update.Status))
	}
	file, err := s.loadFile(ctx, update.FileNo)
	if err != nil {
		return nil, err
	}
	for _, proposed := range update.UpdatedSiteDetails {
		if _, err := MatchSite(file, proposed); err != nil {
			return nil, err
		}
	}
	role, err := s.submitterRole(ctx, update.SubmittedByUID, make(map[string]models.UserRole))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve submitter role")
	}
	if reason := s.orphanReason(update, file, role); reason != "" {
		if _, err := s.flagOrphan(ctx, *update, reason); err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to flag orphaned pending update", zap.String("id", update.ID), zap.Error(err))
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s; the update needs re-assignment before review", reason))
	}

	merged := *file
	merged.SiteDetails = append(models.SiteDetails(nil), file.SiteDetails...)
	for _, proposed := range update.UpdatedSiteDetails {
		idx, err := MatchSite(&merged, proposed)
		if err != nil {
			return nil, err
		}
		canonical := merged.SiteDetails[idx]
		if proposed.Version != canonical.Version {
			return nil, appErrors.Clone(appErrors.ErrStaleSiteVersion, fmt.Sprintf("site %q changed since this update was submitted; review it again", canonical.NameOfSite))
		}
		next := proposed
		next.ID = canonical.ID
		next.SupervisorUID = canonical.SupervisorUID
		next.SupervisorName = canonical.SupervisorName
		next.Version = canonical.Version + 1
		merged.SiteDetails[idx] = next
	}
	merged.RecomputeTotals()

	reviewer := actor.UserID
	now := s.now()
	err = s.repo.ApproveAndMerge(ctx, &merged, file.UpdatedAt, models.PendingUpdateTransition{
		ID:         update.ID,
		Status:     models.PendingUpdateStatusApproved,
		ReviewedBy: &reviewer,
		ReviewedAt: now,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrConflict, "update already processed")
		case errors.Is(err, repository.ErrStaleWrite):
			return nil, appErrors.Clone(appErrors.ErrStaleSiteVersion, "file changed while approving; review the update again")
		default:
			return nil, appErrors.Internal(err, "failed to approve pending update")
		}
	}
	update.Status = models.PendingUpdateStatusApproved
	update.ReviewedBy = &reviewer
	update.ReviewedAt = &now
	s.afterWrite(ctx, update, reviewer, models.AuditActionPendingUpdateApprove)
	if s.indexer != nil {
		s.indexer.IndexFile(merged)
	}
	return &dto.ApprovalResult{Update: update, File: &merged, PendingUpdateID: update.ID}, nil
}

// DetectOrphans moves every pending update in scope whose submitter no longer
// holds the referenced site to supervisor-unassigned. Running it again is a no-op.
func (s *PendingUpdateService) DetectOrphans(ctx context.Context, scope models.OrphanScope) ([]models.PendingUpdate, error) {
	pending, err := s.repo.List(ctx, models.PendingUpdateFilter{
		FileNo:      scope.FileNo,
		SubmittedBy: scope.SubmittedBy,
		Statuses:    []models.PendingUpdateStatus{models.PendingUpdateStatusPending},
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending updates")
	}
	if len(pending) == 0 {
		return []models.PendingUpdate{}, nil
	}

	fileNos := make([]string, 0, len(pending))
	seenFiles := make(map[string]bool)
	for _, update := range pending {
		if !seenFiles[update.FileNo] {
			seenFiles[update.FileNo] = true
			fileNos = append(fileNos, update.FileNo)
		}
	}
	files, err := s.files.ListByFileNos(ctx, fileNos)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load files for orphan detection")
	}
	byFileNo := make(map[string]*models.FileEntry, len(files))
	for i := range files {
		byFileNo[files[i].FileNo] = &files[i]
	}

	roles := make(map[string]models.UserRole)
	transitioned := make([]models.PendingUpdate, 0)
	for i := range pending {
		update := pending[i]
		role, err := s.submitterRole(ctx, update.SubmittedByUID, roles)
		if err != nil {
			s.logger.Warn("failed to resolve submitter role", zap.String("uid", update.SubmittedByUID), zap.Error(err))
			continue
		}
		reason := s.orphanReason(&update, byFileNo[update.FileNo], role)
		if reason == "" {
			continue
		}
		flagged, err := s.flagOrphan(ctx, update, reason)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("failed to flag orphaned pending update", zap.String("id", update.ID), zap.Error(err))
			}
			continue
		}
		transitioned = append(transitioned, *flagged)
	}
	if len(transitioned) > 0 {
		s.logger.Info("flagged orphaned pending updates", zap.Int("count", len(transitioned)),
			zap.String("submitted_by", scope.SubmittedBy), zap.String("file_no", scope.FileNo))
	}
	return transitioned, nil
}

// SweepOrphans is DetectOrphans for an actor-initiated sweep.
func (s *PendingUpdateService) SweepOrphans(ctx context.Context, req dto.OrphanSweepRequest, actor *models.JWTClaims) (*dto.OrphanSweepResult, error) {
	if err := s.access.Authorize(actor, authz.ObjectPendingUpdates, authz.ActionSweep); err != nil {
		return nil, err
	}
	transitioned, err := s.DetectOrphans(ctx, models.OrphanScope{
		SubmittedBy: strings.TrimSpace(req.SubmittedBy),
		FileNo:      strings.TrimSpace(req.FileNo),
	})
	if err != nil {
		return nil, err
	}
	return &dto.OrphanSweepResult{Transitioned: transitioned, Count: len(transitioned)}, nil
}

// flagOrphan moves a pending update to supervisor-unassigned with system
// notes. sql.ErrNoRows means it already left pending.
func (s *PendingUpdateService) flagOrphan(ctx context.Context, update models.PendingUpdate, reason string) (*models.PendingUpdate, error) {
	notes := fmt.Sprintf("System: %s. Re-assign the site before this update can be reviewed.", reason)
	now := s.now()
	err := s.repo.Transition(ctx, models.PendingUpdateTransition{
		ID:         update.ID,
		Status:     models.PendingUpdateStatusSupervisorUnassigned,
		Notes:      &notes,
		ReviewedAt: now,
	})
	if err != nil {
		return nil, err
	}
	update.Status = models.PendingUpdateStatusSupervisorUnassigned
	update.Notes = &notes
	update.ReviewedAt = &now
	s.afterWrite(ctx, &update, "", models.AuditActionPendingUpdateOrphaned)
	return &update, nil
}

func (s *PendingUpdateService) orphanReason(update *models.PendingUpdate, file *models.FileEntry, role models.UserRole) string {
	if file == nil {
		return fmt.Sprintf("file %s no longer exists", update.FileNo)
	}
	for _, proposed := range update.UpdatedSiteDetails {
		idx, err := MatchSite(file, proposed)
		if err != nil {
			return fmt.Sprintf("site %q no longer exists in file %s", proposed.NameOfSite, file.FileNo)
		}
		if !s.access.HoldsAssignment(update.SubmittedByUID, role, file.SiteDetails[idx]) {
			return fmt.Sprintf("site %q is no longer assigned to %s", file.SiteDetails[idx].NameOfSite, update.SubmittedByName)
		}
	}
	return ""
}

// submitterRole returns the submitter's current role, or "" when no registry
// is wired. Unknown submitters resolve to the viewer role.
func (s *PendingUpdateService) submitterRole(ctx context.Context, uid string, cache map[string]models.UserRole) (models.UserRole, error) {
	if s.users == nil {
		return "", nil
	}
	if role, ok := cache[uid]; ok {
		return role, nil
	}
	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		cache[uid] = models.RoleViewer
		return models.RoleViewer, nil
	}
	role := user.Role
	if !user.Active {
		role = models.RoleViewer
	}
	cache[uid] = role
	return role, nil
}

func (s *PendingUpdateService) load(ctx context.Context, id string) (*models.PendingUpdate, error) {
	update, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pending update not found")
		}
		return nil, appErrors.Internal(err, "failed to load pending update")
	}
	return update, nil
}

func (s *PendingUpdateService) loadFile(ctx context.Context, fileNo string) (*models.FileEntry, error) {
	file, err := s.files.FindByFileNo(ctx, fileNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("file %s not found", fileNo))
		}
		return nil, appErrors.Internal(err, "failed to load file entry")
	}
	return file, nil
}

// afterWrite records the side effects of a workflow write. Failures are logged
// and never fail the write itself.
func (s *PendingUpdateService) afterWrite(ctx context.Context, update *models.PendingUpdate, actorID, action string) {
	s.metrics.RecordPendingUpdateTransition(update.Status)

	payload, err := json.Marshal(PendingUpdateEvent{
		ID:             update.ID,
		FileNo:         update.FileNo,
		SubmittedByUID: update.SubmittedByUID,
		Status:         update.Status,
	})
	if err == nil {
		err = s.events.Publish(ctx, s.topic, payload)
	}
	if err != nil {
		s.logger.Warn("failed to publish pending update event", zap.String("id", update.ID), zap.Error(err))
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.String("id", update.ID), zap.Error(err))
		}
	}

	if s.audit == nil {
		return
	}
	snapshot, _ := json.Marshal(update)
	log := &models.AuditLog{
		Action:     action,
		Resource:   "pending_update",
		ResourceID: &update.ID,
		NewValues:  snapshot,
		IPAddress:  "system",
		UserAgent:  "pending-update-service",
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
