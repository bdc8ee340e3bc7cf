package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/dto"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/internal/repository"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}

type supervisorClearer interface {
	ClearSupervisor(ctx context.Context, uid string) ([]string, int, error)
}

type submitterSweepScheduler interface {
	ScheduleForSubmitter(uid string) bool
}

// UserService manages the staff registry.
type UserService struct {
	repo      userRepository
	sites     supervisorClearer
	sweeper   submitterSweepScheduler
	access    accessControl
	audit     auditLogger
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService. sweeper may be nil, in
// which case orphaned updates are picked up by the periodic sweep.
func NewUserService(
	repo userRepository,
	sites supervisorClearer,
	sweeper submitterSweepScheduler,
	access accessControl,
	audit auditLogger,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:      repo,
		sites:     sites,
		sweeper:   sweeper,
		access:    access,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter, actor *models.JWTClaims) ([]models.User, *response.Pagination, error) {
	if err := s.access.Authorize(actor, authz.ObjectUsers, authz.ActionRead); err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, &response.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.User, error) {
	if err := s.access.Authorize(actor, authz.ObjectUsers, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create registers a staff member under the identity provider's uid.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.access.Authorize(actor, authz.ObjectUsers, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	user := &models.User{
		ID:       strings.TrimSpace(req.ID),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		FullName: strings.TrimSpace(req.FullName),
		Role:     req.Role,
		Active:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role})
	s.recordAudit(ctx, actor.UserID, models.AuditActionUserCreate, user.ID, nil, newPayload)
	return user, nil
}

// ChangeRole moves a user to another role. Leaving the SUPERVISOR role clears
// the user from every site they supervised and queues an orphan sweep for
// their pending updates.
func (s *UserService) ChangeRole(ctx context.Context, id string, req dto.ChangeRoleRequest, actor *models.JWTClaims) (*dto.RoleChangeResult, error) {
	if err := s.access.Authorize(actor, authz.ObjectUsers, authz.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &dto.RoleChangeResult{User: user}
	if user.Role == req.Role {
		return result, nil
	}

	previous := user.Role
	if err := s.repo.UpdateRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update role")
	}
	user.Role = req.Role

	if previous == models.RoleSupervisor {
		fileNos, cleared, err := s.sites.ClearSupervisor(ctx, id)
		if err != nil {
			// The role already changed; the periodic sweep still catches the
			// updates, but the sites keep pointing at this user until retried.
			s.logger.Error("failed to clear supervisor from sites", zap.String("uid", id), zap.Error(err))
		} else {
			result.SitesUnassigned = cleared
			s.logger.Info("cleared supervisor assignments",
				zap.String("uid", id), zap.Int("sites", cleared), zap.Strings("files", fileNos))
		}
		if s.sweeper != nil {
			result.OrphanSweepQueued = s.sweeper.ScheduleForSubmitter(id)
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
				s.logger.Warn("failed to invalidate dashboard cache", zap.String("uid", id), zap.Error(err))
			}
		}
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": previous})
	newPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role, "sites_unassigned": result.SitesUnassigned})
	s.recordAudit(ctx, actor.UserID, models.AuditActionUserRoleChange, user.ID, oldPayload, newPayload)
	return result, nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func (s *UserService) recordAudit(ctx context.Context, actorID, action, userID string, oldValues, newValues []byte) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "user-service",
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}
