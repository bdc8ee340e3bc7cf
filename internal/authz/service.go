package authz

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
)

//go:embed model.conf
var modelConf string

// Object names a protected resource.
type Object string

// Action names an operation on an Object.
type Action string

const (
	ObjectFiles          Object = "files"
	ObjectSites          Object = "sites"
	ObjectPendingUpdates Object = "pending_updates"
	ObjectUsers          Object = "users"
	ObjectDashboard      Object = "dashboard"
	ObjectExports        Object = "exports"

	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionAssign Action = "assign"
	ActionSubmit Action = "submit"
	ActionReview Action = "review"
	ActionSweep  Action = "sweep"
	ActionCreate Action = "create"
	ActionAll    Action = "*"
)

// DefaultPolicies is the role permission table loaded at startup.
var DefaultPolicies = [][]string{
	{string(models.RoleEditor), string(ObjectFiles), string(ActionAll)},
	{string(models.RoleEditor), string(ObjectSites), string(ActionAll)},
	{string(models.RoleEditor), string(ObjectPendingUpdates), string(ActionRead)},
	{string(models.RoleEditor), string(ObjectPendingUpdates), string(ActionReview)},
	{string(models.RoleEditor), string(ObjectPendingUpdates), string(ActionSweep)},
	{string(models.RoleEditor), string(ObjectUsers), string(ActionAll)},
	{string(models.RoleEditor), string(ObjectDashboard), string(ActionRead)},
	{string(models.RoleEditor), string(ObjectExports), string(ActionAll)},

	{string(models.RoleSupervisor), string(ObjectFiles), string(ActionRead)},
	{string(models.RoleSupervisor), string(ObjectSites), string(ActionRead)},
	{string(models.RoleSupervisor), string(ObjectPendingUpdates), string(ActionRead)},
	{string(models.RoleSupervisor), string(ObjectPendingUpdates), string(ActionSubmit)},
	{string(models.RoleSupervisor), string(ObjectDashboard), string(ActionRead)},

	{string(models.RoleViewer), string(ObjectFiles), string(ActionRead)},
	{string(models.RoleViewer), string(ObjectPendingUpdates), string(ActionRead)},
	{string(models.RoleViewer), string(ObjectDashboard), string(ActionRead)},
	{string(models.RoleViewer), string(ObjectExports), string(ActionCreate)},
	{string(models.RoleViewer), string(ObjectExports), string(ActionRead)},
}

// Service answers role permission and site assignment questions.
type Service struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewService builds an enforcer from the embedded model and the given
// policies. Nil policies load DefaultPolicies.
func NewService(policies [][]string, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policies == nil {
		policies = DefaultPolicies
	}
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if len(policies) > 0 {
		if _, err := enf.AddPolicies(policies); err != nil {
			return nil, fmt.Errorf("authz: failed to load policies: %w", err)
		}
	}
	return &Service{enforcer: enf, logger: logger.With(zap.String("component", "authz"))}, nil
}

// Can evaluates a role permission without returning an authorization error.
func (s *Service) Can(role models.UserRole, object Object, action Action) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(string(role), string(object), string(action))
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return allowed, nil
}

// Authorize returns an error if the actor's role may not perform action on object.
func (s *Service) Authorize(actor *models.JWTClaims, object Object, action Action) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	allowed, err := s.Can(actor.Role, object, action)
	if err != nil {
		return appErrors.Internal(err, "failed to evaluate permissions")
	}
	if !allowed {
		s.logger.Warn("authz denied request",
			zap.String("subject", actor.UserID),
			zap.String("role", string(actor.Role)),
			zap.String("object", string(object)),
			zap.String("action", string(action)),
		)
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("%s may not %s %s", actor.Role, action, object))
	}
	return nil
}

// CanEditSite checks that actor may propose changes to site: the role must
// allow submissions and the site must be assigned to the actor.
func (s *Service) CanEditSite(actor *models.JWTClaims, site models.SiteDetail) error {
	if err := s.Authorize(actor, ObjectPendingUpdates, ActionSubmit); err != nil {
		return err
	}
	if !site.SupervisedBy(actor.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("site %q is not assigned to you", site.NameOfSite))
	}
	return nil
}

// HoldsAssignment reports whether uid, currently holding role, still owns
// site. An empty role skips the role check.
func (s *Service) HoldsAssignment(uid string, role models.UserRole, site models.SiteDetail) bool {
	if role != "" {
		allowed, err := s.Can(role, ObjectPendingUpdates, ActionSubmit)
		if err != nil {
			s.logger.Warn("failed to evaluate assignment role", zap.String("uid", uid), zap.Error(err))
			return false
		}
		if !allowed {
			return false
		}
	}
	return site.SupervisedBy(uid)
}

// AddPolicy grants role the action on object at runtime.
func (s *Service) AddPolicy(role models.UserRole, object Object, action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.enforcer.AddPolicy(string(role), string(object), string(action)); err != nil {
		return fmt.Errorf("authz: add policy: %w", err)
	}
	return nil
}
