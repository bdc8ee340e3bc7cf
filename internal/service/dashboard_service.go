package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
)

const (
	dashboardCacheKey     = "dash:summary"
	dashboardCachePattern = "dash:*"
)

type dashboardFileSource interface {
	All(ctx context.Context) ([]models.FileEntry, error)
}

type pendingUpdateCounter interface {
	CountByStatus(ctx context.Context) (map[models.PendingUpdateStatus]int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService aggregates the landing page summary.
type DashboardService struct {
	files   dashboardFileSource
	pending pendingUpdateCounter
	access  accessControl
	cache   *CacheService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Files   dashboardFileSource
	Pending pendingUpdateCounter
	Access  accessControl
	Cache   *CacheService
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		files:   params.Files,
		pending: params.Pending,
		access:  params.Access,
		cache:   params.Cache,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		cfg:     cfg,
	}
}

// Summary returns the records summary and whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context, actor *models.JWTClaims) (*models.DashboardSummary, bool, error) {
	if err := s.access.Authorize(actor, authz.ObjectDashboard, authz.ActionRead); err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		var cached models.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache unavailable, computing summary", zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, dashboardCachePattern)
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardSummary, error) {
	files, err := s.files.All(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load files for dashboard")
	}
	counts, err := s.pending.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count pending updates")
	}

	summary := &models.DashboardSummary{
		TotalFiles:        len(files),
		SitesByWorkStatus: make(map[models.WorkStatus]int),
		SitesByPurpose:    make(map[models.SitePurpose]int),
		PendingUpdates:    make(map[models.PendingUpdateStatus]int),
		TotalRemittance:   decimal.Zero,
		TotalPayment:      decimal.Zero,
		OverallBalance:    decimal.Zero,
		TotalEstimate:     decimal.Zero,
		TotalExpenditure:  decimal.Zero,
		GeneratedAt:       s.now(),
	}
	for _, status := range []models.PendingUpdateStatus{
		models.PendingUpdateStatusPending,
		models.PendingUpdateStatusApproved,
		models.PendingUpdateStatusRejected,
		models.PendingUpdateStatusSupervisorUnassigned,
	} {
		summary.PendingUpdates[status] = counts[status]
	}

	for i := range files {
		file := files[i]
		file.RecomputeTotals()
		summary.TotalRemittance = summary.TotalRemittance.Add(file.TotalRemittance)
		summary.TotalPayment = summary.TotalPayment.Add(file.TotalPayment)
		summary.OverallBalance = summary.OverallBalance.Add(file.OverallBalance)
		for _, site := range file.SiteDetails {
			summary.TotalSites++
			if site.WorkStatus != "" {
				summary.SitesByWorkStatus[site.WorkStatus]++
			}
			if site.Purpose != "" {
				summary.SitesByPurpose[site.Purpose]++
			}
			if site.SupervisorUID == nil {
				summary.UnassignedSites++
			}
			summary.TotalEstimate = summary.TotalEstimate.Add(site.EstimateAmount)
			summary.TotalExpenditure = summary.TotalExpenditure.Add(site.TotalExpenditure)
		}
	}
	return summary, nil
}
