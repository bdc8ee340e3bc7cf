package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/pkg/jobs"
)

const orphanSweepJobType = "orphan_sweep"

type orphanDetector interface {
	DetectOrphans(ctx context.Context, scope models.OrphanScope) ([]models.PendingUpdate, error)
}

type jobQueue interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(job jobs.Job) error
}

// OrphanSweeper runs orphan detection in the background: on demand after a
// role change or site reassignment, and periodically over every pending update.
type OrphanSweeper struct {
	detector orphanDetector
	queue    jobQueue
	interval time.Duration
	metrics  *MetricsService
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OrphanSweeperConfig configures the sweeper's worker pool.
type OrphanSweeperConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Interval   time.Duration
}

// NewOrphanSweeper constructs a sweeper backed by an in-memory job queue.
func NewOrphanSweeper(detector orphanDetector, cfg OrphanSweeperConfig, metrics *MetricsService, logger *zap.Logger) *OrphanSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OrphanSweeper{
		detector: detector,
		interval: cfg.Interval,
		metrics:  metrics,
		logger:   logger,
	}
	s.queue = jobs.NewQueue("orphan-sweep", s.Handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers and, when an interval is configured, the periodic sweep.
func (s *OrphanSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.schedule("all", models.OrphanScope{})
			}
		}
	}()
}

// Stop halts the periodic sweep and drains the workers.
func (s *OrphanSweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.queue.Stop()
}

// ScheduleForSubmitter queues a sweep of everything uid has pending.
func (s *OrphanSweeper) ScheduleForSubmitter(uid string) bool {
	if uid == "" {
		return false
	}
	return s.schedule("submitter:"+uid, models.OrphanScope{SubmittedBy: uid})
}

// ScheduleForFile queues a sweep of the pending updates against fileNo.
func (s *OrphanSweeper) ScheduleForFile(fileNo string) bool {
	if fileNo == "" {
		return false
	}
	return s.schedule("file:"+fileNo, models.OrphanScope{FileNo: fileNo})
}

func (s *OrphanSweeper) schedule(key string, scope models.OrphanScope) bool {
	err := s.queue.Enqueue(jobs.Job{Type: orphanSweepJobType, Key: key, Payload: scope})
	switch {
	case err == nil:
		return true
	case errors.Is(err, jobs.ErrDuplicate):
		return true
	default:
		s.logger.Warn("failed to schedule orphan sweep", zap.String("key", key), zap.Error(err))
		return false
	}
}

// Handle processes one sweep job.
func (s *OrphanSweeper) Handle(ctx context.Context, job jobs.Job) error {
	scope, _ := job.Payload.(models.OrphanScope)
	start := time.Now()
	transitioned, err := s.detector.DetectOrphans(ctx, scope)
	s.metrics.ObserveOrphanSweep(time.Since(start))
	if err != nil {
		return err
	}
	s.logger.Debug("orphan sweep finished",
		zap.String("key", job.Key), zap.Int("transitioned", len(transitioned)), zap.Int("attempt", job.Attempt))
	return nil
}
