package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifa-ai/notifa-engine/internal/observability"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

const (
	defaultRetention      = 24 * time.Hour
	retentionScanInterval = time.Hour
	retentionLockTTL      = 25 * time.Hour
)

// PeriodLocker grants a named period to one engine instance across the cluster.
type PeriodLocker interface {
	Acquire(ctx context.Context, period string, ttl time.Duration) (bool, error)
}

// RetentionService removes notifications older than the retention window once
// per day. The period lock keeps multiple replicas from sweeping the same day.
type RetentionService struct {
	notifications repository.NotificationRepository
	lock          PeriodLocker
	retention     time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
	interval      time.Duration
}

func NewRetentionService(
	notifications repository.NotificationRepository,
	lock PeriodLocker,
	retention time.Duration,
	logger *zap.Logger,
) (*RetentionService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetentionService{
		notifications: notifications,
		lock:          lock,
		retention:     retention,
		logger:        logger,
		now:           time.Now,
		interval:      retentionScanInterval,
	}, nil
}

func (s *RetentionService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *RetentionService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so a restart does not postpone cleanup a full interval.
	if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("retention initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep deletes notifications posted before the retention cutoff. At most one
// sweep runs per UTC day across all replicas.
func (s *RetentionService) Sweep(ctx context.Context) error {
	now := s.now().UTC()

	if s.lock != nil {
		won, err := s.lock.Acquire(ctx, now.Format("2006-01-02"), retentionLockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire retention lock: %w", err)
		}
		if !won {
			return nil
		}
	}

	cutoff := now.Add(-s.retention).UnixMilli()
	deleted, err := s.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete expired notifications: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AddRetentionDeleted(deleted)
	}
	if deleted > 0 {
		s.logger.Info("retention sweep completed",
			zap.Int64("deleted", deleted),
			zap.Int64("cutoff", cutoff),
		)
	}

	return nil
}
