package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/flags"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

const dispatchTickInterval = time.Minute

// SummaryRefresher rebuilds the sticky summary on demand.
type SummaryRefresher interface {
	RefreshSummary(ctx context.Context) error
}

// BatchDispatcher fires a summary rebuild at each user-configured batch time.
// Schedules are minutes of the day; the dispatcher checks once per minute and
// the last-batch flag keeps a restart inside the same minute from firing twice.
type BatchDispatcher struct {
	schedules repository.BatchScheduleRepository
	refresher SummaryRefresher
	flags     flags.Store
	logger    *zap.Logger
	now       func() time.Time
	interval  time.Duration
}

func NewBatchDispatcher(
	schedules repository.BatchScheduleRepository,
	refresher SummaryRefresher,
	flagStore flags.Store,
	logger *zap.Logger,
) (*BatchDispatcher, error) {
	if schedules == nil {
		return nil, fmt.Errorf("schedule repository is required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("summary refresher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchDispatcher{
		schedules: schedules,
		refresher: refresher,
		flags:     flagStore,
		logger:    logger,
		now:       time.Now,
		interval:  dispatchTickInterval,
	}, nil
}

func (s *BatchDispatcher) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Check(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("batch dispatch check failed", zap.Error(err))
			}
		}
	}
}

// Check fires the summary rebuild when the current minute matches an enabled
// schedule and no dispatch has run in this minute yet.
func (s *BatchDispatcher) Check(ctx context.Context) error {
	now := s.now()
	minuteOfDay := now.Hour()*60 + now.Minute()

	enabled, err := s.schedules.GetEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load batch schedules: %w", err)
	}

	due := false
	for _, schedule := range enabled {
		if schedule.TimeInMinutes == minuteOfDay {
			due = true
			break
		}
	}
	if !due {
		return nil
	}

	if s.flags != nil {
		last, err := s.flags.GetInt64(ctx, flags.KeyLastBatchTime)
		if err != nil {
			s.logger.Warn("failed to read last batch time", zap.Error(err))
		} else if sameMinute(last, now) {
			return nil
		}
	}

	s.logger.Info("scheduled batch dispatch", zap.Int("minuteOfDay", minuteOfDay))

	if err := s.refresher.RefreshSummary(ctx); err != nil {
		return fmt.Errorf("scheduled summary refresh failed: %w", err)
	}

	if s.flags != nil {
		if err := s.flags.SetInt64(ctx, flags.KeyLastBatchTime, now.UnixMilli()); err != nil {
			s.logger.Warn("failed to record last batch time", zap.Error(err))
		}
	}

	return nil
}

// CreateSchedule adds a batch time. Two schedules on the same minute would
// double-fire, so duplicates are a conflict.
func (s *BatchDispatcher) CreateSchedule(ctx context.Context, schedule *domain.BatchSchedule) error {
	if schedule == nil {
		return fmt.Errorf("%w: schedule is required", domain.ErrValidation)
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	existing, err := s.schedules.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load batch schedules: %w", err)
	}
	for _, other := range existing {
		if other.TimeInMinutes == schedule.TimeInMinutes {
			return fmt.Errorf("%w: schedule already exists at minute %d", domain.ErrConflict, schedule.TimeInMinutes)
		}
	}

	return s.schedules.Create(ctx, schedule)
}

// UpdateSchedule changes a schedule's time or enabled state.
func (s *BatchDispatcher) UpdateSchedule(ctx context.Context, schedule *domain.BatchSchedule) error {
	if schedule == nil || schedule.ID == 0 {
		return fmt.Errorf("%w: schedule id is required", domain.ErrValidation)
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	existing, err := s.schedules.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load batch schedules: %w", err)
	}
	found := false
	for _, other := range existing {
		if other.ID == schedule.ID {
			found = true
			continue
		}
		if other.TimeInMinutes == schedule.TimeInMinutes {
			return fmt.Errorf("%w: schedule already exists at minute %d", domain.ErrConflict, schedule.TimeInMinutes)
		}
	}
	if !found {
		return domain.ErrNotFound
	}

	return s.schedules.Update(ctx, schedule)
}

func sameMinute(lastMillis int64, now time.Time) bool {
	if lastMillis <= 0 {
		return false
	}
	last := time.UnixMilli(lastMillis)
	return last.Year() == now.Year() && last.YearDay() == now.YearDay() &&
		last.Hour() == now.Hour() && last.Minute() == now.Minute()
}
