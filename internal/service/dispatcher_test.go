package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/flags"
)

func newDispatcher(t *testing.T, schedules *fakeScheduleRepo, refresher *fakeRefresher, store *fakeFlagStore) *BatchDispatcher {
	t.Helper()

	var flagStore flags.Store
	if store != nil {
		flagStore = store
	}

	d, err := NewBatchDispatcher(schedules, refresher, flagStore, zap.NewNop())
	if err != nil {
		t.Fatalf("NewBatchDispatcher() error = %v", err)
	}
	return d
}

func TestDispatcherCheckFiresOnScheduledMinute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 9, 30, 5, 0, time.UTC)
	schedules := &fakeScheduleRepo{
		getEnabledFn: func(ctx context.Context) ([]domain.BatchSchedule, error) {
			return []domain.BatchSchedule{
				{ID: 1, TimeInMinutes: 9*60 + 30, Enabled: true},
			}, nil
		},
	}
	refresher := &fakeRefresher{}
	store := newFakeFlagStore()

	d := newDispatcher(t, schedules, refresher, store)
	d.now = func() time.Time { return now }

	if err := d.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if refresher.calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", refresher.calls)
	}
	if store.ints[flags.KeyLastBatchTime] != now.UnixMilli() {
		t.Fatalf("last batch time = %d, want %d", store.ints[flags.KeyLastBatchTime], now.UnixMilli())
	}
}

func TestDispatcherCheckSkipsSameMinuteRepeat(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 9, 30, 40, 0, time.UTC)
	schedules := &fakeScheduleRepo{
		getEnabledFn: func(ctx context.Context) ([]domain.BatchSchedule, error) {
			return []domain.BatchSchedule{
				{ID: 1, TimeInMinutes: 9*60 + 30, Enabled: true},
			}, nil
		},
	}
	refresher := &fakeRefresher{}
	store := newFakeFlagStore()
	store.ints[flags.KeyLastBatchTime] = now.Add(-20 * time.Second).UnixMilli()

	d := newDispatcher(t, schedules, refresher, store)
	d.now = func() time.Time { return now }

	if err := d.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if refresher.calls != 0 {
		t.Fatal("a dispatch already recorded in this minute must not fire again")
	}
}

func TestDispatcherCheckIdleMinute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 9, 31, 0, 0, time.UTC)
	schedules := &fakeScheduleRepo{
		getEnabledFn: func(ctx context.Context) ([]domain.BatchSchedule, error) {
			return []domain.BatchSchedule{
				{ID: 1, TimeInMinutes: 9*60 + 30, Enabled: true},
			}, nil
		},
	}
	refresher := &fakeRefresher{}

	d := newDispatcher(t, schedules, refresher, newFakeFlagStore())
	d.now = func() time.Time { return now }

	if err := d.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if refresher.calls != 0 {
		t.Fatal("no schedule matches this minute")
	}
}

func TestDispatcherCreateScheduleDuplicateMinute(t *testing.T) {
	t.Parallel()

	schedules := &fakeScheduleRepo{
		getAllFn: func(ctx context.Context) ([]domain.BatchSchedule, error) {
			return []domain.BatchSchedule{
				{ID: 1, TimeInMinutes: 540, Enabled: true},
			}, nil
		},
	}

	d := newDispatcher(t, schedules, &fakeRefresher{}, nil)

	err := d.CreateSchedule(context.Background(), &domain.BatchSchedule{TimeInMinutes: 540, Enabled: true})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("CreateSchedule() error = %v, want ErrConflict", err)
	}

	if err := d.CreateSchedule(context.Background(), &domain.BatchSchedule{TimeInMinutes: 600, Enabled: true}); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}
}

func TestDispatcherCreateScheduleInvalidMinute(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, &fakeScheduleRepo{}, &fakeRefresher{}, nil)

	err := d.CreateSchedule(context.Background(), &domain.BatchSchedule{TimeInMinutes: 1440, Enabled: true})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("CreateSchedule() error = %v, want ErrValidation", err)
	}
}

func TestDispatcherUpdateSchedule(t *testing.T) {
	t.Parallel()

	updated := false
	schedules := &fakeScheduleRepo{
		getAllFn: func(ctx context.Context) ([]domain.BatchSchedule, error) {
			return []domain.BatchSchedule{
				{ID: 1, TimeInMinutes: 540, Enabled: true},
				{ID: 2, TimeInMinutes: 1080, Enabled: true},
			}, nil
		},
		updateFn: func(ctx context.Context, s *domain.BatchSchedule) error {
			updated = true
			return nil
		},
	}

	d := newDispatcher(t, schedules, &fakeRefresher{}, nil)

	err := d.UpdateSchedule(context.Background(), &domain.BatchSchedule{ID: 1, TimeInMinutes: 1080, Enabled: true})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("UpdateSchedule() error = %v, want ErrConflict on colliding minute", err)
	}

	if err := d.UpdateSchedule(context.Background(), &domain.BatchSchedule{ID: 1, TimeInMinutes: 600, Enabled: false}); err != nil {
		t.Fatalf("UpdateSchedule() error = %v", err)
	}
	if !updated {
		t.Fatal("update should reach the repository")
	}

	err = d.UpdateSchedule(context.Background(), &domain.BatchSchedule{ID: 9, TimeInMinutes: 700, Enabled: true})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateSchedule() error = %v, want ErrNotFound", err)
	}
}
