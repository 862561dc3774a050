package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRetentionSweepDeletesExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	var gotCutoff int64
	notifications := &fakeNotificationRepo{
		deleteOlderThanFn: func(ctx context.Context, postedBefore int64) (int64, error) {
			gotCutoff = postedBefore
			return 12, nil
		},
	}

	var gotPeriod string
	lock := &fakePeriodLock{
		acquireFn: func(ctx context.Context, period string, ttl time.Duration) (bool, error) {
			gotPeriod = period
			return true, nil
		},
	}

	svc, err := NewRetentionService(notifications, lock, 24*time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRetentionService() error = %v", err)
	}
	svc.now = func() time.Time { return now }

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if gotPeriod != "2026-08-30" {
		t.Fatalf("lock period = %q, want 2026-08-30", gotPeriod)
	}
	wantCutoff := now.Add(-24 * time.Hour).UnixMilli()
	if gotCutoff != wantCutoff {
		t.Fatalf("cutoff = %d, want %d", gotCutoff, wantCutoff)
	}
}

func TestRetentionSweepSkipsWhenLockLost(t *testing.T) {
	t.Parallel()

	deleteCalled := false
	notifications := &fakeNotificationRepo{
		deleteOlderThanFn: func(ctx context.Context, postedBefore int64) (int64, error) {
			deleteCalled = true
			return 0, nil
		},
	}
	lock := &fakePeriodLock{
		acquireFn: func(ctx context.Context, period string, ttl time.Duration) (bool, error) {
			return false, nil
		},
	}

	svc, err := NewRetentionService(notifications, lock, 24*time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRetentionService() error = %v", err)
	}

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if deleteCalled {
		t.Fatal("a replica that lost the period lock must not sweep")
	}
}

func TestRetentionDefaultWindow(t *testing.T) {
	t.Parallel()

	svc, err := NewRetentionService(&fakeNotificationRepo{}, nil, 0, nil)
	if err != nil {
		t.Fatalf("NewRetentionService() error = %v", err)
	}
	if svc.retention != defaultRetention {
		t.Fatalf("retention = %v, want %v", svc.retention, defaultRetention)
	}
}
