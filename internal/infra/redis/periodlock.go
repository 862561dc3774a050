package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PeriodLock grants a named period to exactly one engine instance.
// Acquire is first-writer-wins across the cluster, so scheduled jobs
// such as retention cleanup run once per period even when several
// replicas tick at the same time.
type PeriodLock struct {
	client *goredis.Client
	prefix string
}

func NewPeriodLock(client *goredis.Client, prefix string) (*PeriodLock, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("lock prefix is required")
	}

	return &PeriodLock{client: client, prefix: prefix}, nil
}

// Acquire claims the given period, returning true when this caller won it.
// The key expires after ttl so stale locks never block a future period.
func (l *PeriodLock) Acquire(ctx context.Context, period string, ttl time.Duration) (bool, error) {
	if l == nil || l.client == nil {
		return false, fmt.Errorf("period lock is not initialized")
	}

	period = strings.TrimSpace(period)
	if period == "" {
		return false, fmt.Errorf("period is required")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be positive")
	}

	key := fmt.Sprintf("%s:%s", l.prefix, period)
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire period lock %q: %w", key, err)
	}

	return ok, nil
}
