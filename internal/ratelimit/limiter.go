package ratelimit

import "context"

// RateLimiter caps call throughput for a named upstream scope.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
