package flags

import "context"

// Well-known flag keys shared with the device bridge.
const (
	KeyOnboardingCompleted   = "onboarding_completed"
	KeyNotificationPermitted = "notification_permission_granted"
	KeyUsageStatsPermitted   = "usage_stats_permission_granted"
	KeyLastBatchTime         = "last_batch_time"
)

// Store holds small device-level settings that survive restarts.
// Missing keys read as the zero value rather than an error.
type Store interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	GetInt64(ctx context.Context, key string) (int64, error)
	SetInt64(ctx context.Context, key string, value int64) error
}
