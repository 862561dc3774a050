package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/notifa-ai/notifa-engine/internal/domain"
)

// BatchItem is one notification handed to the digest call.
type BatchItem struct {
	AppName string
	Title   string
	Body    string
}

// Classifier is the cloud classification port. Implementations must keep
// failures inside the stated contract: ClassifyPriority may return an error
// (callers map it to IMPORTANT), the summarize calls always return usable text.
type Classifier interface {
	ClassifyPriority(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error)
	SummarizeBatch(ctx context.Context, items []BatchItem) (string, error)
	SummarizeOne(ctx context.Context, title, body, appName string) (string, error)
}

const emptyBatchDigest = "No pending notifications."

// ParsePriorityResponse is the single translation point between the model's
// free-text answer and the closed priority type. Matching is case-insensitive
// contains, most specific label first; anything unrecognized becomes IMPORTANT.
func ParsePriorityResponse(response string) domain.Priority {
	normalized := strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.Contains(normalized, "my priority"):
		return domain.PriorityMyPriority
	case strings.Contains(normalized, "important"):
		return domain.PriorityImportant
	case strings.Contains(normalized, "promotional"):
		return domain.PriorityPromotional
	case strings.Contains(normalized, "spam"):
		return domain.PrioritySpam
	case strings.Contains(normalized, "ignore"):
		return domain.PriorityIgnore
	default:
		return domain.PriorityImportant
	}
}

// FallbackDigest builds the deterministic count-based sentence used when the
// summarization call fails.
func FallbackDigest(items []BatchItem) string {
	if len(items) == 0 {
		return emptyBatchDigest
	}

	seen := make(map[string]struct{}, len(items))
	apps := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.AppName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		apps = append(apps, name)
	}

	const maxNamed = 3
	suffix := ""
	if len(apps) > maxNamed {
		apps = apps[:maxNamed]
		suffix = ", …"
	}

	noun := "notifications"
	if len(items) == 1 {
		noun = "notification"
	}

	if len(apps) == 0 {
		return fmt.Sprintf("%d %s pending", len(items), noun)
	}

	return fmt.Sprintf("%d %s from %s%s", len(items), noun, strings.Join(apps, ", "), suffix)
}
