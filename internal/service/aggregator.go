package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/notifa-ai/notifa-engine/internal/classifier"
	"github.com/notifa-ai/notifa-engine/internal/devicegw"
	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/observability"
	"github.com/notifa-ai/notifa-engine/internal/repository"
	"github.com/notifa-ai/notifa-engine/internal/stream"
)

const (
	maxDigestItems  = 20
	refreshCoalesce = 500 * time.Millisecond
)

// ViewState is the expand/collapse state of the sticky summary groups.
type ViewState struct {
	ExpandedLabel string `json:"expandedLabel"`
}

// AggregatorService owns the sticky summary: it rebuilds the render whenever
// the batch pool changes and pushes it to the device bridge.
type AggregatorService struct {
	notifications repository.NotificationRepository
	preferences   repository.AppPreferenceRepository
	classifier    classifier.Classifier
	gateway       devicegw.Gateway
	changes       *stream.Broadcaster
	logger        *zap.Logger
	metrics       *observability.Metrics
	coalesce      time.Duration

	mu       sync.Mutex
	expanded string
}

func NewAggregatorService(
	notifications repository.NotificationRepository,
	preferences repository.AppPreferenceRepository,
	cls classifier.Classifier,
	gateway devicegw.Gateway,
	changes *stream.Broadcaster,
	logger *zap.Logger,
) (*AggregatorService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if cls == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("device gateway is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AggregatorService{
		notifications: notifications,
		preferences:   preferences,
		classifier:    cls,
		gateway:       gateway,
		changes:       changes,
		logger:        logger,
		coalesce:      refreshCoalesce,
		expanded:      domain.PriorityMyPriority.Label(),
	}, nil
}

func (s *AggregatorService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Run refreshes the summary on every store change until context cancellation.
// Bursts of change events within the coalescing window collapse into a single
// rebuild since each rebuild re-reads the full current state anyway.
func (s *AggregatorService) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.changes == nil {
		return fmt.Errorf("change stream is required")
	}

	events := s.changes.Subscribe(ctx)

	if err := s.RefreshSummary(ctx); err != nil {
		s.logger.Error("initial summary refresh failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}

			s.drainCoalesced(ctx, events)

			if err := s.RefreshSummary(ctx); err != nil {
				s.logger.Error("summary refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *AggregatorService) drainCoalesced(ctx context.Context, events <-chan stream.Event) {
	timer := time.NewTimer(s.coalesce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
		}
	}
}

// RefreshSummary rebuilds the sticky summary from the full batch pool. An
// empty pool removes the summary from the device entirely.
func (s *AggregatorService) RefreshSummary(ctx context.Context) error {
	batched, err := s.notifications.GetBatched(ctx)
	if err != nil {
		return fmt.Errorf("failed to load batched notifications: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncSummaryRefresh()
	}

	if len(batched) == 0 {
		if err := s.gateway.CancelSummary(ctx); err != nil {
			return fmt.Errorf("failed to cancel summary: %w", err)
		}
		return nil
	}

	appNames := s.appNames(ctx)
	render := s.buildRender(ctx, batched, appNames)

	if err := s.gateway.ShowSummary(ctx, render); err != nil {
		return fmt.Errorf("failed to show summary: %w", err)
	}

	if err := s.markDigested(ctx, batched); err != nil {
		s.logger.Warn("failed to mark notifications summarized", zap.Error(err))
	}

	return nil
}

// ToggleCategory flips the expanded group. Expanding one group collapses any
// other; toggling the expanded group collapses everything.
func (s *AggregatorService) ToggleCategory(ctx context.Context, label string) (ViewState, error) {
	valid := false
	for _, p := range domain.PriorityGroupOrder {
		if p.Label() == label {
			valid = true
			break
		}
	}
	if !valid {
		return ViewState{}, fmt.Errorf("%w: unknown summary group %q", domain.ErrValidation, label)
	}

	s.mu.Lock()
	if s.expanded == label {
		s.expanded = ""
	} else {
		s.expanded = label
	}
	state := ViewState{ExpandedLabel: s.expanded}
	s.mu.Unlock()

	if err := s.RefreshSummary(ctx); err != nil {
		return state, err
	}

	return state, nil
}

// SummarizeNotification produces and stores a one-sentence summary for a
// single notification on demand. An existing summary is returned as is.
func (s *AggregatorService) SummarizeNotification(ctx context.Context, id uint) (string, error) {
	notification, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if notification.Summary != nil && *notification.Summary != "" {
		return *notification.Summary, nil
	}

	appNames := s.appNames(ctx)
	text, err := s.classifier.SummarizeOne(ctx, notification.Title, notification.Body, s.appName(appNames, notification.PackageName))
	if err != nil {
		return "", fmt.Errorf("failed to summarize notification: %w", err)
	}

	if err := s.notifications.SetSummary(ctx, id, text); err != nil {
		return "", err
	}

	return text, nil
}

func (s *AggregatorService) State() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewState{ExpandedLabel: s.expanded}
}

func (s *AggregatorService) buildRender(ctx context.Context, batched []domain.Notification, appNames map[string]string) devicegw.SummaryRender {
	s.mu.Lock()
	expanded := s.expanded
	s.mu.Unlock()

	groups := make([]devicegw.SummaryGroup, 0, len(domain.PriorityGroupOrder))
	for _, priority := range domain.PriorityGroupOrder {
		label := priority.Label()
		group := devicegw.SummaryGroup{
			Label:    label,
			Expanded: label == expanded,
		}

		for _, n := range batched {
			if n.Priority != priority {
				continue
			}
			group.Count++
			if group.Expanded {
				group.Items = append(group.Items, devicegw.SummaryItem{
					AppName: s.appName(appNames, n.PackageName),
					Title:   n.Title,
					Body:    n.Body,
				})
			}
		}

		if group.Count > 0 {
			groups = append(groups, group)
		}
	}

	return devicegw.SummaryRender{
		TotalCount: len(batched),
		Digest:     s.digest(ctx, batched, appNames),
		Groups:     groups,
	}
}

// digest summarizes the most recent slice of the pool. Callers get usable
// text no matter what the upstream does.
func (s *AggregatorService) digest(ctx context.Context, batched []domain.Notification, appNames map[string]string) string {
	recent := batched
	if len(recent) > maxDigestItems {
		recent = recent[:maxDigestItems]
	}

	items := make([]classifier.BatchItem, 0, len(recent))
	for _, n := range recent {
		items = append(items, classifier.BatchItem{
			AppName: s.appName(appNames, n.PackageName),
			Title:   n.Title,
			Body:    n.Body,
		})
	}

	text, err := s.classifier.SummarizeBatch(ctx, items)
	if err != nil || text == "" {
		s.logger.Warn("batch summarization failed, using fallback digest", zap.Error(err))
		if s.metrics != nil {
			s.metrics.IncDigestFallback()
		}
		return classifier.FallbackDigest(items)
	}

	return text
}

// markDigested flags every rendered notification. The groups and counts carry
// the whole pool, so everything shown counts as summarized even when the
// digest text only sampled the most recent slice.
func (s *AggregatorService) markDigested(ctx context.Context, batched []domain.Notification) error {
	ids := make([]uint, 0, len(batched))
	for _, n := range batched {
		if !n.Summarized {
			ids = append(ids, n.ID)
		}
	}

	return s.notifications.MarkSummarized(ctx, ids)
}

func (s *AggregatorService) appNames(ctx context.Context) map[string]string {
	if s.preferences == nil {
		return nil
	}

	prefs, err := s.preferences.GetAll(ctx)
	if err != nil {
		s.logger.Warn("failed to load app names", zap.Error(err))
		return nil
	}

	names := make(map[string]string, len(prefs))
	for _, p := range prefs {
		if p.AppName != "" {
			names[p.PackageName] = p.AppName
		}
	}
	return names
}

func (s *AggregatorService) appName(names map[string]string, packageName string) string {
	if name, ok := names[packageName]; ok {
		return name
	}
	return packageName
}
