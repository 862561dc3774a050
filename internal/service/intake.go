package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifa-ai/notifa-engine/internal/classifier"
	"github.com/notifa-ai/notifa-engine/internal/devicegw"
	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/observability"
	"github.com/notifa-ai/notifa-engine/internal/queue"
	"github.com/notifa-ai/notifa-engine/internal/ratelimit"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

const (
	minWorkerConcurrency = 1
	classifyScope        = "classify"
	maxFeedbackExamples  = 5
)

// Routing decisions recorded per intake event.
const (
	decisionDropped = "dropped"
	decisionIgnored = "ignored"
	decisionInstant = "instant"
	decisionBatched = "batched"
)

// systemPackages never reach classification. The OS shell and the engine's own
// bridge emit status chatter that would only burn model quota.
var systemPackages = map[string]struct{}{
	"android":               {},
	"com.android.systemui":  {},
	"com.android.providers": {},
}

// instantPackageHints route time-critical senders straight to INSTANT without
// consulting the classifier's category mapping.
var instantPackageHints = []string{"dialer", "phone", "alarm", "calendar"}

// IntakeService consumes device notification events, classifies them, and
// routes each one to instant delivery, the batch pool, or the bin.
type IntakeService struct {
	notifications repository.NotificationRepository
	preferences   repository.AppPreferenceRepository
	feedback      repository.FeedbackRepository
	consumer      queue.Consumer
	classifier    classifier.Classifier
	gateway       devicegw.Gateway
	rateLimiter   ratelimit.RateLimiter
	logger        *zap.Logger
	metrics       *observability.Metrics
	ownPackage    string
	concurrency   int
	now           func() time.Time
}

func NewIntakeService(
	notifications repository.NotificationRepository,
	preferences repository.AppPreferenceRepository,
	feedback repository.FeedbackRepository,
	consumer queue.Consumer,
	cls classifier.Classifier,
	gateway devicegw.Gateway,
	rateLimiter ratelimit.RateLimiter,
	ownPackage string,
	concurrency int,
	logger *zap.Logger,
) (*IntakeService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if cls == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("device gateway is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntakeService{
		notifications: notifications,
		preferences:   preferences,
		feedback:      feedback,
		consumer:      consumer,
		classifier:    cls,
		gateway:       gateway,
		rateLimiter:   rateLimiter,
		logger:        logger,
		ownPackage:    strings.TrimSpace(ownPackage),
		concurrency:   concurrency,
		now:           time.Now,
	}, nil
}

func (s *IntakeService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start runs the intake worker pool until context cancellation.
func (s *IntakeService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.consumer == nil {
		return fmt.Errorf("queue consumer is required")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("intake worker started", zap.Int("workerId", workerID))

			err := s.consumer.Consume(groupCtx, queue.IntakeQueue, s.HandleEvent)
			if err != nil {
				s.logger.Error("intake worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("intake worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

// HandleEvent processes one device notification event end to end. A nil return
// acknowledges the message; errors are reserved for transient infrastructure
// failures where redelivery can help.
func (s *IntakeService) HandleEvent(ctx context.Context, msg queue.EventMessage) error {
	if s.metrics != nil {
		s.metrics.IncWorkerInFlight()
		defer s.metrics.DecWorkerInFlight()
	}

	if s.shouldDrop(msg) {
		s.recordDecision(decisionDropped)
		return nil
	}

	ctx = observability.WithEventID(ctx, msg.EventID)

	priority := s.classify(ctx, msg)
	if s.metrics != nil {
		s.metrics.IncClassified(priority.String())
	}

	if priority == domain.PriorityIgnore {
		s.cancelNative(ctx, msg)
		s.recordDecision(decisionIgnored)
		return nil
	}

	category := s.resolveCategory(ctx, msg.PackageName, priority)
	if category == domain.CategoryIgnore {
		s.cancelNative(ctx, msg)
		s.recordDecision(decisionIgnored)
		return nil
	}

	notification := &domain.Notification{
		PackageName: msg.PackageName,
		Title:       msg.Title,
		Body:        msg.Body,
		PostedAt:    msg.PostedAt,
		Priority:    priority,
		Category:    category,
		NativeKey:   msg.NativeKey,
	}
	if err := notification.Validate(); err != nil {
		s.log(ctx).Warn("dropping unroutable event", zap.Error(err))
		s.recordDecision(decisionDropped)
		return nil
	}

	if err := s.notifications.Create(ctx, notification); err != nil {
		// Leave the OS copy visible so the user still sees the notification.
		s.log(ctx).Error("failed to store notification",
			zap.String("packageName", msg.PackageName),
			zap.Error(err),
		)
		s.recordDecision(decisionDropped)
		return nil
	}

	if category == domain.CategoryBatched {
		s.cancelNative(ctx, msg)
		s.recordDecision(decisionBatched)
		return nil
	}

	s.recordDecision(decisionInstant)
	return nil
}

// shouldDrop applies the prefilter: the engine's own notifications, OS shell
// chatter, and content-free events never enter the pipeline.
func (s *IntakeService) shouldDrop(msg queue.EventMessage) bool {
	pkg := strings.ToLower(strings.TrimSpace(msg.PackageName))
	if pkg == "" {
		return true
	}
	if s.ownPackage != "" && pkg == strings.ToLower(s.ownPackage) {
		return true
	}
	if _, ok := systemPackages[pkg]; ok {
		return true
	}
	if strings.TrimSpace(msg.Title) == "" && strings.TrimSpace(msg.Body) == "" {
		return true
	}
	return false
}

// classify asks the model for a priority, feeding recent corrections for the
// same sender as few-shot examples. Any failure maps to IMPORTANT so a flaky
// upstream can only surface too much, never hide a message.
func (s *IntakeService) classify(ctx context.Context, msg queue.EventMessage) domain.Priority {
	examples := s.recentFeedback(ctx, msg.PackageName)

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, classifyScope); err != nil {
			s.log(ctx).Warn("rate limiter wait failed, using fallback priority", zap.Error(err))
			if s.metrics != nil {
				s.metrics.IncClassifyFailure()
			}
			return domain.PriorityImportant
		}
	}

	start := s.now()
	priority, err := s.classifier.ClassifyPriority(ctx, msg.Title, msg.Body, msg.PackageName, examples)
	if s.metrics != nil {
		s.metrics.ObserveClassifyDuration(s.now().Sub(start))
	}
	if err != nil {
		s.log(ctx).Warn("classification failed, using fallback priority",
			zap.String("packageName", msg.PackageName),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.IncClassifyFailure()
		}
		return domain.PriorityImportant
	}

	return priority
}

func (s *IntakeService) recentFeedback(ctx context.Context, packageName string) []domain.UserFeedback {
	if s.feedback == nil {
		return nil
	}

	examples, err := s.feedback.RecentForPackage(ctx, packageName, maxFeedbackExamples)
	if err != nil {
		s.logger.Warn("failed to load feedback examples",
			zap.String("packageName", packageName),
			zap.Error(err),
		)
		return nil
	}
	return examples
}

// resolveCategory maps a priority to a delivery category. A user preference
// for the sender always wins; after that MY_PRIORITY and time-critical
// packages go instant and everything else joins the batch pool.
func (s *IntakeService) resolveCategory(ctx context.Context, packageName string, priority domain.Priority) domain.Category {
	if s.preferences != nil {
		pref, err := s.preferences.Get(ctx, packageName)
		if err == nil && pref != nil && pref.Enabled {
			return pref.Category
		}
	}

	if priority == domain.PriorityMyPriority {
		return domain.CategoryInstant
	}

	pkg := strings.ToLower(packageName)
	for _, hint := range instantPackageHints {
		if strings.Contains(pkg, hint) {
			return domain.CategoryInstant
		}
	}

	return domain.CategoryBatched
}

func (s *IntakeService) cancelNative(ctx context.Context, msg queue.EventMessage) {
	if strings.TrimSpace(msg.NativeKey) == "" {
		return
	}

	if err := s.gateway.CancelNotification(ctx, msg.NativeKey); err != nil {
		s.log(ctx).Warn("failed to cancel device notification",
			zap.String("nativeKey", msg.NativeKey),
			zap.Error(err),
		)
	}
}

func (s *IntakeService) log(ctx context.Context) *zap.Logger {
	return observability.WithContextLogger(s.logger, ctx)
}

func (s *IntakeService) recordDecision(decision string) {
	if s.metrics != nil {
		s.metrics.IncEventReceived(decision)
	}
}
