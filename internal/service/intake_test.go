package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/queue"
)

func newIntakeService(
	t *testing.T,
	notifications *fakeNotificationRepo,
	preferences *fakePreferenceRepo,
	feedback *fakeFeedbackRepo,
	cls *fakeClassifier,
	gateway *fakeGateway,
) *IntakeService {
	t.Helper()

	svc, err := NewIntakeService(
		notifications,
		preferences,
		feedback,
		&fakeConsumer{},
		cls,
		gateway,
		&fakeRateLimiter{},
		"com.notifa.ai",
		4,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}
	return svc
}

func TestIntakeHandleEventBatched(t *testing.T) {
	t.Parallel()

	var stored *domain.Notification
	var canceledKey string

	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			stored = n
			return nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return domain.PriorityPromotional, nil
		},
	}
	gateway := &fakeGateway{
		cancelFn: func(ctx context.Context, nativeKey string) error {
			canceledKey = nativeKey
			return nil
		},
	}

	svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, cls, gateway)

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-1",
		PackageName: "com.amazon.shopping",
		Title:       "Deal of the day",
		Body:        "50% off headphones",
		PostedAt:    1_700_000_000_000,
		NativeKey:   "0|com.amazon.shopping|77",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if stored == nil {
		t.Fatal("notification should be stored")
	}
	if stored.Priority != domain.PriorityPromotional {
		t.Fatalf("priority = %s, want PROMOTIONAL", stored.Priority)
	}
	if stored.Category != domain.CategoryBatched {
		t.Fatalf("category = %s, want BATCHED", stored.Category)
	}
	if canceledKey != "0|com.amazon.shopping|77" {
		t.Fatalf("canceled key = %q, want the event's native key", canceledKey)
	}
}

func TestIntakeHandleEventMyPriorityGoesInstant(t *testing.T) {
	t.Parallel()

	var stored *domain.Notification
	cancelCalled := false

	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			stored = n
			return nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return domain.PriorityMyPriority, nil
		},
	}
	gateway := &fakeGateway{
		cancelFn: func(ctx context.Context, nativeKey string) error {
			cancelCalled = true
			return nil
		},
	}

	svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, cls, gateway)

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-2",
		PackageName: "com.whatsapp",
		Title:       "Mom",
		Body:        "Call me back",
		PostedAt:    1_700_000_001_000,
		NativeKey:   "0|com.whatsapp|12",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if stored == nil || stored.Category != domain.CategoryInstant {
		t.Fatalf("stored = %+v, want INSTANT category", stored)
	}
	if cancelCalled {
		t.Fatal("instant notifications must keep the OS copy")
	}
}

func TestIntakeHandleEventIgnoreNeverStored(t *testing.T) {
	t.Parallel()

	storeCalled := false
	canceledKey := ""

	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			storeCalled = true
			return nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return domain.PriorityIgnore, nil
		},
	}
	gateway := &fakeGateway{
		cancelFn: func(ctx context.Context, nativeKey string) error {
			canceledKey = nativeKey
			return nil
		},
	}

	svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, cls, gateway)

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-3",
		PackageName: "com.game.spam",
		Title:       "Your energy is full!",
		Body:        "Come back and play",
		PostedAt:    1_700_000_002_000,
		NativeKey:   "0|com.game.spam|3",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if storeCalled {
		t.Fatal("ignored notifications must never be stored")
	}
	if canceledKey != "0|com.game.spam|3" {
		t.Fatalf("canceled key = %q, want the event's native key", canceledKey)
	}
}

func TestIntakeHandleEventClassifyFailureFallsBackToImportant(t *testing.T) {
	t.Parallel()

	var stored *domain.Notification
	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			stored = n
			return nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return "", errors.New("upstream 503")
		},
	}

	svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, cls, &fakeGateway{})

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-4",
		PackageName: "com.slack",
		Title:       "New message",
		Body:        "deploy is green",
		PostedAt:    1_700_000_003_000,
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if stored == nil {
		t.Fatal("notification should be stored despite classify failure")
	}
	if stored.Priority != domain.PriorityImportant {
		t.Fatalf("priority = %s, want IMPORTANT fallback", stored.Priority)
	}
}

func TestIntakeHandleEventPreferenceOverrideWins(t *testing.T) {
	t.Parallel()

	var stored *domain.Notification
	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			stored = n
			return nil
		},
	}
	preferences := &fakePreferenceRepo{
		getFn: func(ctx context.Context, packageName string) (*domain.AppPreference, error) {
			return &domain.AppPreference{
				PackageName: packageName,
				AppName:     "WhatsApp",
				Category:    domain.CategoryBatched,
				Enabled:     true,
			}, nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return domain.PriorityMyPriority, nil
		},
	}

	svc := newIntakeService(t, notifications, preferences, &fakeFeedbackRepo{}, cls, &fakeGateway{})

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-5",
		PackageName: "com.whatsapp",
		Title:       "Group chat",
		Body:        "200 new messages",
		PostedAt:    1_700_000_004_000,
		NativeKey:   "0|com.whatsapp|44",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if stored == nil || stored.Category != domain.CategoryBatched {
		t.Fatalf("stored = %+v, want preference-forced BATCHED category", stored)
	}
}

func TestIntakeHandleEventPreferenceInstantOverridesSpam(t *testing.T) {
	t.Parallel()

	var stored *domain.Notification
	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			stored = n
			return nil
		},
	}
	preferences := &fakePreferenceRepo{
		getFn: func(ctx context.Context, packageName string) (*domain.AppPreference, error) {
			return &domain.AppPreference{
				PackageName: packageName,
				AppName:     "Game",
				Category:    domain.CategoryInstant,
				Enabled:     true,
			}, nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return domain.PrioritySpam, nil
		},
	}
	cancelCalled := false
	gateway := &fakeGateway{
		cancelFn: func(ctx context.Context, nativeKey string) error {
			cancelCalled = true
			return nil
		},
	}

	svc := newIntakeService(t, notifications, preferences, &fakeFeedbackRepo{}, cls, gateway)

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-9",
		PackageName: "com.game.spam",
		Title:       "Daily reward",
		Body:        "claim it now",
		PostedAt:    1_700_000_008_000,
		NativeKey:   "0|com.game.spam|5",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if stored == nil || stored.Category != domain.CategoryInstant {
		t.Fatalf("stored = %+v, want preference-forced INSTANT category", stored)
	}
	if stored.Priority != domain.PrioritySpam {
		t.Fatalf("priority = %s, want SPAM preserved", stored.Priority)
	}
	if cancelCalled {
		t.Fatal("instant notifications must keep the OS copy")
	}
}

func TestIntakeHandleEventPreferenceIgnoreNeverStored(t *testing.T) {
	t.Parallel()

	storeCalled := false
	canceledKey := ""

	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			storeCalled = true
			return nil
		},
	}
	preferences := &fakePreferenceRepo{
		getFn: func(ctx context.Context, packageName string) (*domain.AppPreference, error) {
			return &domain.AppPreference{
				PackageName: packageName,
				AppName:     "Game",
				Category:    domain.CategoryIgnore,
				Enabled:     true,
			}, nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			return domain.PriorityImportant, nil
		},
	}
	gateway := &fakeGateway{
		cancelFn: func(ctx context.Context, nativeKey string) error {
			canceledKey = nativeKey
			return nil
		},
	}

	svc := newIntakeService(t, notifications, preferences, &fakeFeedbackRepo{}, cls, gateway)

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-10",
		PackageName: "com.game.spam",
		Title:       "Your energy is full!",
		Body:        "Come back and play",
		PostedAt:    1_700_000_009_000,
		NativeKey:   "0|com.game.spam|6",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if storeCalled {
		t.Fatal("ignore-routed notifications must never be stored")
	}
	if canceledKey != "0|com.game.spam|6" {
		t.Fatalf("canceled key = %q, want the event's native key", canceledKey)
	}
}

func TestIntakeHandleEventDialerPackageGoesInstant(t *testing.T) {
	t.Parallel()

	var stored *domain.Notification
	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			stored = n
			return nil
		},
	}

	svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, &fakeClassifier{}, &fakeGateway{})

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-6",
		PackageName: "com.google.android.dialer",
		Title:       "Missed call",
		Body:        "+1 555 0100",
		PostedAt:    1_700_000_005_000,
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if stored == nil || stored.Category != domain.CategoryInstant {
		t.Fatalf("stored = %+v, want INSTANT category for dialer package", stored)
	}
}

func TestIntakeHandleEventPrefilterDrops(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  queue.EventMessage
	}{
		{
			name: "own package",
			msg: queue.EventMessage{
				EventID:     "ev-own",
				PackageName: "com.notifa.ai",
				Title:       "Summary",
				PostedAt:    1,
			},
		},
		{
			name: "system shell",
			msg: queue.EventMessage{
				EventID:     "ev-sys",
				PackageName: "com.android.systemui",
				Title:       "USB debugging connected",
				PostedAt:    1,
			},
		},
		{
			name: "empty content",
			msg: queue.EventMessage{
				EventID:     "ev-empty",
				PackageName: "com.spotify.music",
				Title:       "  ",
				Body:        "",
				PostedAt:    1,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			classifyCalled := false
			storeCalled := false

			notifications := &fakeNotificationRepo{
				createFn: func(ctx context.Context, n *domain.Notification) error {
					storeCalled = true
					return nil
				},
			}
			cls := &fakeClassifier{
				classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
					classifyCalled = true
					return domain.PriorityImportant, nil
				},
			}

			svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, cls, &fakeGateway{})

			if err := svc.HandleEvent(context.Background(), tc.msg); err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}
			if classifyCalled {
				t.Fatal("prefiltered events must not reach the classifier")
			}
			if storeCalled {
				t.Fatal("prefiltered events must not be stored")
			}
		})
	}
}

func TestIntakeHandleEventFeedbackExamplesReachClassifier(t *testing.T) {
	t.Parallel()

	var gotExamples []domain.UserFeedback
	feedback := &fakeFeedbackRepo{
		recentForPackageFn: func(ctx context.Context, packageName string, limit int) ([]domain.UserFeedback, error) {
			if packageName != "com.whatsapp" {
				t.Fatalf("packageName = %q, want com.whatsapp", packageName)
			}
			if limit != maxFeedbackExamples {
				t.Fatalf("limit = %d, want %d", limit, maxFeedbackExamples)
			}
			return []domain.UserFeedback{
				{PackageName: packageName, PredictedPriority: domain.PriorityImportant, CorrectedPriority: domain.PriorityMyPriority},
			}, nil
		},
	}
	cls := &fakeClassifier{
		classifyFn: func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
			gotExamples = examples
			return domain.PriorityMyPriority, nil
		},
	}

	svc := newIntakeService(t, &fakeNotificationRepo{}, &fakePreferenceRepo{}, feedback, cls, &fakeGateway{})

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-7",
		PackageName: "com.whatsapp",
		Title:       "Mom",
		Body:        "dinner?",
		PostedAt:    1_700_000_006_000,
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(gotExamples) != 1 {
		t.Fatalf("examples = %d, want 1", len(gotExamples))
	}
}

func TestIntakeHandleEventStoreFailureKeepsOSCopy(t *testing.T) {
	t.Parallel()

	cancelCalled := false
	notifications := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			return errors.New("connection refused")
		},
	}
	gateway := &fakeGateway{
		cancelFn: func(ctx context.Context, nativeKey string) error {
			cancelCalled = true
			return nil
		},
	}

	svc := newIntakeService(t, notifications, &fakePreferenceRepo{}, &fakeFeedbackRepo{}, &fakeClassifier{}, gateway)

	err := svc.HandleEvent(context.Background(), queue.EventMessage{
		EventID:     "ev-8",
		PackageName: "com.amazon.shopping",
		Title:       "Shipped",
		Body:        "Your order is on the way",
		PostedAt:    1_700_000_007_000,
		NativeKey:   "0|com.amazon.shopping|9",
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if cancelCalled {
		t.Fatal("OS copy must stay visible when the store write fails")
	}
}
