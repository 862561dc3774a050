package service

import (
	"context"
	"time"

	"github.com/notifa-ai/notifa-engine/internal/classifier"
	"github.com/notifa-ai/notifa-engine/internal/devicegw"
	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/queue"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

type fakeNotificationRepo struct {
	createFn          func(ctx context.Context, n *domain.Notification) error
	getByIDFn         func(ctx context.Context, id uint) (*domain.Notification, error)
	listFn            func(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error)
	getBatchedFn      func(ctx context.Context) ([]domain.Notification, error)
	deleteByIDFn      func(ctx context.Context, id uint) error
	deleteAllFn       func(ctx context.Context) error
	deleteOlderThanFn func(ctx context.Context, postedBefore int64) (int64, error)
	countByCategoryFn func(ctx context.Context) ([]repository.CategoryCount, error)
	countByPriorityFn func(ctx context.Context) ([]repository.PriorityCount, error)
	updatePriorityFn  func(ctx context.Context, id uint, priority domain.Priority, category *domain.Category) error
	setReadFn         func(ctx context.Context, id uint, read bool) error
	setSummaryFn      func(ctx context.Context, id uint, summary string) error
	markSummarizedFn  func(ctx context.Context, ids []uint) error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id uint) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeNotificationRepo) GetBatched(ctx context.Context) ([]domain.Notification, error) {
	if f.getBatchedFn != nil {
		return f.getBatchedFn(ctx)
	}
	return nil, nil
}

func (f *fakeNotificationRepo) DeleteByID(ctx context.Context, id uint) error {
	if f.deleteByIDFn != nil {
		return f.deleteByIDFn(ctx, id)
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteAll(ctx context.Context) error {
	if f.deleteAllFn != nil {
		return f.deleteAllFn(ctx)
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, postedBefore int64) (int64, error) {
	if f.deleteOlderThanFn != nil {
		return f.deleteOlderThanFn(ctx, postedBefore)
	}
	return 0, nil
}

func (f *fakeNotificationRepo) CountByCategory(ctx context.Context) ([]repository.CategoryCount, error) {
	if f.countByCategoryFn != nil {
		return f.countByCategoryFn(ctx)
	}
	return nil, nil
}

func (f *fakeNotificationRepo) CountByPriority(ctx context.Context) ([]repository.PriorityCount, error) {
	if f.countByPriorityFn != nil {
		return f.countByPriorityFn(ctx)
	}
	return nil, nil
}

func (f *fakeNotificationRepo) UpdatePriority(ctx context.Context, id uint, priority domain.Priority, category *domain.Category) error {
	if f.updatePriorityFn != nil {
		return f.updatePriorityFn(ctx, id, priority, category)
	}
	return nil
}

func (f *fakeNotificationRepo) SetRead(ctx context.Context, id uint, read bool) error {
	if f.setReadFn != nil {
		return f.setReadFn(ctx, id, read)
	}
	return nil
}

func (f *fakeNotificationRepo) SetSummary(ctx context.Context, id uint, summary string) error {
	if f.setSummaryFn != nil {
		return f.setSummaryFn(ctx, id, summary)
	}
	return nil
}

func (f *fakeNotificationRepo) MarkSummarized(ctx context.Context, ids []uint) error {
	if f.markSummarizedFn != nil {
		return f.markSummarizedFn(ctx, ids)
	}
	return nil
}

type fakePreferenceRepo struct {
	getFn       func(ctx context.Context, packageName string) (*domain.AppPreference, error)
	getAllFn    func(ctx context.Context) ([]domain.AppPreference, error)
	upsertFn    func(ctx context.Context, p *domain.AppPreference) error
	upsertAllFn func(ctx context.Context, prefs []domain.AppPreference) error
	deleteFn    func(ctx context.Context, packageName string) error
}

func (f *fakePreferenceRepo) Get(ctx context.Context, packageName string) (*domain.AppPreference, error) {
	if f.getFn != nil {
		return f.getFn(ctx, packageName)
	}
	return nil, domain.ErrNotFound
}

func (f *fakePreferenceRepo) GetAll(ctx context.Context) ([]domain.AppPreference, error) {
	if f.getAllFn != nil {
		return f.getAllFn(ctx)
	}
	return nil, nil
}

func (f *fakePreferenceRepo) Upsert(ctx context.Context, p *domain.AppPreference) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, p)
	}
	return nil
}

func (f *fakePreferenceRepo) UpsertAll(ctx context.Context, prefs []domain.AppPreference) error {
	if f.upsertAllFn != nil {
		return f.upsertAllFn(ctx, prefs)
	}
	return nil
}

func (f *fakePreferenceRepo) Delete(ctx context.Context, packageName string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, packageName)
	}
	return nil
}

type fakeFeedbackRepo struct {
	createFn           func(ctx context.Context, fb *domain.UserFeedback) error
	recentForPackageFn func(ctx context.Context, packageName string, limit int) ([]domain.UserFeedback, error)
	recentFn           func(ctx context.Context, limit int) ([]domain.UserFeedback, error)
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb *domain.UserFeedback) error {
	if f.createFn != nil {
		return f.createFn(ctx, fb)
	}
	return nil
}

func (f *fakeFeedbackRepo) RecentForPackage(ctx context.Context, packageName string, limit int) ([]domain.UserFeedback, error) {
	if f.recentForPackageFn != nil {
		return f.recentForPackageFn(ctx, packageName, limit)
	}
	return nil, nil
}

func (f *fakeFeedbackRepo) Recent(ctx context.Context, limit int) ([]domain.UserFeedback, error) {
	if f.recentFn != nil {
		return f.recentFn(ctx, limit)
	}
	return nil, nil
}

type fakeScheduleRepo struct {
	getAllFn     func(ctx context.Context) ([]domain.BatchSchedule, error)
	getEnabledFn func(ctx context.Context) ([]domain.BatchSchedule, error)
	createFn     func(ctx context.Context, s *domain.BatchSchedule) error
	updateFn     func(ctx context.Context, s *domain.BatchSchedule) error
	deleteFn     func(ctx context.Context, id uint) error
	deleteAllFn  func(ctx context.Context) error
}

func (f *fakeScheduleRepo) GetAll(ctx context.Context) ([]domain.BatchSchedule, error) {
	if f.getAllFn != nil {
		return f.getAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeScheduleRepo) GetEnabled(ctx context.Context) ([]domain.BatchSchedule, error) {
	if f.getEnabledFn != nil {
		return f.getEnabledFn(ctx)
	}
	return nil, nil
}

func (f *fakeScheduleRepo) Create(ctx context.Context, s *domain.BatchSchedule) error {
	if f.createFn != nil {
		return f.createFn(ctx, s)
	}
	return nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, s *domain.BatchSchedule) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, s)
	}
	return nil
}

func (f *fakeScheduleRepo) Delete(ctx context.Context, id uint) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeScheduleRepo) DeleteAll(ctx context.Context) error {
	if f.deleteAllFn != nil {
		return f.deleteAllFn(ctx)
	}
	return nil
}

type fakeClassifier struct {
	classifyFn       func(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error)
	summarizeBatchFn func(ctx context.Context, items []classifier.BatchItem) (string, error)
	summarizeOneFn   func(ctx context.Context, title, body, appName string) (string, error)
}

func (f *fakeClassifier) ClassifyPriority(ctx context.Context, title, body, packageName string, examples []domain.UserFeedback) (domain.Priority, error) {
	if f.classifyFn != nil {
		return f.classifyFn(ctx, title, body, packageName, examples)
	}
	return domain.PriorityImportant, nil
}

func (f *fakeClassifier) SummarizeBatch(ctx context.Context, items []classifier.BatchItem) (string, error) {
	if f.summarizeBatchFn != nil {
		return f.summarizeBatchFn(ctx, items)
	}
	return classifier.FallbackDigest(items), nil
}

func (f *fakeClassifier) SummarizeOne(ctx context.Context, title, body, appName string) (string, error) {
	if f.summarizeOneFn != nil {
		return f.summarizeOneFn(ctx, title, body, appName)
	}
	return "summary", nil
}

type fakeGateway struct {
	cancelFn        func(ctx context.Context, nativeKey string) error
	showSummaryFn   func(ctx context.Context, render devicegw.SummaryRender) error
	cancelSummaryFn func(ctx context.Context) error
}

func (f *fakeGateway) CancelNotification(ctx context.Context, nativeKey string) error {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, nativeKey)
	}
	return nil
}

func (f *fakeGateway) ShowSummary(ctx context.Context, render devicegw.SummaryRender) error {
	if f.showSummaryFn != nil {
		return f.showSummaryFn(ctx, render)
	}
	return nil
}

func (f *fakeGateway) CancelSummary(ctx context.Context) error {
	if f.cancelSummaryFn != nil {
		return f.cancelSummaryFn(ctx)
	}
	return nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, scope string) (bool, error)
	waitFn  func(ctx context.Context, scope string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, scope)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, scope string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, scope)
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeFlagStore struct {
	bools  map[string]bool
	ints   map[string]int64
	setErr error
}

func newFakeFlagStore() *fakeFlagStore {
	return &fakeFlagStore{
		bools: make(map[string]bool),
		ints:  make(map[string]int64),
	}
}

func (f *fakeFlagStore) GetBool(ctx context.Context, key string) (bool, error) {
	return f.bools[key], nil
}

func (f *fakeFlagStore) SetBool(ctx context.Context, key string, value bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.bools[key] = value
	return nil
}

func (f *fakeFlagStore) GetInt64(ctx context.Context, key string) (int64, error) {
	return f.ints[key], nil
}

func (f *fakeFlagStore) SetInt64(ctx context.Context, key string, value int64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.ints[key] = value
	return nil
}

type fakePeriodLock struct {
	acquireFn func(ctx context.Context, period string, ttl time.Duration) (bool, error)
}

func (f *fakePeriodLock) Acquire(ctx context.Context, period string, ttl time.Duration) (bool, error) {
	if f.acquireFn != nil {
		return f.acquireFn(ctx, period, ttl)
	}
	return true, nil
}

type fakeRefresher struct {
	refreshFn func(ctx context.Context) error
	calls     int
}

func (f *fakeRefresher) RefreshSummary(ctx context.Context) error {
	f.calls++
	if f.refreshFn != nil {
		return f.refreshFn(ctx)
	}
	return nil
}
