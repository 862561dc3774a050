package repository

import (
	"context"
	"errors"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/stream"
	"gorm.io/gorm"
)

// ListParams filters user-facing notification queries. Rows in the IGNORE
// category are always excluded.
type ListParams struct {
	Priority *domain.Priority
	Category *domain.Category
	Page     int
	PageSize int
}

// CategoryCount is one row of the per-category aggregate.
type CategoryCount struct {
	Category domain.Category `gorm:"column:category"`
	Count    int             `gorm:"column:count"`
}

// PriorityCount is one row of the per-priority aggregate.
type PriorityCount struct {
	Priority domain.Priority `gorm:"column:priority"`
	Count    int             `gorm:"column:count"`
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id uint) (*domain.Notification, error)
	List(ctx context.Context, params ListParams) ([]domain.Notification, int64, error)
	GetBatched(ctx context.Context) ([]domain.Notification, error)
	DeleteByID(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
	DeleteOlderThan(ctx context.Context, postedBefore int64) (int64, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
	CountByPriority(ctx context.Context) ([]PriorityCount, error)
	UpdatePriority(ctx context.Context, id uint, priority domain.Priority, category *domain.Category) error
	SetRead(ctx context.Context, id uint, read bool) error
	SetSummary(ctx context.Context, id uint, summary string) error
	MarkSummarized(ctx context.Context, ids []uint) error
}

type GormNotificationRepo struct {
	db      *gorm.DB
	changes *stream.Broadcaster
}

func NewGormNotificationRepo(db *gorm.DB, changes *stream.Broadcaster) *GormNotificationRepo {
	return &GormNotificationRepo{db: db, changes: changes}
}

func (r *GormNotificationRepo) publish(op stream.Op) {
	r.changes.Publish(stream.Event{Table: stream.TableNotifications, Op: op})
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	r.publish(stream.OpInsert)
	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id uint) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) List(ctx context.Context, params ListParams) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("category <> ?", domain.CategoryIgnore)

	if params.Priority != nil {
		query = query.Where("priority = ?", *params.Priority)
	}
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []NotificationModel
	err := query.
		Order("posted_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, total, nil
}

func (r *GormNotificationRepo) GetBatched(ctx context.Context) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("category = ?", domain.CategoryBatched).
		Order("posted_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, nil
}

func (r *GormNotificationRepo) DeleteByID(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&NotificationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpDelete)
	return nil
}

func (r *GormNotificationRepo) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&NotificationModel{}).Error; err != nil {
		return err
	}
	r.publish(stream.OpDelete)
	return nil
}

func (r *GormNotificationRepo) DeleteOlderThan(ctx context.Context, postedBefore int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("posted_at < ?", postedBefore).
		Delete(&NotificationModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.publish(stream.OpDelete)
	}
	return result.RowsAffected, nil
}

func (r *GormNotificationRepo) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Select("category, COUNT(*) as count").
		Where("category <> ?", domain.CategoryIgnore).
		Group("category").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *GormNotificationRepo) CountByPriority(ctx context.Context) ([]PriorityCount, error) {
	var counts []PriorityCount
	err := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Select("priority, COUNT(*) as count").
		Where("category <> ?", domain.CategoryIgnore).
		Group("priority").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *GormNotificationRepo) UpdatePriority(ctx context.Context, id uint, priority domain.Priority, category *domain.Category) error {
	updates := map[string]any{"priority": priority}
	if category != nil {
		updates["category"] = *category
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpUpdate)
	return nil
}

func (r *GormNotificationRepo) SetRead(ctx context.Context, id uint, read bool) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Update("read", read)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpUpdate)
	return nil
}

func (r *GormNotificationRepo) SetSummary(ctx context.Context, id uint, summary string) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Update("summary", summary)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpUpdate)
	return nil
}

func (r *GormNotificationRepo) MarkSummarized(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id IN ?", ids).
		Update("summarized", true).Error; err != nil {
		return err
	}
	// No change event: marking rows summarized is a side effect of rendering
	// and must not re-trigger the aggregation loop.
	return nil
}
