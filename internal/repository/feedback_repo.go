package repository

import (
	"context"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/stream"
	"gorm.io/gorm"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *domain.UserFeedback) error
	RecentForPackage(ctx context.Context, packageName string, limit int) ([]domain.UserFeedback, error)
	Recent(ctx context.Context, limit int) ([]domain.UserFeedback, error)
}

type GormFeedbackRepo struct {
	db      *gorm.DB
	changes *stream.Broadcaster
}

func NewGormFeedbackRepo(db *gorm.DB, changes *stream.Broadcaster) *GormFeedbackRepo {
	return &GormFeedbackRepo{db: db, changes: changes}
}

func (r *GormFeedbackRepo) Create(ctx context.Context, f *domain.UserFeedback) error {
	model := feedbackModelFromDomain(f)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if f != nil {
		*f = *feedbackModelToDomain(model)
	}
	r.changes.Publish(stream.Event{Table: stream.TableFeedback, Op: stream.OpInsert})
	return nil
}

func (r *GormFeedbackRepo) RecentForPackage(ctx context.Context, packageName string, limit int) ([]domain.UserFeedback, error) {
	if limit < 1 {
		limit = 5
	}

	var models []UserFeedbackModel
	err := r.db.WithContext(ctx).
		Where("package_name = ?", packageName).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return feedbackModelsToDomain(models), nil
}

func (r *GormFeedbackRepo) Recent(ctx context.Context, limit int) ([]domain.UserFeedback, error) {
	if limit < 1 {
		limit = 10
	}

	var models []UserFeedbackModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return feedbackModelsToDomain(models), nil
}

func feedbackModelsToDomain(models []UserFeedbackModel) []domain.UserFeedback {
	feedback := make([]domain.UserFeedback, 0, len(models))
	for i := range models {
		feedback = append(feedback, *feedbackModelToDomain(&models[i]))
	}
	return feedback
}
