package repository

import (
	"context"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/stream"
	"gorm.io/gorm"
)

type BatchScheduleRepository interface {
	GetAll(ctx context.Context) ([]domain.BatchSchedule, error)
	GetEnabled(ctx context.Context) ([]domain.BatchSchedule, error)
	Create(ctx context.Context, s *domain.BatchSchedule) error
	Update(ctx context.Context, s *domain.BatchSchedule) error
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
}

type GormBatchScheduleRepo struct {
	db      *gorm.DB
	changes *stream.Broadcaster
}

func NewGormBatchScheduleRepo(db *gorm.DB, changes *stream.Broadcaster) *GormBatchScheduleRepo {
	return &GormBatchScheduleRepo{db: db, changes: changes}
}

func (r *GormBatchScheduleRepo) publish(op stream.Op) {
	r.changes.Publish(stream.Event{Table: stream.TableSchedules, Op: op})
}

func (r *GormBatchScheduleRepo) GetAll(ctx context.Context) ([]domain.BatchSchedule, error) {
	return r.list(ctx, false)
}

func (r *GormBatchScheduleRepo) GetEnabled(ctx context.Context) ([]domain.BatchSchedule, error) {
	return r.list(ctx, true)
}

func (r *GormBatchScheduleRepo) list(ctx context.Context, enabledOnly bool) ([]domain.BatchSchedule, error) {
	query := r.db.WithContext(ctx).Model(&BatchScheduleModel{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	var models []BatchScheduleModel
	if err := query.Order("time_in_minutes ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	schedules := make([]domain.BatchSchedule, 0, len(models))
	for i := range models {
		schedules = append(schedules, *scheduleModelToDomain(&models[i]))
	}

	return schedules, nil
}

func (r *GormBatchScheduleRepo) Create(ctx context.Context, s *domain.BatchSchedule) error {
	model := scheduleModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if s != nil {
		*s = *scheduleModelToDomain(model)
	}
	r.publish(stream.OpInsert)
	return nil
}

func (r *GormBatchScheduleRepo) Update(ctx context.Context, s *domain.BatchSchedule) error {
	if s == nil {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).
		Model(&BatchScheduleModel{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"time_in_minutes": s.TimeInMinutes,
			"enabled":         s.Enabled,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpUpdate)
	return nil
}

func (r *GormBatchScheduleRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&BatchScheduleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpDelete)
	return nil
}

func (r *GormBatchScheduleRepo) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&BatchScheduleModel{}).Error; err != nil {
		return err
	}
	r.publish(stream.OpDelete)
	return nil
}
