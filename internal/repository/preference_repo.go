package repository

import (
	"context"
	"errors"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/stream"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppPreferenceRepository interface {
	Get(ctx context.Context, packageName string) (*domain.AppPreference, error)
	GetAll(ctx context.Context) ([]domain.AppPreference, error)
	Upsert(ctx context.Context, p *domain.AppPreference) error
	UpsertAll(ctx context.Context, prefs []domain.AppPreference) error
	Delete(ctx context.Context, packageName string) error
}

type GormAppPreferenceRepo struct {
	db      *gorm.DB
	changes *stream.Broadcaster
}

func NewGormAppPreferenceRepo(db *gorm.DB, changes *stream.Broadcaster) *GormAppPreferenceRepo {
	return &GormAppPreferenceRepo{db: db, changes: changes}
}

func (r *GormAppPreferenceRepo) publish(op stream.Op) {
	r.changes.Publish(stream.Event{Table: stream.TablePreferences, Op: op})
}

func (r *GormAppPreferenceRepo) Get(ctx context.Context, packageName string) (*domain.AppPreference, error) {
	var model AppPreferenceModel
	err := r.db.WithContext(ctx).First(&model, "package_name = ?", packageName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return preferenceModelToDomain(&model), nil
}

func (r *GormAppPreferenceRepo) GetAll(ctx context.Context) ([]domain.AppPreference, error) {
	var models []AppPreferenceModel
	err := r.db.WithContext(ctx).
		Order("app_name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	prefs := make([]domain.AppPreference, 0, len(models))
	for i := range models {
		prefs = append(prefs, *preferenceModelToDomain(&models[i]))
	}

	return prefs, nil
}

func (r *GormAppPreferenceRepo) Upsert(ctx context.Context, p *domain.AppPreference) error {
	model := preferenceModelFromDomain(p)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "package_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"app_name", "category", "enabled", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if p != nil {
		*p = *preferenceModelToDomain(model)
	}
	r.publish(stream.OpUpdate)
	return nil
}

func (r *GormAppPreferenceRepo) UpsertAll(ctx context.Context, prefs []domain.AppPreference) error {
	if len(prefs) == 0 {
		return nil
	}

	models := make([]AppPreferenceModel, 0, len(prefs))
	for i := range prefs {
		models = append(models, *preferenceModelFromDomain(&prefs[i]))
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "package_name"}},
			DoNothing: true,
		}).
		CreateInBatches(&models, 100).Error
	if err != nil {
		return err
	}
	r.publish(stream.OpUpdate)
	return nil
}

func (r *GormAppPreferenceRepo) Delete(ctx context.Context, packageName string) error {
	result := r.db.WithContext(ctx).Delete(&AppPreferenceModel{}, "package_name = ?", packageName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	r.publish(stream.OpDelete)
	return nil
}
