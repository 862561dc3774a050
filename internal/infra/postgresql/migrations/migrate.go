package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/notifa-ai/notifa-engine/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_notifications",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.NotificationModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_notifications_category_posted ON notifications (category, posted_at DESC)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_priority ON notifications (priority)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_batched_pending ON notifications (posted_at DESC) WHERE category = 'BATCHED' AND summarized = FALSE`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_package_name ON notifications (package_name)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.NotificationModel{})
			},
		},
		{
			ID: "000002_create_app_preferences",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.AppPreferenceModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AppPreferenceModel{})
			},
		},
		{
			ID: "000003_create_batch_schedules",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.BatchScheduleModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_batch_schedules_minute ON batch_schedules (time_in_minutes)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.BatchScheduleModel{})
			},
		},
		{
			ID: "000004_create_user_feedback",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.UserFeedbackModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_user_feedback_package_created ON user_feedback (package_name, created_at DESC)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.UserFeedbackModel{})
			},
		},
	})

	return m.Migrate()
}
