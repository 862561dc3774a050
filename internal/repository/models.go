package repository

import (
	"github.com/notifa-ai/notifa-engine/internal/domain"
)

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	PackageName string          `gorm:"type:varchar(255);not null;index"`
	Title       string          `gorm:"type:text;not null"`
	Body        string          `gorm:"type:text;not null"`
	PostedAt    int64           `gorm:"not null"`
	Priority    domain.Priority `gorm:"type:varchar(20);not null"`
	Summary     *string         `gorm:"type:text"`
	Category    domain.Category `gorm:"type:varchar(10);not null"`
	Read        bool            `gorm:"not null;default:false"`
	Summarized  bool            `gorm:"not null;default:false"`
	NativeKey   string          `gorm:"type:varchar(255)"`
	CreatedAt   int64           `gorm:"autoCreateTime:milli"`
	UpdatedAt   int64           `gorm:"autoUpdateTime:milli"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// AppPreferenceModel is the persistence model for app_preferences.
type AppPreferenceModel struct {
	PackageName string          `gorm:"type:varchar(255);primaryKey"`
	AppName     string          `gorm:"type:varchar(255);not null"`
	Category    domain.Category `gorm:"type:varchar(10);not null"`
	Enabled     bool            `gorm:"not null;default:true"`
	CreatedAt   int64           `gorm:"autoCreateTime:milli"`
	UpdatedAt   int64           `gorm:"autoUpdateTime:milli"`
}

func (AppPreferenceModel) TableName() string {
	return "app_preferences"
}

// BatchScheduleModel is the persistence model for batch_schedules.
type BatchScheduleModel struct {
	ID            uint  `gorm:"primaryKey;autoIncrement"`
	TimeInMinutes int   `gorm:"not null"`
	Enabled       bool  `gorm:"not null;default:true"`
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`
}

func (BatchScheduleModel) TableName() string {
	return "batch_schedules"
}

// UserFeedbackModel is the persistence model for user_feedback.
type UserFeedbackModel struct {
	ID                uint            `gorm:"primaryKey;autoIncrement"`
	PackageName       string          `gorm:"type:varchar(255);not null;index"`
	AppName           string          `gorm:"type:varchar(255);not null"`
	Title             string          `gorm:"type:text;not null"`
	Body              string          `gorm:"type:text;not null"`
	PredictedPriority domain.Priority `gorm:"type:varchar(20);not null"`
	CorrectedPriority domain.Priority `gorm:"type:varchar(20);not null"`
	CreatedAt         int64           `gorm:"autoCreateTime:milli"`
}

func (UserFeedbackModel) TableName() string {
	return "user_feedback"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:          n.ID,
		PackageName: n.PackageName,
		Title:       n.Title,
		Body:        n.Body,
		PostedAt:    n.PostedAt,
		Priority:    n.Priority,
		Summary:     n.Summary,
		Category:    n.Category,
		Read:        n.Read,
		Summarized:  n.Summarized,
		NativeKey:   n.NativeKey,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:          m.ID,
		PackageName: m.PackageName,
		Title:       m.Title,
		Body:        m.Body,
		PostedAt:    m.PostedAt,
		Priority:    m.Priority,
		Summary:     m.Summary,
		Category:    m.Category,
		Read:        m.Read,
		Summarized:  m.Summarized,
		NativeKey:   m.NativeKey,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func preferenceModelFromDomain(p *domain.AppPreference) *AppPreferenceModel {
	if p == nil {
		return nil
	}

	return &AppPreferenceModel{
		PackageName: p.PackageName,
		AppName:     p.AppName,
		Category:    p.Category,
		Enabled:     p.Enabled,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func preferenceModelToDomain(m *AppPreferenceModel) *domain.AppPreference {
	if m == nil {
		return nil
	}

	return &domain.AppPreference{
		PackageName: m.PackageName,
		AppName:     m.AppName,
		Category:    m.Category,
		Enabled:     m.Enabled,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func scheduleModelFromDomain(s *domain.BatchSchedule) *BatchScheduleModel {
	if s == nil {
		return nil
	}

	return &BatchScheduleModel{
		ID:            s.ID,
		TimeInMinutes: s.TimeInMinutes,
		Enabled:       s.Enabled,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func scheduleModelToDomain(m *BatchScheduleModel) *domain.BatchSchedule {
	if m == nil {
		return nil
	}

	return &domain.BatchSchedule{
		ID:            m.ID,
		TimeInMinutes: m.TimeInMinutes,
		Enabled:       m.Enabled,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func feedbackModelFromDomain(f *domain.UserFeedback) *UserFeedbackModel {
	if f == nil {
		return nil
	}

	return &UserFeedbackModel{
		ID:                f.ID,
		PackageName:       f.PackageName,
		AppName:           f.AppName,
		Title:             f.Title,
		Body:              f.Body,
		PredictedPriority: f.PredictedPriority,
		CorrectedPriority: f.CorrectedPriority,
		CreatedAt:         f.CreatedAt,
	}
}

func feedbackModelToDomain(m *UserFeedbackModel) *domain.UserFeedback {
	if m == nil {
		return nil
	}

	return &domain.UserFeedback{
		ID:                m.ID,
		PackageName:       m.PackageName,
		AppName:           m.AppName,
		Title:             m.Title,
		Body:              m.Body,
		PredictedPriority: m.PredictedPriority,
		CorrectedPriority: m.CorrectedPriority,
		CreatedAt:         m.CreatedAt,
	}
}
