package domain

import "fmt"

// AppPreference is a per-sender routing override. When present and enabled it
// wins outright over the default routing heuristics.
type AppPreference struct {
	PackageName string   `gorm:"type:varchar(255);primaryKey"`
	AppName     string   `gorm:"type:varchar(255);not null"`
	Category    Category `gorm:"type:varchar(10);not null"`
	Enabled     bool     `gorm:"not null;default:true"`
	CreatedAt   int64    `gorm:"autoCreateTime:milli"`
	UpdatedAt   int64    `gorm:"autoUpdateTime:milli"`
}

func (p *AppPreference) Validate() error {
	if p.PackageName == "" {
		return fmt.Errorf("%w: package name is required", ErrValidation)
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: invalid category %q", ErrValidation, p.Category)
	}
	return nil
}

const minutesPerDay = 24 * 60

// BatchSchedule is one configured digest delivery time.
type BatchSchedule struct {
	ID            uint  `gorm:"primaryKey;autoIncrement"`
	TimeInMinutes int   `gorm:"not null"`
	Enabled       bool  `gorm:"not null;default:true"`
	CreatedAt     int64 `gorm:"autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:milli"`
}

func (s *BatchSchedule) Validate() error {
	if s.TimeInMinutes < 0 || s.TimeInMinutes >= minutesPerDay {
		return fmt.Errorf("%w: time must be between 0 and %d minutes", ErrValidation, minutesPerDay-1)
	}
	return nil
}
