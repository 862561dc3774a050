package domain

import "fmt"

// UserFeedback is one correction event: the label the classifier predicted and
// the label the user moved the notification to. Append-only; recent rows per
// sender feed the classifier as few-shot examples.
type UserFeedback struct {
	ID                uint     `gorm:"primaryKey;autoIncrement"`
	PackageName       string   `gorm:"type:varchar(255);not null;index"`
	AppName           string   `gorm:"type:varchar(255);not null"`
	Title             string   `gorm:"type:text;not null"`
	Body              string   `gorm:"type:text;not null"`
	PredictedPriority Priority `gorm:"type:varchar(20);not null"`
	CorrectedPriority Priority `gorm:"type:varchar(20);not null"`
	CreatedAt         int64    `gorm:"autoCreateTime:milli"`
}

func (f *UserFeedback) Validate() error {
	if f.PackageName == "" {
		return fmt.Errorf("%w: package name is required", ErrValidation)
	}
	if !f.PredictedPriority.IsValid() {
		return fmt.Errorf("%w: invalid predicted priority %q", ErrValidation, f.PredictedPriority)
	}
	if !f.CorrectedPriority.IsValid() {
		return fmt.Errorf("%w: invalid corrected priority %q", ErrValidation, f.CorrectedPriority)
	}
	return nil
}
