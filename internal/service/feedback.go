package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

// FeedbackService records priority corrections and applies them to the
// corrected notification. Each correction becomes a few-shot example for
// future classifications of the same sender.
type FeedbackService struct {
	notifications repository.NotificationRepository
	preferences   repository.AppPreferenceRepository
	feedback      repository.FeedbackRepository
	logger        *zap.Logger
}

func NewFeedbackService(
	notifications repository.NotificationRepository,
	preferences repository.AppPreferenceRepository,
	feedback repository.FeedbackRepository,
	logger *zap.Logger,
) (*FeedbackService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if feedback == nil {
		return nil, fmt.Errorf("feedback repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FeedbackService{
		notifications: notifications,
		preferences:   preferences,
		feedback:      feedback,
		logger:        logger,
	}, nil
}

// SubmitCorrection moves a notification to the user's chosen priority and
// stores the correction. Correcting to IGNORE flips the category to IGNORE as
// well, which removes the row from every user-facing query while keeping it
// around as a training example.
func (s *FeedbackService) SubmitCorrection(ctx context.Context, notificationID uint, corrected domain.Priority) (*domain.UserFeedback, error) {
	if !corrected.IsValid() {
		return nil, fmt.Errorf("%w: invalid corrected priority %q", domain.ErrValidation, corrected)
	}

	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	if notification.Priority == corrected {
		return nil, fmt.Errorf("%w: notification already has priority %s", domain.ErrConflict, corrected)
	}

	entry := &domain.UserFeedback{
		PackageName:       notification.PackageName,
		AppName:           s.appName(ctx, notification.PackageName),
		Title:             notification.Title,
		Body:              notification.Body,
		PredictedPriority: notification.Priority,
		CorrectedPriority: corrected,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.feedback.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	category := categoryForCorrection(corrected)
	if err := s.notifications.UpdatePriority(ctx, notificationID, corrected, category); err != nil {
		return nil, fmt.Errorf("failed to apply correction: %w", err)
	}

	s.logger.Info("priority correction applied",
		zap.Uint("notificationId", notificationID),
		zap.String("predicted", notification.Priority.String()),
		zap.String("corrected", corrected.String()),
	)

	return entry, nil
}

// RecentFeedback returns the latest corrections, newest first.
func (s *FeedbackService) RecentFeedback(ctx context.Context, limit int) ([]domain.UserFeedback, error) {
	return s.feedback.Recent(ctx, limit)
}

// categoryForCorrection recomputes the delivery category after a correction.
// Moving something up to MY_PRIORITY makes it instant, IGNORE hides it, and
// everything else joins the batch pool.
func categoryForCorrection(corrected domain.Priority) *domain.Category {
	var category domain.Category
	switch corrected {
	case domain.PriorityMyPriority:
		category = domain.CategoryInstant
	case domain.PriorityIgnore:
		category = domain.CategoryIgnore
	default:
		category = domain.CategoryBatched
	}
	return &category
}

func (s *FeedbackService) appName(ctx context.Context, packageName string) string {
	if s.preferences == nil {
		return packageName
	}

	pref, err := s.preferences.Get(ctx, packageName)
	if err != nil || pref == nil || pref.AppName == "" {
		return packageName
	}
	return pref.AppName
}
