package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
	feedbackLimit   = 10
)

// CorrectionService applies user priority corrections.
type CorrectionService interface {
	SubmitCorrection(ctx context.Context, notificationID uint, corrected domain.Priority) (*domain.UserFeedback, error)
	RecentFeedback(ctx context.Context, limit int) ([]domain.UserFeedback, error)
}

// NotificationSummarizer generates a stored one-sentence summary on demand.
type NotificationSummarizer interface {
	SummarizeNotification(ctx context.Context, id uint) (string, error)
}

type NotificationHandler struct {
	notifications repository.NotificationRepository
	corrections   CorrectionService
	summarizer    NotificationSummarizer
}

func NewNotificationHandler(notifications repository.NotificationRepository, corrections CorrectionService, summarizer NotificationSummarizer) (*NotificationHandler, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if corrections == nil {
		return nil, fmt.Errorf("correction service is required")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("notification summarizer is required")
	}
	return &NotificationHandler{notifications: notifications, corrections: corrections, summarizer: summarizer}, nil
}

func RegisterNotificationRoutes(router fiber.Router, notifications repository.NotificationRepository, corrections CorrectionService, summarizer NotificationSummarizer) error {
	h, err := NewNotificationHandler(notifications, corrections, summarizer)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/notifications", h.ListNotifications)
	v1.Get("/notifications/stats", h.GetStats)
	v1.Get("/notifications/:id", h.GetNotification)
	v1.Delete("/notifications/:id", h.DeleteNotification)
	v1.Delete("/notifications", h.DeleteAllNotifications)
	v1.Post("/notifications/:id/read", h.MarkRead)
	v1.Post("/notifications/:id/summarize", h.SummarizeNotification)
	v1.Post("/notifications/:id/correction", h.SubmitCorrection)
	v1.Get("/feedback", h.ListFeedback)

	return nil
}

type notificationResponse struct {
	ID          uint    `json:"id"`
	PackageName string  `json:"packageName"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	PostedAt    int64   `json:"postedAt"`
	Priority    string  `json:"priority"`
	Summary     *string `json:"summary,omitempty"`
	Category    string  `json:"category"`
	Read        bool    `json:"read"`
	Summarized  bool    `json:"summarized"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`
}

type listNotificationsResponse struct {
	Data []notificationResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type statsResponse struct {
	Categories []statsCountItem `json:"categories"`
	Priorities []statsCountItem `json:"priorities"`
}

type statsCountItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type correctionRequest struct {
	Priority string `json:"priority"`
}

type feedbackResponse struct {
	ID                uint   `json:"id"`
	PackageName       string `json:"packageName"`
	AppName           string `json:"appName"`
	Title             string `json:"title"`
	Body              string `json:"body"`
	PredictedPriority string `json:"predictedPriority"`
	CorrectedPriority string `json:"correctedPriority"`
	CreatedAt         int64  `json:"createdAt"`
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	notifications, total, err := h.notifications.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listNotificationsResponse{
		Data: toNotificationResponses(notifications),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return toHTTPError(err)
	}

	notification, err := h.notifications.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.notifications.DeleteByID(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) DeleteAllNotifications(c *fiber.Ctx) error {
	if err := h.notifications.DeleteAll(c.Context()); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return toHTTPError(err)
	}

	read := c.QueryBool("read", true)
	if err := h.notifications.SetRead(c.Context(), id, read); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":   id,
		"read": read,
	})
}

func (h *NotificationHandler) GetStats(c *fiber.Ctx) error {
	categories, err := h.notifications.CountByCategory(c.Context())
	if err != nil {
		return toHTTPError(err)
	}
	priorities, err := h.notifications.CountByPriority(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	resp := statsResponse{
		Categories: make([]statsCountItem, 0, len(categories)),
		Priorities: make([]statsCountItem, 0, len(priorities)),
	}
	for _, count := range categories {
		resp.Categories = append(resp.Categories, statsCountItem{Label: count.Category.String(), Count: count.Count})
	}
	for _, count := range priorities {
		resp.Priorities = append(resp.Priorities, statsCountItem{Label: count.Priority.String(), Count: count.Count})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *NotificationHandler) SummarizeNotification(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return toHTTPError(err)
	}

	summary, err := h.summarizer.SummarizeNotification(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      id,
		"summary": summary,
	})
}

func (h *NotificationHandler) SubmitCorrection(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req correctionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	priority, err := domain.ParsePriorityFromString(req.Priority)
	if err != nil {
		return toHTTPError(err)
	}

	entry, err := h.corrections.SubmitCorrection(c.Context(), id, priority)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toFeedbackResponse(entry))
}

func (h *NotificationHandler) ListFeedback(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", feedbackLimit)

	entries, err := h.corrections.RecentFeedback(c.Context(), limit)
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]feedbackResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, toFeedbackResponse(&entries[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": resp})
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority, err := domain.ParsePriorityFromString(raw)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Priority = &priority
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category, err := domain.ParseCategoryFromString(raw)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Category = &category
	}

	return params, nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid notification id %q", domain.ErrValidation, raw)
	}
	return uint(id), nil
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:          n.ID,
		PackageName: n.PackageName,
		Title:       n.Title,
		Body:        n.Body,
		PostedAt:    n.PostedAt,
		Priority:    n.Priority.String(),
		Summary:     n.Summary,
		Category:    n.Category.String(),
		Read:        n.Read,
		Summarized:  n.Summarized,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func toNotificationResponses(notifications []domain.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}
	return responses
}

func toFeedbackResponse(f *domain.UserFeedback) feedbackResponse {
	return feedbackResponse{
		ID:                f.ID,
		PackageName:       f.PackageName,
		AppName:           f.AppName,
		Title:             f.Title,
		Body:              f.Body,
		PredictedPriority: f.PredictedPriority.String(),
		CorrectedPriority: f.CorrectedPriority.String(),
		CreatedAt:         f.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
