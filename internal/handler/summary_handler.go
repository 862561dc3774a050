package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/notifa-ai/notifa-engine/internal/service"
)

// SummaryService exposes the sticky summary controls.
type SummaryService interface {
	RefreshSummary(ctx context.Context) error
	ToggleCategory(ctx context.Context, label string) (service.ViewState, error)
	State() service.ViewState
}

type SummaryHandler struct {
	summary SummaryService
}

func NewSummaryHandler(summary SummaryService) (*SummaryHandler, error) {
	if summary == nil {
		return nil, fmt.Errorf("summary service is required")
	}
	return &SummaryHandler{summary: summary}, nil
}

func RegisterSummaryRoutes(router fiber.Router, summary SummaryService) error {
	h, err := NewSummaryHandler(summary)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/summary", h.GetState)
	v1.Post("/summary/refresh", h.Refresh)
	v1.Post("/summary/toggle", h.Toggle)

	return nil
}

type toggleRequest struct {
	Label string `json:"label"`
}

func (h *SummaryHandler) GetState(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.summary.State())
}

func (h *SummaryHandler) Refresh(c *fiber.Ctx) error {
	if err := h.summary.RefreshSummary(c.Context()); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "refreshed"})
}

func (h *SummaryHandler) Toggle(c *fiber.Ctx) error {
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	state, err := h.summary.ToggleCategory(c.Context(), req.Label)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(state)
}
