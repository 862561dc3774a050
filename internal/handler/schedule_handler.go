package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

// ScheduleService validates and persists batch schedule changes.
type ScheduleService interface {
	CreateSchedule(ctx context.Context, schedule *domain.BatchSchedule) error
	UpdateSchedule(ctx context.Context, schedule *domain.BatchSchedule) error
}

type ScheduleHandler struct {
	schedules repository.BatchScheduleRepository
	service   ScheduleService
}

func NewScheduleHandler(schedules repository.BatchScheduleRepository, service ScheduleService) (*ScheduleHandler, error) {
	if schedules == nil {
		return nil, fmt.Errorf("schedule repository is required")
	}
	if service == nil {
		return nil, fmt.Errorf("schedule service is required")
	}
	return &ScheduleHandler{schedules: schedules, service: service}, nil
}

func RegisterScheduleRoutes(router fiber.Router, schedules repository.BatchScheduleRepository, service ScheduleService) error {
	h, err := NewScheduleHandler(schedules, service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/schedules", h.ListSchedules)
	v1.Post("/schedules", h.CreateSchedule)
	v1.Put("/schedules/:id", h.UpdateSchedule)
	v1.Delete("/schedules/:id", h.DeleteSchedule)

	return nil
}

type scheduleRequest struct {
	TimeInMinutes int  `json:"timeInMinutes"`
	Enabled       bool `json:"enabled"`
}

type scheduleResponse struct {
	ID            uint `json:"id"`
	TimeInMinutes int  `json:"timeInMinutes"`
	Enabled       bool `json:"enabled"`
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	schedules, err := h.schedules.GetAll(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		resp = append(resp, scheduleResponse{ID: s.ID, TimeInMinutes: s.TimeInMinutes, Enabled: s.Enabled})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": resp})
}

func (h *ScheduleHandler) CreateSchedule(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	schedule := &domain.BatchSchedule{
		TimeInMinutes: req.TimeInMinutes,
		Enabled:       req.Enabled,
	}
	if err := h.service.CreateSchedule(c.Context(), schedule); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(scheduleResponse{
		ID:            schedule.ID,
		TimeInMinutes: schedule.TimeInMinutes,
		Enabled:       schedule.Enabled,
	})
}

func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	id, err := parseScheduleID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	schedule := &domain.BatchSchedule{
		ID:            id,
		TimeInMinutes: req.TimeInMinutes,
		Enabled:       req.Enabled,
	}
	if err := h.service.UpdateSchedule(c.Context(), schedule); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(scheduleResponse{
		ID:            schedule.ID,
		TimeInMinutes: schedule.TimeInMinutes,
		Enabled:       schedule.Enabled,
	})
}

func (h *ScheduleHandler) DeleteSchedule(c *fiber.Ctx) error {
	id, err := parseScheduleID(c)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.schedules.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseScheduleID(c *fiber.Ctx) (uint, error) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid schedule id %q", domain.ErrValidation, raw)
	}
	return uint(id), nil
}
