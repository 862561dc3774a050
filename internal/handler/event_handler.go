package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/notifa-ai/notifa-engine/internal/queue"
)

// EventHandler accepts raw notification events from the device bridge and
// hands them to the intake queue. The bridge fires and forgets; all routing
// happens asynchronously in the worker pool.
type EventHandler struct {
	publisher queue.Publisher
}

func NewEventHandler(publisher queue.Publisher) (*EventHandler, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	return &EventHandler{publisher: publisher}, nil
}

func RegisterEventRoutes(router fiber.Router, publisher queue.Publisher) error {
	h, err := NewEventHandler(publisher)
	if err != nil {
		return err
	}

	router.Group("/v1").Post("/events", h.PublishEvent)

	return nil
}

type publishEventRequest struct {
	EventID     string `json:"eventId"`
	PackageName string `json:"packageName"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PostedAt    int64  `json:"postedAt"`
	NativeKey   string `json:"nativeKey"`
}

func (h *EventHandler) PublishEvent(c *fiber.Ctx) error {
	var req publishEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		eventID = uuid.NewString()
	}

	msg := queue.EventMessage{
		EventID:     eventID,
		PackageName: req.PackageName,
		Title:       req.Title,
		Body:        req.Body,
		PostedAt:    req.PostedAt,
		NativeKey:   req.NativeKey,
	}
	if err := msg.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.publisher.Publish(c.Context(), queue.IntakeQueue, msg); err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"eventId": eventID,
		"status":  "queued",
	})
}
