package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/notifa-ai/notifa-engine/internal/flags"
)

// boolFlagKeys are the device settings the bridge may read and write over HTTP.
var boolFlagKeys = map[string]struct{}{
	flags.KeyOnboardingCompleted:   {},
	flags.KeyNotificationPermitted: {},
	flags.KeyUsageStatsPermitted:   {},
}

type FlagsHandler struct {
	store flags.Store
}

func NewFlagsHandler(store flags.Store) (*FlagsHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("flag store is required")
	}
	return &FlagsHandler{store: store}, nil
}

func RegisterFlagRoutes(router fiber.Router, store flags.Store) error {
	h, err := NewFlagsHandler(store)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/flags/:key", h.GetFlag)
	v1.Put("/flags/:key", h.SetFlag)

	return nil
}

type setFlagRequest struct {
	Value bool `json:"value"`
}

func (h *FlagsHandler) GetFlag(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))
	if _, ok := boolFlagKeys[key]; !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown flag %q", key))
	}

	value, err := h.store.GetBool(c.Context(), key)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"key":   key,
		"value": value,
	})
}

func (h *FlagsHandler) SetFlag(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))
	if _, ok := boolFlagKeys[key]; !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown flag %q", key))
	}

	var req setFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.store.SetBool(c.Context(), key, req.Value); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"key":   key,
		"value": req.Value,
	})
}
