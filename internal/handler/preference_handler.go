package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/notifa-ai/notifa-engine/internal/domain"
	"github.com/notifa-ai/notifa-engine/internal/repository"
)

type PreferenceHandler struct {
	preferences repository.AppPreferenceRepository
}

func NewPreferenceHandler(preferences repository.AppPreferenceRepository) (*PreferenceHandler, error) {
	if preferences == nil {
		return nil, fmt.Errorf("preference repository is required")
	}
	return &PreferenceHandler{preferences: preferences}, nil
}

func RegisterPreferenceRoutes(router fiber.Router, preferences repository.AppPreferenceRepository) error {
	h, err := NewPreferenceHandler(preferences)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/preferences", h.ListPreferences)
	v1.Put("/preferences", h.BulkUpsertPreferences)
	v1.Get("/preferences/:packageName", h.GetPreference)
	v1.Put("/preferences/:packageName", h.UpsertPreference)
	v1.Delete("/preferences/:packageName", h.DeletePreference)

	return nil
}

type preferenceRequest struct {
	AppName  string `json:"appName"`
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
}

type bulkPreferenceRequest struct {
	Preferences []bulkPreferenceItem `json:"preferences"`
}

type bulkPreferenceItem struct {
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`
	Category    string `json:"category"`
	Enabled     bool   `json:"enabled"`
}

type preferenceResponse struct {
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`
	Category    string `json:"category"`
	Enabled     bool   `json:"enabled"`
}

func (h *PreferenceHandler) ListPreferences(c *fiber.Ctx) error {
	prefs, err := h.preferences.GetAll(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]preferenceResponse, 0, len(prefs))
	for i := range prefs {
		resp = append(resp, toPreferenceResponse(&prefs[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": resp})
}

func (h *PreferenceHandler) GetPreference(c *fiber.Ctx) error {
	packageName := strings.TrimSpace(c.Params("packageName"))

	pref, err := h.preferences.Get(c.Context(), packageName)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toPreferenceResponse(pref))
}

func (h *PreferenceHandler) UpsertPreference(c *fiber.Ctx) error {
	packageName := strings.TrimSpace(c.Params("packageName"))

	var req preferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	pref, err := preferenceFromRequest(packageName, req.AppName, req.Category, req.Enabled)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.preferences.Upsert(c.Context(), pref); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toPreferenceResponse(pref))
}

// BulkUpsertPreferences seeds preferences for many apps at once; existing
// rows keep their user-chosen settings.
func (h *PreferenceHandler) BulkUpsertPreferences(c *fiber.Ctx) error {
	var req bulkPreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Preferences) == 0 {
		return toHTTPError(fmt.Errorf("%w: preferences is required", domain.ErrValidation))
	}

	prefs := make([]domain.AppPreference, 0, len(req.Preferences))
	for _, item := range req.Preferences {
		pref, err := preferenceFromRequest(item.PackageName, item.AppName, item.Category, item.Enabled)
		if err != nil {
			return toHTTPError(err)
		}
		prefs = append(prefs, *pref)
	}

	if err := h.preferences.UpsertAll(c.Context(), prefs); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"count": len(prefs)})
}

func (h *PreferenceHandler) DeletePreference(c *fiber.Ctx) error {
	packageName := strings.TrimSpace(c.Params("packageName"))

	if err := h.preferences.Delete(c.Context(), packageName); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func preferenceFromRequest(packageName, appName, category string, enabled bool) (*domain.AppPreference, error) {
	parsed, err := domain.ParseCategoryFromString(category)
	if err != nil {
		return nil, err
	}

	pref := &domain.AppPreference{
		PackageName: strings.TrimSpace(packageName),
		AppName:     strings.TrimSpace(appName),
		Category:    parsed,
		Enabled:     enabled,
	}
	if err := pref.Validate(); err != nil {
		return nil, err
	}

	return pref, nil
}

func toPreferenceResponse(p *domain.AppPreference) preferenceResponse {
	return preferenceResponse{
		PackageName: p.PackageName,
		AppName:     p.AppName,
		Category:    p.Category.String(),
		Enabled:     p.Enabled,
	}
}
