package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/northgate/helpdesk/internal/api/dto"
	"github.com/northgate/helpdesk/internal/service"
)

// AssetsHandler serves the asset register.
type AssetsHandler struct {
	assets *service.AssetService
}

// NewAssetsHandler constructs handler.
func NewAssetsHandler(assets *service.AssetService) *AssetsHandler {
	return &AssetsHandler{assets: assets}
}

// List GET /api/activos.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	assets, err := h.assets.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AssetResponse, 0, len(assets))
	for i := range assets {
		items = append(items, dto.NewAssetResponse(&assets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /api/activos.
func (h *AssetsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAssetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	asset, err := h.assets.Create(c.UserContext(), service.AssetInput{
		Name:   req.Nombre,
		Type:   req.Tipo,
		Serial: req.Serial,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAssetResponse(asset)})
}

// Delete DELETE /api/activos/:id.
func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.assets.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
