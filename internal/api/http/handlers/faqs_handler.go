package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/northgate/helpdesk/internal/api/dto"
	"github.com/northgate/helpdesk/internal/service"
)

// FAQsHandler serves the knowledge base.
type FAQsHandler struct {
	faqs *service.FAQService
}

// NewFAQsHandler constructs handler.
func NewFAQsHandler(faqs *service.FAQService) *FAQsHandler {
	return &FAQsHandler{faqs: faqs}
}

// List GET /api/faqs. Optional ?categoria=.
func (h *FAQsHandler) List(c *fiber.Ctx) error {
	entries, err := h.faqs.List(c.UserContext(), c.Query("categoria"))
	if err != nil {
		return err
	}
	items := make([]dto.FAQResponse, 0, len(entries))
	for i := range entries {
		items = append(items, faqResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/faqs/:id.
func (h *FAQsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entry, err := h.faqs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": faqResponse(entry)})
}

// Create POST /api/faqs.
func (h *FAQsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateFAQRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.faqs.Create(c.UserContext(), user, service.FAQInput{
		Title:    req.Titulo,
		Content:  req.Contenido,
		Category: req.Categoria,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": faqResponse(entry)})
}

// Delete DELETE /api/faqs/:id.
func (h *FAQsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.faqs.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func faqResponse(e *service.FAQEntry) dto.FAQResponse {
	return dto.FAQResponse{
		ID:            e.ID,
		Titulo:        e.Title,
		Contenido:     e.Content,
		ContenidoHTML: e.ContentHTML,
		Categoria:     e.Category,
		AutorID:       e.AuthorID,
		Autor:         e.AuthorName,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
