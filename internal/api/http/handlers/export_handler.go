package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/northgate/helpdesk/internal/service"
)

// XLSXContentType is the media type of Office Open XML workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves spreadsheet downloads.
type ExportHandler struct {
	reports *service.ReportService
}

// NewExportHandler constructs handler.
func NewExportHandler(reports *service.ReportService) *ExportHandler {
	return &ExportHandler{reports: reports}
}

// Tickets GET /api/export.
func (h *ExportHandler) Tickets(c *fiber.Ctx) error {
	var buf bytes.Buffer
	name, err := h.reports.ExportTickets(c.UserContext(), &buf)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
