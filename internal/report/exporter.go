package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/northgate/helpdesk/internal/domain"
)

// SheetName is the worksheet holding the ticket export.
const SheetName = "Tickets"

// Headers are the column titles, in order.
var Headers = []string{
	"ID", "Título", "Descripción", "Prioridad", "Estado", "Activo",
	"Creador", "Fecha límite", "Calificación", "Creado",
}

const timestampLayout = "2006-01-02 15:04"

// FileName names an export generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("tickets-%s.xlsx", t.Format("20060102"))
}

// WriteTickets renders tickets as an xlsx workbook into w.
func WriteTickets(w io.Writer, tickets []domain.Ticket) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i := range tickets {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := ticketRow(&tickets[i])
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write ticket %d: %w", tickets[i].ID, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func ticketRow(t *domain.Ticket) []any {
	asset := ""
	if t.AssetName != nil {
		asset = *t.AssetName
	}
	var rating any = ""
	if t.IsRated() {
		rating = *t.Rating
	}
	return []any{
		t.ID,
		t.Title,
		t.Description,
		string(t.Priority),
		t.Status.Label(),
		asset,
		t.CreatorName,
		t.Deadline.Format(timestampLayout),
		rating,
		t.CreatedAt.Format(timestampLayout),
	}
}
