package service

import (
	"context"
	"io"

	"github.com/juju/clock"

	"github.com/northgate/helpdesk/internal/report"
	"github.com/northgate/helpdesk/internal/repository"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

// ReportService produces spreadsheet exports.
type ReportService struct {
	store repository.Store
	clock clock.Clock
}

// NewReportService builds the service.
func NewReportService(store repository.Store, clk clock.Clock) *ReportService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &ReportService{store: store, clock: clk}
}

// ExportTickets writes every ticket to w as xlsx and returns the download
// file name.
func (s *ReportService) ExportTickets(ctx context.Context, w io.Writer) (string, error) {
	tickets, err := s.store.Repos().Tickets.ListForExport(ctx)
	if err != nil {
		return "", apperrors.FromStore(err, "ticket")
	}
	if err := report.WriteTickets(w, tickets); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return report.FileName(s.clock.Now()), nil
}
