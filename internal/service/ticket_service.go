package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/repository"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// Foreign keys on tickets, as named by the schema.
const (
	ticketAssetConstraint   = "tickets_activo_id_fkey"
	ticketCreatorConstraint = "tickets_usuario_id_fkey"
)

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	AssetID     *int64
}

// TicketUpdateInput carries an optional status and an optional rating. A
// zero rating means no rating.
type TicketUpdateInput struct {
	Status *domain.TicketStatus
	Rating *int
}

func (in TicketUpdateInput) hasRating() bool {
	return in.Rating != nil && *in.Rating != 0
}

// NewTicketService builds the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

// Create opens a ticket for caller. The ticket and its creation audit entry
// are written in one transaction.
func (s *TicketService) Create(ctx context.Context, caller *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("titulo is required", map[string]any{"titulo": "required"})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"prioridad": string(input.Priority)})
	}

	createdAt := s.clock.Now().UTC()
	deadline, err := input.Priority.Deadline(createdAt)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		AssetID:     input.AssetID,
		CreatorID:   caller.ID,
		CreatorName: caller.Name,
		Deadline:    deadline,
		CreatedAt:   createdAt,
	}

	err = s.store.InTx(ctx, func(repos repository.Repositories) error {
		if ticket.AssetID != nil {
			asset, err := repos.Assets.GetByID(ctx, *ticket.AssetID)
			if err != nil {
				return apperrors.FromStore(err, "activo")
			}
			ticket.AssetName = &asset.Name
		}
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			if apperrors.IsForeignKeyViolation(err) {
				switch apperrors.ConstraintName(err) {
				case ticketAssetConstraint:
					return apperrors.NewNotFound("activo", map[string]any{"activo_id": ticket.AssetID})
				case ticketCreatorConstraint:
					return apperrors.NewNotFound("usuario", map[string]any{"usuario_id": ticket.CreatorID})
				}
			}
			return err
		}
		return repos.Messages.Create(ctx, domain.NewSystemMessage(ticket.ID, domain.CreatedAuditText(ticket.Priority, ticket.Deadline)))
	})
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}

	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("creator_id", caller.ID),
		zap.String("priority", string(ticket.Priority)))

	s.publish(ctx, events.New(events.EventTicketCreated, ticket.ID, events.ActorFor(caller), createdAt,
		events.TicketCreatedPayload{
			Title:       ticket.Title,
			Priority:    ticket.Priority,
			Deadline:    ticket.Deadline,
			CreatorName: caller.Name,
		}))
	return ticket, nil
}

// UpdateStatus applies a rating, a status change or both. Each applied change
// appends one audit entry in the same transaction.
func (s *TicketService) UpdateStatus(ctx context.Context, caller *domain.User, ticketID int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if input.Status == nil && !input.hasRating() {
		return nil, apperrors.NewValidationError("estado or calificacion is required", nil)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError(domain.ErrInvalidStatus.Error(), map[string]any{"estado": string(*input.Status)})
	}
	if input.hasRating() {
		if err := domain.ValidateRating(*input.Rating); err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"calificacion": *input.Rating})
		}
	}

	var (
		updated   *domain.Ticket
		oldStatus domain.TicketStatus
		creator   *domain.User
		actor     *domain.User
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		actor, err = repos.Users.GetByID(ctx, caller.ID)
		if err != nil {
			return apperrors.FromStore(err, "usuario")
		}
		ticket, err := repos.Tickets.LockByID(ctx, ticketID)
		if err != nil {
			return apperrors.FromStore(err, "ticket")
		}
		if !CanAccess(actor, ticket) {
			return apperrors.NewForbidden("ticket belongs to another user")
		}
		oldStatus = ticket.Status

		if input.hasRating() {
			if err := repos.Tickets.UpdateRating(ctx, ticketID, *input.Rating); err != nil {
				return err
			}
			if err := repos.Messages.Create(ctx, domain.NewSystemMessage(ticketID, domain.RatingAuditText(actor.Name, *input.Rating))); err != nil {
				return err
			}
		}
		if input.Status != nil {
			if err := repos.Tickets.UpdateStatus(ctx, ticketID, *input.Status); err != nil {
				return err
			}
			if err := repos.Messages.Create(ctx, domain.NewSystemMessage(ticketID, domain.StatusAuditText(actor.Name, *input.Status))); err != nil {
				return err
			}
			if ticket.OwnedBy(actor.ID) {
				creator = actor
			} else if creator, err = repos.Users.GetByID(ctx, ticket.CreatorID); err != nil {
				return err
			}
		}

		updated, err = repos.Tickets.GetByID(ctx, ticketID)
		return err
	})
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}

	s.logger.Info("ticket updated",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("actor_id", actor.ID),
		zap.String("status", string(updated.Status)))

	now := s.clock.Now().UTC()
	if input.hasRating() {
		s.publish(ctx, events.New(events.EventTicketRated, ticketID, events.ActorFor(actor), now,
			events.TicketRatedPayload{Title: updated.Title, Rating: *input.Rating, CreatorName: updated.CreatorName}))
	}
	if input.Status != nil {
		s.publish(ctx, events.New(events.EventTicketStatusChanged, ticketID, events.ActorFor(actor), now,
			events.TicketStatusChangedPayload{
				Title:        updated.Title,
				OldStatus:    oldStatus,
				NewStatus:    *input.Status,
				CreatorID:    creator.ID,
				CreatorEmail: creator.Email,
			}))
	}
	return updated, nil
}

// Delete removes a ticket and its messages. Deleting a missing ticket succeeds.
func (s *TicketService) Delete(ctx context.Context, ticketID int64) error {
	if err := s.store.Repos().Tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.FromStore(err, "ticket")
	}
	s.logger.Info("ticket deleted", zap.Int64("ticket_id", ticketID))
	return nil
}

// Get returns a ticket visible to caller.
func (s *TicketService) Get(ctx context.Context, caller *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.store.Repos().Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	if !CanAccess(caller, ticket) {
		return nil, apperrors.NewForbidden("ticket belongs to another user")
	}
	return ticket, nil
}

// List returns the tickets caller may see, optionally narrowed by status.
func (s *TicketService) List(ctx context.Context, caller *domain.User, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	for _, status := range statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError(domain.ErrInvalidStatus.Error(), map[string]any{"estado": string(status)})
		}
	}
	filter := ScopeFor(caller)
	filter.Statuses = statuses

	tickets, err := s.store.Repos().Tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	return tickets, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
