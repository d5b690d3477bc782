package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/repository/memstore"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

var t0 = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store      *memstore.Store
	clock      *testclock.Clock
	dispatcher *recordingDispatcher
	tickets    *TicketService
	user       *domain.User
	other      *domain.User
	tech       *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	clk := testclock.NewClock(t0)
	store.Now = clk.Now
	dispatcher := &recordingDispatcher{}

	f := &fixture{
		store:      store,
		clock:      clk,
		dispatcher: dispatcher,
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Dispatcher: dispatcher,
			Clock:      clk,
		}),
	}
	f.user = f.seedUser("Luis", "luis@northgate.local", domain.RoleUser)
	f.other = f.seedUser("Marta", "marta@northgate.local", domain.RoleUser)
	f.tech = f.seedUser("Ana", "ana@northgate.local", domain.RoleTechnician)
	return f
}

func (f *fixture) seedUser(name, email string, role domain.Role) *domain.User {
	u := domain.User{Name: name, Email: email, Role: role}
	u.ID = f.store.SeedUser(u)
	return &u
}

func (f *fixture) createTicket(t *testing.T, caller *domain.User, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), caller, TicketCreateInput{
		Title:       "Impresora sin tóner",
		Description: "Piso 2",
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	return domainErr.Code
}

func statusPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }

func intPtr(v int) *int { return &v }
