package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/ratelimit"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

type limiterFunc func(ctx context.Context, key string) bool

func (f limiterFunc) Allow(ctx context.Context, key string) bool { return f(ctx, key) }

func TestMessageService_AppendThenListKeepsInsertionOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.store, nil, f.dispatcher, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityMedium)
	ctx := context.Background()

	contents := []string{"No imprime", "¿Probaste reiniciarla?", "Sí, sigue igual"}
	authors := []*domain.User{f.user, f.tech, f.user}
	for i, content := range contents {
		_, err := svc.Append(ctx, authors[i], ticket.ID, content, domain.MessageKindText)
		require.NoError(t, err)
	}

	msgs, err := svc.List(ctx, f.user, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, domain.SystemAuthorName, msgs[0].AuthorName)
	for i, content := range contents {
		assert.Equal(t, content, msgs[i+1].Content)
		assert.Equal(t, authors[i].Name, msgs[i+1].AuthorName)
	}
	assert.Len(t, f.dispatcher.ofType(events.EventTicketMessageAdded), 3)
}

func TestMessageService_Append_PublishesCreatorForReplies(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.store, nil, f.dispatcher, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityHigh)
	ctx := context.Background()

	_, err := svc.Append(ctx, f.tech, ticket.ID, "Reinicia el router, por favor", domain.MessageKindText)
	require.NoError(t, err)
	_, err = svc.Append(ctx, f.user, ticket.ID, "Listo", domain.MessageKindText)
	require.NoError(t, err)

	published := f.dispatcher.ofType(events.EventTicketMessageAdded)
	require.Len(t, published, 2)
	for _, event := range published {
		payload, ok := event.Payload.(events.TicketMessageAddedPayload)
		require.True(t, ok)
		assert.Equal(t, f.user.ID, payload.CreatorID)
		assert.Equal(t, "luis@northgate.local", payload.CreatorEmail)
		assert.Equal(t, ticket.Title, payload.Title)
	}
	assert.Equal(t, f.tech.ID, published[0].Actor.UserID)
	assert.Equal(t, "Reinicia el router, por favor", published[0].Payload.(events.TicketMessageAddedPayload).BodyPreview)
}

func TestMessageService_Append_DefaultsToText(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.store, nil, nil, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityLow)

	msg, err := svc.Append(context.Background(), f.user, ticket.ID, "hola", "")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageKindText, msg.Kind)
	require.NotNil(t, msg.AuthorID)
	assert.Equal(t, f.user.ID, *msg.AuthorID)
}

func TestMessageService_Append_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		caller   func(f *fixture) *domain.User
		ticketID func(ticket *domain.Ticket) int64
		content  string
		kind     domain.MessageKind
		code     string
	}{
		{name: "empty content", content: "   ", kind: domain.MessageKindText, code: apperrors.CodeValidation},
		{name: "too long", content: strings.Repeat("ñ", MaxMessageLength+1), kind: domain.MessageKindText, code: apperrors.CodeValidation},
		{name: "system kind is reserved", content: "hola", kind: domain.MessageKindSystem, code: apperrors.CodeValidation},
		{name: "unknown kind", content: "hola", kind: "video", code: apperrors.CodeValidation},
		{
			name:     "missing ticket",
			ticketID: func(*domain.Ticket) int64 { return 9999 },
			content:  "hola",
			kind:     domain.MessageKindText,
			code:     apperrors.CodeNotFound,
		},
		{
			name:    "foreign ticket",
			caller:  func(f *fixture) *domain.User { return f.other },
			content: "hola",
			kind:    domain.MessageKindText,
			code:    apperrors.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := NewMessageService(f.store, nil, nil, nil)
			ticket := f.createTicket(t, f.user, domain.TicketPriorityLow)
			caller := f.user
			if tt.caller != nil {
				caller = tt.caller(f)
			}
			id := ticket.ID
			if tt.ticketID != nil {
				id = tt.ticketID(ticket)
			}

			_, err := svc.Append(context.Background(), caller, id, tt.content, tt.kind)
			assert.Equal(t, tt.code, errCode(t, err))
			assert.Len(t, f.store.Messages(ticket.ID), 1)
		})
	}
}

func TestMessageService_Append_MaxLengthAccepted(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.store, nil, nil, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityLow)

	_, err := svc.Append(context.Background(), f.user, ticket.ID, strings.Repeat("ñ", MaxMessageLength), domain.MessageKindImage)
	assert.NoError(t, err)
}

func TestMessageService_Append_RateLimitedPerAuthor(t *testing.T) {
	f := newFixture(t)
	var keys []string
	limiter := limiterFunc(func(_ context.Context, key string) bool {
		keys = append(keys, key)
		return false
	})
	svc := NewMessageService(f.store, limiter, nil, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityLow)

	_, err := svc.Append(context.Background(), f.user, ticket.ID, "hola", domain.MessageKindText)
	assert.Equal(t, apperrors.CodeRateLimited, errCode(t, err))
	assert.Equal(t, []string{"1"}, keys)
	assert.Len(t, f.store.Messages(ticket.ID), 1)
}

func TestMessageService_Append_WithRedisLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newFixture(t)
	svc := NewMessageService(f.store, ratelimit.NewLimiter(client, "ratelimit:mensajes:", 2, time.Minute, nil), nil, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityLow)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Append(ctx, f.user, ticket.ID, "hola", domain.MessageKindText)
		require.NoError(t, err)
	}
	_, err = svc.Append(ctx, f.user, ticket.ID, "hola", domain.MessageKindText)
	assert.Equal(t, apperrors.CodeRateLimited, errCode(t, err))

	_, err = svc.Append(ctx, f.tech, ticket.ID, "te ayudo", domain.MessageKindText)
	assert.NoError(t, err)

	mr.FastForward(time.Minute)
	_, err = svc.Append(ctx, f.user, ticket.ID, "hola otra vez", domain.MessageKindText)
	assert.NoError(t, err)
}

func TestMessageService_List_AccessFilter(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.store, nil, nil, nil)
	ticket := f.createTicket(t, f.user, domain.TicketPriorityLow)

	_, err := svc.List(context.Background(), f.other, ticket.ID)
	assert.Equal(t, apperrors.CodeForbidden, errCode(t, err))

	msgs, err := svc.List(context.Background(), f.tech, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = svc.List(context.Background(), f.tech, 31337)
	assert.Equal(t, apperrors.CodeNotFound, errCode(t, err))
}

func TestStringPreview(t *testing.T) {
	assert.Equal(t, "hola", stringPreview("  hola ", 10))
	assert.Equal(t, "ñañ...", stringPreview("ñañañaña", 6))
	assert.Equal(t, "ña", stringPreview("ñaña", 2))
}
