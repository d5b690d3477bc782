package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsyncDispatcher_DeliversToEverySubscriber(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)
	var calls atomic.Int32

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketRated, func(context.Context, Event) error {
		calls.Add(100)
		return nil
	})

	d.Publish(context.Background(), New(EventTicketCreated, 1, Actor{}, time.Now(), nil))

	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestAsyncDispatcher_PublishDoesNotWait(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 0)
	release := make(chan struct{})
	d.Subscribe(EventTicketMessageAdded, func(context.Context, Event) error {
		<-release
		return nil
	})

	returned := make(chan struct{})
	go func() {
		d.Publish(context.Background(), New(EventTicketMessageAdded, 1, Actor{}, time.Now(), nil))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Drain(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, d.Drain(context.Background()))
}

func TestAsyncDispatcher_HandlerOutlivesRequestContext(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)
	var sawCancel atomic.Bool
	d.Subscribe(EventTicketStatusChanged, func(ctx context.Context, _ Event) error {
		time.Sleep(10 * time.Millisecond)
		sawCancel.Store(errors.Is(ctx.Err(), context.Canceled))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Publish(ctx, New(EventTicketStatusChanged, 1, Actor{}, time.Now(), nil))
	cancel()

	require.NoError(t, d.Drain(context.Background()))
	assert.False(t, sawCancel.Load())
}

func TestAsyncDispatcher_RecoversFromPanics(t *testing.T) {
	d := NewAsyncDispatcher(nil, 0)
	d.Subscribe(EventTicketRated, func(context.Context, Event) error {
		panic("boom")
	})

	d.Publish(context.Background(), New(EventTicketRated, 3, Actor{}, time.Now(), nil))
	assert.NoError(t, d.Drain(context.Background()))
}

func TestNew_AssignsUniqueIDs(t *testing.T) {
	a := New(EventTicketCreated, 1, Actor{}, time.Now(), nil)
	b := New(EventTicketCreated, 1, Actor{}, time.Now(), nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
