package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/services"
)

type fakeGateway struct {
	mu        sync.Mutex
	delivered []services.Event
	fail      bool
	done      chan struct{}
}

func newFakeGateway(expect int) *fakeGateway {
	g := &fakeGateway{done: make(chan struct{}, expect)}
	return g
}

func (g *fakeGateway) Notify(ctx context.Context, event services.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() { g.done <- struct{}{} }()
	if g.fail {
		return &apperrors.NotificationError{Event: string(event.Kind), Reason: errors.New("smtp down")}
	}
	g.delivered = append(g.delivered, event)
	return nil
}

func (g *fakeGateway) all() []services.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]services.Event, len(g.delivered))
	copy(out, g.delivered)
	return out
}

func waitFor(t *testing.T, ch chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestDispatcherDelivers(t *testing.T) {
	gateway := newFakeGateway(2)
	d := NewDispatcher(gateway, 8, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Enqueue(services.Event{Kind: services.EventTaskCreated, To: services.Recipient{Email: "a@example.com"}})
	d.Enqueue(services.Event{Kind: services.EventTaskStatusChanged, To: services.Recipient{Email: "b@example.com"}})

	waitFor(t, gateway.done, 2)

	delivered := gateway.all()
	require.Len(t, delivered, 2)
	assert.Equal(t, services.EventTaskCreated, delivered[0].Kind)
	assert.Equal(t, services.EventTaskStatusChanged, delivered[1].Kind)
}

func TestDispatcherToleratesDeliveryFailure(t *testing.T) {
	gateway := newFakeGateway(2)
	gateway.fail = true
	d := NewDispatcher(gateway, 8, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Enqueue(services.Event{Kind: services.EventTaskCreated, To: services.Recipient{Email: "a@example.com"}})
	waitFor(t, gateway.done, 1)

	// the loop keeps consuming after a failed delivery
	gateway.mu.Lock()
	gateway.fail = false
	gateway.mu.Unlock()

	d.Enqueue(services.Event{Kind: services.EventWelcome, To: services.Recipient{Email: "b@example.com"}})
	waitFor(t, gateway.done, 1)

	delivered := gateway.all()
	require.Len(t, delivered, 1)
	assert.Equal(t, services.EventWelcome, delivered[0].Kind)
}

func TestDispatcherEnqueueNeverBlocks(t *testing.T) {
	// no consumer running; the queue fills and extra events are dropped
	d := NewDispatcher(newFakeGateway(0), 2, time.Second)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Enqueue(services.Event{Kind: services.EventTaskCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(newFakeGateway(0), 0, 0)
	assert.Equal(t, 128, cap(d.events))
	assert.Equal(t, 10*time.Second, d.timeout)
}
