package worker

import (
	"context"
	"log"
	"time"

	"taskhub/internal/services"
)

// Dispatcher decouples notification delivery from the request path. Events
// go into a bounded queue and a single worker goroutine hands them to the
// gateway; a delivery failure is logged and dropped, never retried.
type Dispatcher struct {
	gateway services.NotificationGateway
	events  chan services.Event
	timeout time.Duration
}

func NewDispatcher(gateway services.NotificationGateway, queueSize int, timeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 128
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		gateway: gateway,
		events:  make(chan services.Event, queueSize),
		timeout: timeout,
	}
}

// Enqueue never blocks; when the queue is full the event is dropped and
// logged, keeping the mutation path unaffected.
func (d *Dispatcher) Enqueue(event services.Event) {
	select {
	case d.events <- event:
	default:
		log.Printf("[notify][drop] queue full, dropping %s for %s", event.Kind, event.To.Email)
	}
}

// Start consumes the queue until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	log.Printf("[notify] dispatcher started, queue=%d", cap(d.events))
	for {
		select {
		case <-ctx.Done():
			log.Printf("[notify] dispatcher stopped")
			return
		case event := <-d.events:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event services.Event) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.gateway.Notify(sendCtx, event); err != nil {
		log.Printf("[notify][err] %s to %s: %v", event.Kind, event.To.Email, err)
		return
	}
	log.Printf("[notify][ok] %s to %s", event.Kind, event.To.Email)
}
