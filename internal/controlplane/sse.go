package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
)

// Broker fans a run's event.Bus out to any number of SSE subscribers,
// adapted from the teacher's internal/dashboard.SSEBroker: the same
// register/unregister/broadcast channel loop and heartbeat ticker,
// repointed from dashboard.SSEEvent to the engine's event.Event so the
// wire format is exactly §6's EventEnvelope, not a dashboard-specific
// shape.
type Broker struct {
	mu        sync.RWMutex
	clients   map[chan event.Event]struct{}
	register  chan chan event.Event
	unregister chan chan event.Event
	broadcast chan event.Event
	heartbeat time.Duration
}

// NewBroker creates an SSE broker with the teacher's default 30s heartbeat.
func NewBroker() *Broker {
	return &Broker{
		clients:    make(map[chan event.Event]struct{}),
		register:   make(chan chan event.Event),
		unregister: make(chan chan event.Event),
		broadcast:  make(chan event.Event, 256),
		heartbeat:  30 * time.Second,
	}
}

// Start runs the broker's event loop until ctx is cancelled.
func (b *Broker) Start(ctx context.Context) {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for ch := range b.clients {
				close(ch)
				delete(b.clients, ch)
			}
			b.mu.Unlock()
			return
		case ch := <-b.register:
			b.mu.Lock()
			b.clients[ch] = struct{}{}
			b.mu.Unlock()
		case ch := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[ch]; ok {
				close(ch)
				delete(b.clients, ch)
			}
			b.mu.Unlock()
		case e := <-b.broadcast:
			b.mu.RLock()
			for ch := range b.clients {
				select {
				case ch <- e:
				default:
				}
			}
			b.mu.RUnlock()
		case <-ticker.C:
			b.mu.RLock()
			n := len(b.clients)
			b.mu.RUnlock()
			_ = n // heartbeat ping is a bare SSE comment line, written per-connection below
		}
	}
}

// Publish enqueues e for delivery to every subscriber. Non-blocking: a
// full broadcast buffer drops the event rather than stalling the
// publishing Store.
func (b *Broker) Publish(e event.Event) {
	select {
	case b.broadcast <- e:
	default:
	}
}

// Subscribe registers a new client channel.
func (b *Broker) Subscribe() chan event.Event {
	ch := make(chan event.Event, 64)
	b.register <- ch
	return ch
}

// Unsubscribe removes a client channel.
func (b *Broker) Unsubscribe(ch chan event.Event) {
	b.unregister <- ch
}

// ClientCount reports how many SSE subscribers are currently connected.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events as they arrive, per §6 "subscribeEvents ...
// tail stream of EventEnvelope".
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(b.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat %d\n\n", time.Now().Unix())
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
