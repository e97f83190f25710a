// Package httpstream exposes trait change notifications over HTTP as a
// server-sent-event stream, with health and prometheus metrics
// endpoints.
package httpstream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/traitwatch/traitwatch"
	"github.com/traitwatch/traitwatch/pkg/domain"
)

// event is the wire form of a notification sent to SSE clients.
type event struct {
	Name string `json:"name"`
	Old  any    `json:"old"`
	New  any    `json:"new"`
}

// Broadcaster fans notifications out to connected SSE clients. Each
// client gets a buffered channel; a full buffer drops the event rather
// than stalling the mutating goroutine.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]chan event
	logger  *slog.Logger

	subs []*traitwatch.Subscription
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		clients: make(map[string]chan event),
		logger:  logger,
	}
}

// Attach subscribes the broadcaster to the named traits (or extended
// paths) of obs. With no names it observes every trait.
func (b *Broadcaster) Attach(obs traitwatch.Host, names ...string) error {
	if len(names) == 0 {
		names = []string{domain.AnyTrait}
	}
	for _, name := range names {
		sub, err := traitwatch.Subscribe(obs, name, func(n domain.Notification) {
			b.broadcast(event{Name: n.Name, Old: n.Old, New: n.New})
		})
		if err != nil {
			return fmt.Errorf("attach %q: %w", name, err)
		}
		b.subs = append(b.subs, sub)
	}
	return nil
}

// Detach removes every subscription made by Attach.
func (b *Broadcaster) Detach() {
	for _, sub := range b.subs {
		sub.Unsubscribe()
	}
	b.subs = nil
}

func (b *Broadcaster) broadcast(ev event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.clients {
		select {
		case ch <- ev:
		default:
			// Slow client; dropping keeps dispatch synchronous and bounded.
			b.logger.Warn("SSE client buffer full, dropping event", "client", id)
		}
	}
}

func (b *Broadcaster) subscribe() (string, chan event, func()) {
	id := uuid.NewString()
	ch := make(chan event, 16)

	b.mu.Lock()
	b.clients[id] = ch
	b.mu.Unlock()

	return id, ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.clients[id]; ok {
			delete(b.clients, id)
			close(ch)
		}
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// NewHandler builds the HTTP surface around a broadcaster:
// GET /events (SSE), GET /health, GET /metrics.
func NewHandler(b *Broadcaster) http.Handler {
	r := chi.NewRouter()
	r.Get("/events", b.handleEvents)
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return enableCORS(r)
}

func (b *Broadcaster) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		b.logger.Error("SSE: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch, cancel := b.subscribe()
	defer cancel()
	b.logger.Info("SSE client connected", "client", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			b.logger.Info("SSE client disconnected", "client", id)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				b.logger.Warn("event not serializable, dropping", "trait", ev.Name, "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
