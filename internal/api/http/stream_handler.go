package http

import (
	"net/http"
	"strconv"
	"sync"

	"kudos-backend/internal/events"
	"kudos-backend/internal/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Hub broadcasts ledger events to connected websocket subscribers. Delivery
// is at-most-once per connection: a subscriber with a full send buffer is
// skipped rather than slowing the dispatcher, and a disconnected subscriber
// simply misses live events (the feed query covers the gap).
type Hub struct {
	mu   sync.RWMutex
	subs map[int32]map[*subscriber]struct{} // keyed by employee ID

	upgrader websocket.Upgrader
}

type subscriber struct {
	send chan events.Event
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int32]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Deliver implements events.Sink.
func (h *Hub) Deliver(event events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[event.SubjectID] {
		select {
		case sub.send <- event:
		default:
			logger.Warn("Subscriber send buffer full, skipping event", "employee_id", event.SubjectID, "kind", event.Kind)
		}
	}
}

func (h *Hub) add(employeeID int32, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[employeeID] == nil {
		h.subs[employeeID] = make(map[*subscriber]struct{})
	}
	h.subs[employeeID][sub] = struct{}{}
}

func (h *Hub) remove(employeeID int32, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[employeeID], sub)
	if len(h.subs[employeeID]) == 0 {
		delete(h.subs, employeeID)
	}
}

// HandleFeed upgrades the connection and streams the employee's events
// until the client goes away. The employee ID arrives pre-validated by the
// identity layer in front of this service.
func (h *Hub) HandleFeed(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(mux.Vars(r)["employeeID"], 10, 32)
	if err != nil {
		http.Error(w, "invalid employee id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := &subscriber{send: make(chan events.Event, 16)}
	h.add(int32(employeeID), sub)
	defer h.remove(int32(employeeID), sub)

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-sub.send:
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug("Subscriber write failed, dropping connection", "employee_id", employeeID, "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}

// NewRouter wires the HTTP surface this service exposes: the live feed
// stream and a health probe. The economy operations themselves have no HTTP
// surface here.
func NewRouter(hub *Hub) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/feed/{employeeID:[0-9]+}", hub.HandleFeed)
	return r
}
