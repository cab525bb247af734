package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local development bridge; same policy as the CORS layer
	},
}

// EventStream broadcasts command lifecycle events to WebSocket clients so an
// embedding UI can show per-command notifications and a live queue view.
type EventStream struct {
	logger  arbor.ILogger
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewEventStream creates the stream and subscribes it to all bridge events.
func NewEventStream(events interfaces.EventService, logger arbor.ILogger) *EventStream {
	es := &EventStream{
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
	if events != nil {
		events.SubscribeAll(es.broadcast)
	}
	return es
}

// HandleEvents upgrades the connection and keeps it registered until the
// client goes away.
func (es *EventStream) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		es.logger.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	es.mu.Lock()
	es.clients[conn] = &sync.Mutex{}
	count := len(es.clients)
	es.mu.Unlock()

	es.logger.Debug().Int("clients", count).Msg("Event stream client connected")

	// Reader loop only detects disconnects; clients never send payloads.
	go func() {
		defer es.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (es *EventStream) remove(conn *websocket.Conn) {
	es.mu.Lock()
	delete(es.clients, conn)
	es.mu.Unlock()
	conn.Close()
}

// broadcast fans one event out to every connected client.
func (es *EventStream) broadcast(ctx context.Context, event interfaces.Event) {
	es.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(es.clients))
	for conn, writeMu := range es.clients {
		conns[conn] = writeMu
	}
	es.mu.Unlock()

	for conn, writeMu := range conns {
		writeMu.Lock()
		err := conn.WriteJSON(event)
		writeMu.Unlock()
		if err != nil {
			es.logger.Debug().Err(err).Msg("Event stream write failed, dropping client")
			es.remove(conn)
		}
	}
}
