// Package ws is the socket transport: it upgrades HTTP requests, attaches
// each connection to the relay registry and runs the per-connection pumps.
package ws

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-server/observability"
	"chat-server/relay"
	"chat-server/sink"
)

type Handler struct {
	registry       *relay.Registry
	relay          *relay.Relay
	monitor        *observability.Monitor
	log            *slog.Logger
	sendBufferSize int
	upgrader       websocket.Upgrader
}

func NewHandler(registry *relay.Registry, r *relay.Relay, monitor *observability.Monitor,
	log *slog.Logger, sendBufferSize int, allowedOrigin string) *Handler {
	return &Handler{
		registry:       registry,
		relay:          r,
		monitor:        monitor,
		log:            log,
		sendBufferSize: sendBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

// originChecker accepts same-origin requests plus the single configured
// frontend origin. An empty configuration accepts everything, for local
// development.
func originChecker(allowedOrigin string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if allowedOrigin == "" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowedOrigin
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.NewString()
	client := newClient(connID, conn, h.sendBufferSize, h.relay, h.log)

	h.registry.Attach(connID, sink.NewChannelSink(client.send, h.log))
	h.monitor.IncrConnections()
	h.log.Info(fmt.Sprintf("Connection %s accepted from %s", connID, r.RemoteAddr))

	go client.writePump()
	go client.readPump(func(connID string) {
		h.registry.Disconnect(connID)
		h.monitor.DecrConnections()
		h.log.Info(fmt.Sprintf("Connection %s disconnected", connID))
	})
}
