// Package relay bridges inbound session events to room membership and
// message fan-out. It never blocks on a recipient, never retries and never
// persists: delivery is attempted against the membership snapshot of the
// moment and a recipient that is not connected simply receives nothing.
package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-server/contract"
	"chat-server/domain/event"
	"chat-server/observability"
)

// Emission is a delivery instruction produced by an event handler. Exactly
// one of To (a single connection) or Room (a broadcast group) is set.
// Exclude names a connection to skip during a room broadcast, which is how
// the sender is kept out of its own typing notifications.
type Emission struct {
	To      string
	Room    string
	Exclude string
	Event   string
	Payload json.RawMessage
}

// HandlerFunc handles one inbound event for one connection and returns the
// emissions to perform. Handlers mutate nothing but the registry.
type HandlerFunc func(connID string, payload json.RawMessage) []Emission

// Relay dispatches inbound events by name. Each event is handled
// independently against the current membership snapshot; the only state
// carried across events lives in the Registry.
type Relay struct {
	log      *slog.Logger
	registry *Registry
	monitor  *observability.Monitor
	handlers map[string]HandlerFunc
}

func NewRelay(log *slog.Logger, registry *Registry, monitor *observability.Monitor) *Relay {
	r := &Relay{
		log:      log,
		registry: registry,
		monitor:  monitor,
	}
	r.handlers = map[string]HandlerFunc{
		event.Setup:      r.handleSetup,
		event.JoinChat:   r.handleJoinChat,
		event.Typing:     r.handleTyping,
		event.StopTyping: r.handleStopTyping,
		event.NewMessage: r.handleNewMessage,
	}
	return r
}

// Handle runs the handler registered for the envelope's event name and
// returns its emission instructions. Unknown events are logged and ignored;
// a bad event never stops processing of subsequent ones.
func (r *Relay) Handle(connID string, env event.Envelope) []Emission {
	r.monitor.IncrEventsHandled()

	handler, ok := r.handlers[env.Event]
	if !ok {
		r.log.Debug("Unknown inbound event", "event", env.Event, "conn_id", connID)
		return nil
	}
	return handler(connID, env.Payload)
}

// Deliver executes emissions through the registry. A failed individual
// delivery is counted and logged but never aborts delivery to the others.
func (r *Relay) Deliver(emissions []Emission) {
	for _, em := range emissions {
		env := event.Envelope{Event: em.Event, Payload: em.Payload}

		if em.To != "" {
			if sink, ok := r.registry.SinkFor(em.To); ok {
				r.consume(sink, env)
			}
			continue
		}

		for _, sink := range r.registry.SinksForRoom(em.Room, em.Exclude) {
			r.consume(sink, env)
		}
	}
}

func (r *Relay) consume(sink contract.EventSink, env event.Envelope) {
	if err := sink.Consume(env); err != nil {
		r.monitor.IncrEmissionsDropped()
		r.log.Debug("Emission dropped", "event", env.Event, "error", err)
		return
	}
	r.monitor.IncrEmissionsDelivered()
}

func (r *Relay) handleSetup(connID string, payload json.RawMessage) []Emission {
	var identity string
	if err := json.Unmarshal(payload, &identity); err != nil || identity == "" {
		r.log.Warn("Setup event with unusable identity", "conn_id", connID, "error", err)
		return nil
	}

	r.registry.Bind(connID, identity)
	r.log.Debug(fmt.Sprintf("Connection %s bound to user %s", connID, identity))

	// Acknowledge to the sender only.
	return []Emission{{To: connID, Event: event.Connected}}
}

func (r *Relay) handleJoinChat(connID string, payload json.RawMessage) []Emission {
	roomKey, ok := r.roomKey(connID, payload)
	if !ok {
		return nil
	}
	r.registry.Join(connID, roomKey)
	r.log.Debug(fmt.Sprintf("Connection %s joined room %s", connID, roomKey))
	return nil
}

func (r *Relay) handleTyping(connID string, payload json.RawMessage) []Emission {
	roomKey, ok := r.roomKey(connID, payload)
	if !ok {
		return nil
	}
	return []Emission{{Room: roomKey, Exclude: connID, Event: event.Typing}}
}

func (r *Relay) handleStopTyping(connID string, payload json.RawMessage) []Emission {
	roomKey, ok := r.roomKey(connID, payload)
	if !ok {
		return nil
	}
	return []Emission{{Room: roomKey, Exclude: connID, Event: event.StopTyping}}
}

func (r *Relay) roomKey(connID string, payload json.RawMessage) (string, bool) {
	var roomKey string
	if err := json.Unmarshal(payload, &roomKey); err != nil || roomKey == "" {
		r.log.Warn("Event with unusable room key", "conn_id", connID, "error", err)
		return "", false
	}
	return roomKey, true
}
