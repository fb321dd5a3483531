package relay

import (
	"sync"

	"chat-server/contract"
)

type Set map[string]struct{}

// Registry is the session table of the relay: which connections are alive,
// which identity each one represents, and which rooms each one has joined.
// Rooms have no lifecycle of their own; a room exists only as the set of
// connections currently joined to it.
//
// The transport runs one goroutine per connection, so every mutation and
// every iteration-for-broadcast goes through the single lock.
type Registry struct {
	mu         sync.RWMutex
	sinks      map[string]contract.EventSink // connection -> delivery end
	identities map[string]string             // connection -> bound user ID
	rooms      map[string]Set                // room key -> member connections
	joined     map[string]Set                // connection -> joined room keys
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:      make(map[string]contract.EventSink),
		identities: make(map[string]string),
		rooms:      make(map[string]Set),
		joined:     make(map[string]Set),
	}
}

// Attach registers a connection's delivery sink. Called once by the
// transport when the connection is accepted, before any event is handled.
func (r *Registry) Attach(connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[connID] = sink
}

// Bind records that connID currently represents identity and joins the
// connection to the personal room named by that identity. Rebinding replaces
// the identity (last setup wins); previously joined rooms are kept, since
// membership only accumulates until disconnect.
func (r *Registry) Bind(connID, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[connID] = identity
	r.join(connID, identity)
}

// Join adds connID to the room named roomKey. Idempotent; any string is an
// acceptable room key.
func (r *Registry) Join(connID, roomKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.join(connID, roomKey)
}

func (r *Registry) join(connID, roomKey string) {
	if _, ok := r.rooms[roomKey]; !ok {
		r.rooms[roomKey] = make(Set)
	}
	r.rooms[roomKey][connID] = struct{}{}

	if _, ok := r.joined[connID]; !ok {
		r.joined[connID] = make(Set)
	}
	r.joined[connID][roomKey] = struct{}{}
}

// Disconnect removes the connection from every room it had joined and drops
// its sink and identity binding. Driven by the transport's disconnect
// notification; after it returns no emission can reach the connection.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomKey := range r.joined[connID] {
		if members, ok := r.rooms[roomKey]; ok {
			delete(members, connID)
			// No empty sets left behind to avoid unbounded growth.
			if len(members) == 0 {
				delete(r.rooms, roomKey)
			}
		}
	}
	delete(r.joined, connID)
	delete(r.identities, connID)
	delete(r.sinks, connID)
}

// Identity returns the user ID bound to connID, if any.
func (r *Registry) Identity(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.identities[connID]
	return id, ok
}

// SinkFor resolves a single connection's delivery end.
func (r *Registry) SinkFor(connID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[connID]
	return sink, ok
}

// SinksForRoom returns the delivery ends of every connection currently in
// the room, excluding excludeConnID when non-empty. A room with no members
// yields nil, never an error.
func (r *Registry) SinksForRoom(roomKey, excludeConnID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range members {
		if connID == excludeConnID {
			continue
		}
		if sink, exists := r.sinks[connID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// RoomSize reports the current number of member connections of a room.
func (r *Registry) RoomSize(roomKey string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomKey])
}
