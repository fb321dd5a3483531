package relay

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-server/domain/event"
)

func messagePayload(senderID string, participantIDs ...string) json.RawMessage {
	users := ""
	for i, id := range participantIDs {
		if i > 0 {
			users += ","
		}
		users += fmt.Sprintf(`{"id":%q}`, id)
	}
	return json.RawMessage(fmt.Sprintf(
		`{"sender":{"id":%q},"content":"hello","chat":{"users":[%s]}}`,
		senderID, users,
	))
}

// Group chat: every connected participant except the sender receives the
// message exactly once, each in their personal room.
func TestFanout_Group_Chat_Delivers_To_Everyone_But_Sender(t *testing.T) {
	req := require.New(t)
	r, registry := newTestRelay()

	alice, bob, clara := uuid.NewString(), uuid.NewString(), uuid.NewString()
	sinks := map[string]recordSink{}
	for _, userID := range []string{alice, bob, clara} {
		connID := uuid.NewString()
		sink := newRecordSink()
		sinks[userID] = sink
		registry.Attach(connID, sink)
		r.Deliver(r.Handle(connID, event.Envelope{Event: event.Setup, Payload: rawString(userID)}))
	}

	payload := messagePayload(alice, alice, bob, clara)

	// When Alice's connection emits a new message
	emissions := r.handleNewMessage("conn-alice", payload)
	r.Deliver(emissions)

	// Then Bob and Clara each receive it exactly once
	req.Len(*sinks[bob].received, 2)
	req.Len(*sinks[clara].received, 2)
	// The setup ack plus the relayed message
	req.Equal([]string{event.Connected, event.MessageReceived}, sinks[bob].events())
	req.Equal([]string{event.Connected, event.MessageReceived}, sinks[clara].events())
	// Alice only has her setup ack
	req.Equal([]string{event.Connected}, sinks[alice].events())
}

func TestFanout_Payload_Passes_Through_Unmodified(t *testing.T) {
	req := require.New(t)
	r, registry := newTestRelay()

	sender, receiver := uuid.NewString(), uuid.NewString()
	connID := uuid.NewString()
	sink := newRecordSink()
	registry.Attach(connID, sink)
	r.Deliver(r.Handle(connID, event.Envelope{Event: event.Setup, Payload: rawString(receiver)}))

	// Payload carries extra fields the relay knows nothing about
	payload := json.RawMessage(fmt.Sprintf(
		`{"sender":{"id":%q,"name":"Sender"},"content":"hi","extra":{"k":1},"chat":{"users":[{"id":%q},{"id":%q}]}}`,
		sender, sender, receiver,
	))

	r.Deliver(r.handleNewMessage("conn-sender", payload))

	received := *sink.received
	req.Len(received, 2)
	relayed := received[1]
	req.Equal(event.MessageReceived, relayed.Event)
	req.JSONEq(string(payload), string(relayed.Payload))
}

func TestFanout_Missing_Users_List_Is_Rejected(t *testing.T) {
	req := require.New(t)
	r, registry := newTestRelay()

	userID := uuid.NewString()
	connID := uuid.NewString()
	sink := newRecordSink()
	registry.Attach(connID, sink)
	r.Deliver(r.Handle(connID, event.Envelope{Event: event.Setup, Payload: rawString(userID)}))

	// When a payload arrives without chat.users
	payload := json.RawMessage(`{"sender":{"id":"someone"},"content":"hi","chat":{}}`)
	emissions := r.handleNewMessage("conn-x", payload)

	// Then nothing is emitted and later events still work
	req.Empty(emissions)
	r.Deliver(r.handleNewMessage("conn-x", messagePayload("someone", "someone", userID)))
	req.Equal([]string{event.Connected, event.MessageReceived}, sink.events())
}

func TestFanout_Invalid_JSON_Is_Rejected(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRelay()

	emissions := r.handleNewMessage("conn-x", json.RawMessage(`{not json`))

	req.Empty(emissions)
}

// Direct chat: the sole other participant receives the message, the
// disconnected one receives nothing and delivery still succeeds.
func TestFanout_Direct_Chat_Offline_Participant_Receives_Nothing(t *testing.T) {
	req := require.New(t)
	r, registry := newTestRelay()

	sender, online, offline := uuid.NewString(), uuid.NewString(), uuid.NewString()
	connID := uuid.NewString()
	sink := newRecordSink()
	registry.Attach(connID, sink)
	r.Deliver(r.Handle(connID, event.Envelope{Event: event.Setup, Payload: rawString(online)}))

	payload := messagePayload(sender, sender, online, offline)

	req.NotPanics(func() {
		r.Deliver(r.handleNewMessage("conn-sender", payload))
	})

	req.Equal([]string{event.Connected, event.MessageReceived}, sink.events())
}

func TestFanout_Sender_With_Two_Devices_Not_Echoed(t *testing.T) {
	req := require.New(t)
	r, registry := newTestRelay()

	sender, peer := uuid.NewString(), uuid.NewString()

	// Given the sender is bound on two connections
	senderSinks := []recordSink{newRecordSink(), newRecordSink()}
	for _, sink := range senderSinks {
		connID := uuid.NewString()
		registry.Attach(connID, sink)
		r.Deliver(r.Handle(connID, event.Envelope{Event: event.Setup, Payload: rawString(sender)}))
	}
	peerConn := uuid.NewString()
	peerSink := newRecordSink()
	registry.Attach(peerConn, peerSink)
	r.Deliver(r.Handle(peerConn, event.Envelope{Event: event.Setup, Payload: rawString(peer)}))

	// When the sender emits a message
	r.Deliver(r.handleNewMessage("conn-sender", messagePayload(sender, sender, peer)))

	// Then the peer receives it and neither sender device is echoed
	req.Equal([]string{event.Connected, event.MessageReceived}, peerSink.events())
	for _, sink := range senderSinks {
		req.Equal([]string{event.Connected}, sink.events())
	}
}

// A sender that joined a peer's personal room (join chat accepts any room
// key) must still not hear its own message back.
func TestFanout_Sender_In_Recipient_Room_Is_Not_Echoed(t *testing.T) {
	req := require.New(t)
	r, registry := newTestRelay()

	alice, bob := uuid.NewString(), uuid.NewString()
	aliceConn, bobConn := uuid.NewString(), uuid.NewString()

	aliceSink, bobSink := newRecordSink(), newRecordSink()
	registry.Attach(aliceConn, aliceSink)
	registry.Attach(bobConn, bobSink)
	r.Deliver(r.Handle(aliceConn, event.Envelope{Event: event.Setup, Payload: rawString(alice)}))
	r.Deliver(r.Handle(bobConn, event.Envelope{Event: event.Setup, Payload: rawString(bob)}))

	// Given Alice sitting in Bob's personal room
	r.Deliver(r.Handle(aliceConn, event.Envelope{Event: event.JoinChat, Payload: rawString(bob)}))

	// When Alice emits a message to their chat
	r.Deliver(r.handleNewMessage(aliceConn, messagePayload(alice, alice, bob)))

	// Then only Bob receives it
	req.Equal([]string{event.Connected, event.MessageReceived}, bobSink.events())
	req.Equal([]string{event.Connected}, aliceSink.events())
}
