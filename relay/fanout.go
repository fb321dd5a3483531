package relay

import (
	"encoding/json"

	"chat-server/domain/event"
)

// handleNewMessage runs the fan-out policy for a freshly persisted message:
// one "message recieved" emission to the personal room of every participant
// except the sender, carrying the full payload unmodified.
//
// A payload without a participant list is reported and dropped; it must not
// crash the relay or affect later events. Delivery order across participants
// is unspecified, at most once, best effort: a participant with no bound
// connection receives nothing and the message store remains the only durable
// record. The emitting connection is excluded from every room broadcast, so
// a sender sitting in a peer's personal room is still never echoed.
func (r *Relay) handleNewMessage(connID string, payload json.RawMessage) []Emission {
	var msg event.MessagePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		r.monitor.IncrPayloadsRejected()
		r.log.Warn("New message payload is not valid JSON", "conn_id", connID, "error", err)
		return nil
	}

	if msg.Chat.Users == nil {
		r.monitor.IncrPayloadsRejected()
		r.log.Warn("chat.users not defined", "conn_id", connID)
		return nil
	}

	var emissions []Emission
	for _, user := range msg.Chat.Users {
		if user.ID == msg.Sender.ID {
			continue
		}
		emissions = append(emissions, Emission{
			Room:    user.ID,
			Exclude: connID,
			Event:   event.MessageReceived,
			Payload: payload,
		})
	}
	return emissions
}
