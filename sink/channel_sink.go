// Package sink provides EventSink implementations bridging the relay to
// concrete delivery mechanisms.
package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-server/domain/event"
)

// ChannelSink delivers envelopes into a connection's buffered send channel.
// Consume never blocks: when the buffer is full the event is dropped and an
// error is returned so the caller can count it. Best-effort by construction.
type ChannelSink struct {
	send chan<- []byte
	log  *slog.Logger
}

func NewChannelSink(send chan<- []byte, log *slog.Logger) ChannelSink {
	return ChannelSink{send: send, log: log}
}

func (s ChannelSink) Consume(e event.Envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	select {
	case s.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full, event %q dropped", e.Event)
	}
}
