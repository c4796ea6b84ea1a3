package main

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	dec "ble-beacon-parser/decoders"
	"ble-beacon-parser/registry"
)

// CallbackEvent is the JSON body published for every Created or Updated
// registry event.
type CallbackEvent struct {
	ID        string         `json:"id"`
	DeviceId  string         `json:"deviceId"`
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	GatewayID string         `json:"gateway_id,omitempty"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
	BackendID int64          `json:"backend_id,omitempty"`
}

// EventPublisher delivers callback events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, evt CallbackEvent) error
	Close() error
}

func newCallbackEvent(in *MQTTMessage, sessionID string, evt registry.Event) CallbackEvent {
	data := map[string]any{
		"beacon_type": evt.Record.Kind.String(),
		"rssi":        evt.Record.LastRSSI,
		"raw_data":    in.Payload,
	}
	if evt.Beacon != nil {
		data["beacon"] = evt.Beacon
	}
	return CallbackEvent{
		ID:        uuid.NewString(),
		DeviceId:  strings.ToUpper(in.DeviceMAC),
		Type:      deriveEventType(evt),
		Timestamp: in.Timestamp,
		GatewayID: strings.ToUpper(in.GatewayMAC),
		SessionID: sessionID,
		Data:      data,
		BackendID: in.MessageID,
	}
}

// deriveEventType builds "<beacon slug>/<event>", e.g. "eddystone-tlm/created".
func deriveEventType(evt registry.Event) string {
	return slugBeaconKind(evt.Record.Kind) + "/" + evt.Kind.String()
}

func slugBeaconKind(k dec.Kind) string {
	s := k.String()
	b := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b = append(b, unicode.ToLower(r))
		case r == ' ' || r == '_' || r == '-' || r == '/':
			if len(b) == 0 || b[len(b)-1] == '-' {
				continue
			}
			b = append(b, '-')
		}
	}
	if len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "unknown"
	}
	return string(b)
}
