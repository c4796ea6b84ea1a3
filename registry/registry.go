// Package registry keeps one record per device seen in a scanning session.
// The first successful classification fixes a device's beacon kind; later
// packets from the same device only refresh its signal strength.
package registry

import (
	"sort"

	dec "ble-beacon-parser/decoders"
)

type EventKind uint8

const (
	Ignored EventKind = iota
	Created
	Updated
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "ignored"
	}
}

type DeviceRecord struct {
	DeviceID string   `json:"device_id"`
	Kind     dec.Kind `json:"beacon_type"`
	LastRSSI int      `json:"last_rssi"`
}

// Event reports what Observe did. Beacon is set only for Created.
type Event struct {
	Kind   EventKind
	Record DeviceRecord
	Beacon dec.Beacon
}

// Registry is not safe for concurrent use; it belongs to a single session.
type Registry struct {
	devices map[string]*DeviceRecord
}

func New() *Registry {
	return &Registry{devices: make(map[string]*DeviceRecord)}
}

// Observe records one classified packet. A nil beacon is Ignored and leaves
// the registry untouched.
func (r *Registry) Observe(deviceID string, rssi int, b dec.Beacon) Event {
	if b == nil {
		return Event{Kind: Ignored}
	}
	if rec, ok := r.devices[deviceID]; ok {
		rec.LastRSSI = rssi
		return Event{Kind: Updated, Record: *rec}
	}
	rec := &DeviceRecord{DeviceID: deviceID, Kind: b.Kind(), LastRSSI: rssi}
	r.devices[deviceID] = rec
	return Event{Kind: Created, Record: *rec, Beacon: b}
}

func (r *Registry) Get(deviceID string) (DeviceRecord, bool) {
	rec, ok := r.devices[deviceID]
	if !ok {
		return DeviceRecord{}, false
	}
	return *rec, true
}

func (r *Registry) Len() int {
	return len(r.devices)
}

// Records returns a snapshot ordered by device id.
func (r *Registry) Records() []DeviceRecord {
	out := make([]DeviceRecord, 0, len(r.devices))
	for _, rec := range r.devices {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

func (r *Registry) Clear() {
	clear(r.devices)
}
