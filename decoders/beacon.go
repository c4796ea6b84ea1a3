// Package decoders turns broadcast BLE payloads into typed beacon readings.
//
// Every decoder is total: malformed or short input yields an error wrapping
// ErrTruncatedPayload or ErrUnrecognizedFormat and a nil Beacon, never a panic.
package decoders

import (
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrTruncatedPayload   = errors.New("truncated payload")
	ErrUnrecognizedFormat = errors.New("unrecognized format")
)

// Kind tags the Beacon variant.
type Kind uint8

const (
	KindIBeacon Kind = iota + 1
	KindEddystoneUID
	KindEddystoneURL
	KindEddystoneTLM
	KindRuuviTag
	KindGattService
)

func (k Kind) String() string {
	switch k {
	case KindIBeacon:
		return "iBeacon"
	case KindEddystoneUID:
		return "Eddystone-UID"
	case KindEddystoneURL:
		return "Eddystone-URL"
	case KindEddystoneTLM:
		return "Eddystone-TLM"
	case KindRuuviTag:
		return "RuuviTag"
	case KindGattService:
		return "GATT Service"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := KindIBeacon; c <= KindGattService; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return errors.Errorf("unknown beacon kind %q", b)
}

// Beacon is one decoded advertisement. The set of implementations is closed.
type Beacon interface {
	Kind() Kind
	isBeacon()
}

type IBeacon struct {
	UUID  string `json:"uuid"`
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
}

type EddystoneUID struct {
	Namespace string `json:"namespace"`
	Instance  string `json:"instance"`
}

type EddystoneURL struct {
	URL string `json:"url"`
}

type EddystoneTLM struct {
	Version                uint8  `json:"version"`
	BatteryMillivolts      uint16 `json:"battery_mv"`
	TemperatureCelsius     string `json:"temperature_c"`
	AdvertisingPacketCount uint32 `json:"adv_count"`
	UptimeSeconds          string `json:"uptime_s"`
}

type RuuviTag struct {
	TemperatureCelsius string `json:"temperature_c"`
	HumidityPercent    string `json:"humidity_pct"`
	PressureHPa        string `json:"pressure_hpa"`
	BatteryMillivolts  uint16 `json:"battery_mv"`
	TxPowerDBm         int    `json:"tx_power_dbm"`
}

// GattServiceAnnouncement names a standard GATT service seen in service data.
// The payload behind it is not decoded.
type GattServiceAnnouncement struct {
	Label string `json:"label"`
}

func (IBeacon) Kind() Kind                 { return KindIBeacon }
func (EddystoneUID) Kind() Kind            { return KindEddystoneUID }
func (EddystoneURL) Kind() Kind            { return KindEddystoneURL }
func (EddystoneTLM) Kind() Kind            { return KindEddystoneTLM }
func (RuuviTag) Kind() Kind                { return KindRuuviTag }
func (GattServiceAnnouncement) Kind() Kind { return KindGattService }

func (IBeacon) isBeacon()                 {}
func (EddystoneUID) isBeacon()            {}
func (EddystoneURL) isBeacon()            {}
func (EddystoneTLM) isBeacon()            {}
func (RuuviTag) isBeacon()                {}
func (GattServiceAnnouncement) isBeacon() {}

func fixed(v float64, digits int) string {
	return strconv.FormatFloat(v, 'f', digits, 64)
}
