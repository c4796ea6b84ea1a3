// Package classifier routes an advertisement to the decoder for its format.
package classifier

import (
	"github.com/pkg/errors"

	dec "ble-beacon-parser/decoders"
)

// ErrUnclassifiable is returned when no rule claims the advertisement.
var ErrUnclassifiable = errors.New("unclassifiable packet")

var (
	ServiceEddystone            = UUID16(0xFEAA)
	ServiceBattery              = UUID16(0x180F)
	ServiceEnvironmentalSensing = UUID16(0x181A)
	ServiceHeartRate            = UUID16(0x180D)
)

// Rule is one step of the classification policy. Match inspects only which
// keys are present; Decode does the payload work. When Fallthrough is set a
// failed Decode lets the next rule run, otherwise the packet stops here.
type Rule struct {
	Name        string
	Match       func(Advertisement) bool
	Decode      func(Advertisement) (dec.Beacon, error)
	Fallthrough bool
}

// GattService is a standard service that is reported by name only.
type GattService struct {
	ID    ServiceID
	Label string
}

// GattServices is ordered by priority: only the first present one is reported.
var GattServices = []GattService{
	{ServiceBattery, "Battery Service"},
	{ServiceEnvironmentalSensing, "Environmental Sensing"},
	{ServiceHeartRate, "Heart Rate"},
}

// DefaultRules is the classification policy, first match wins:
//
//  1. Apple manufacturer data that decodes as iBeacon
//  2. Eddystone service data, whatever the frame decodes to
//  3. Ruuvi manufacturer data
//  4. a GATT service announcement, by GattServices priority
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "ibeacon",
			Match:       hasManufacturer(dec.CompanyApple),
			Decode:      decodeManufacturer(dec.CompanyApple, dec.ParseIBeacon),
			Fallthrough: true,
		},
		{
			Name:   "eddystone",
			Match:  hasService(ServiceEddystone),
			Decode: decodeService(ServiceEddystone, dec.ParseEddystone),
		},
		{
			Name:   "ruuvi",
			Match:  hasManufacturer(dec.CompanyRuuvi),
			Decode: decodeManufacturer(dec.CompanyRuuvi, dec.ParseRuuviRAWv2),
		},
		{
			Name:   "gatt",
			Match:  func(a Advertisement) bool { _, ok := firstGattService(a); return ok },
			Decode: announceGattService,
		},
	}
}

// Classifier holds no state between packets.
type Classifier struct {
	rules []Rule
}

func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify runs the rules in order. It returns a decoded beacon, or a nil
// beacon and an error describing why the packet was dropped.
func (c *Classifier) Classify(a Advertisement) (dec.Beacon, error) {
	var skipped error
	for _, r := range c.rules {
		if !r.Match(a) {
			continue
		}
		b, err := r.Decode(a)
		if err == nil {
			return b, nil
		}
		if !r.Fallthrough {
			return nil, errors.Wrapf(err, "rule %s", r.Name)
		}
		skipped = errors.Wrapf(err, "rule %s", r.Name)
	}
	if skipped != nil {
		return nil, errors.Wrapf(ErrUnclassifiable, "no rule matched (%v)", skipped)
	}
	return nil, ErrUnclassifiable
}

func hasManufacturer(company uint16) func(Advertisement) bool {
	return func(a Advertisement) bool {
		_, ok := a.Manufacturer(company)
		return ok
	}
}

func hasService(id ServiceID) func(Advertisement) bool {
	return func(a Advertisement) bool {
		_, ok := a.Service(id)
		return ok
	}
}

func decodeManufacturer(company uint16, parse func([]byte) (dec.Beacon, error)) func(Advertisement) (dec.Beacon, error) {
	return func(a Advertisement) (dec.Beacon, error) {
		p, _ := a.Manufacturer(company)
		return parse(p)
	}
}

func decodeService(id ServiceID, parse func([]byte) (dec.Beacon, error)) func(Advertisement) (dec.Beacon, error) {
	return func(a Advertisement) (dec.Beacon, error) {
		p, _ := a.Service(id)
		return parse(p)
	}
}

func firstGattService(a Advertisement) (GattService, bool) {
	for _, s := range GattServices {
		if _, ok := a.Service(s.ID); ok {
			return s, true
		}
	}
	return GattService{}, false
}

func announceGattService(a Advertisement) (dec.Beacon, error) {
	s, ok := firstGattService(a)
	if !ok {
		return nil, ErrUnclassifiable
	}
	return dec.GattServiceAnnouncement{Label: s.Label}, nil
}
