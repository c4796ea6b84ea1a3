package classifier

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ServiceID keys service data. 16-bit ids are four upper-case hex digits
// ("FEAA"), 32-bit ids eight, 128-bit ids the upper-case canonical form.
type ServiceID string

// Bluetooth base UUID 00000000-0000-1000-8000-00805F9B34FB.
var baseUUID = uuid.UUID{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB}

func UUID16(v uint16) ServiceID {
	return ServiceID(fmt.Sprintf("%04X", v))
}

func UUID32(v uint32) ServiceID {
	if v <= 0xFFFF {
		return UUID16(uint16(v))
	}
	return ServiceID(fmt.Sprintf("%08X", v))
}

// ServiceIDFromUUID returns the short form for ids on the Bluetooth base UUID.
func ServiceIDFromUUID(u uuid.UUID) ServiceID {
	if bytes.Equal(u[4:], baseUUID[4:]) {
		return UUID32(uint32(u[0])<<24 | uint32(u[1])<<16 | uint32(u[2])<<8 | uint32(u[3]))
	}
	return ServiceID(strings.ToUpper(u.String()))
}

// Advertisement is one received broadcast, already split into its
// manufacturer and service data sections. Byte slices belong to the caller.
type Advertisement struct {
	DeviceID         string
	RSSI             int
	LocalName        string
	ManufacturerData map[uint16][]byte
	ServiceData      map[ServiceID][]byte
}

func (a Advertisement) Manufacturer(company uint16) ([]byte, bool) {
	p, ok := a.ManufacturerData[company]
	return p, ok
}

func (a Advertisement) Service(id ServiceID) ([]byte, bool) {
	p, ok := a.ServiceData[id]
	return p, ok
}
