package main

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ble-beacon-parser/classifier"
)

// AD types used by the parser.
const (
	adShortName   = 0x08
	adFullName    = 0x09
	adServiceData = 0x16
	adService32   = 0x20
	adService128  = 0x21
	adManufacture = 0xFF
)

// parseAdvertisement walks the length/type/data structures of a raw
// advertisement and splits out manufacturer data (keyed by company id) and
// service data (keyed by service UUID). Multi-byte ids are little-endian on
// the air. The returned slices alias raw.
func parseAdvertisement(log zerolog.Logger, deviceID string, rssi int, raw []byte) (classifier.Advertisement, error) {
	adv := classifier.Advertisement{
		DeviceID:         deviceID,
		RSSI:             rssi,
		ManufacturerData: map[uint16][]byte{},
		ServiceData:      map[classifier.ServiceID][]byte{},
	}
	if len(raw) == 0 {
		return adv, fmt.Errorf("empty advertisement")
	}

	adIdx := 0
	for i := 0; i < len(raw); {
		length := int(raw[i]) // includes type + data
		if length == 0 {
			// zero padding ends the significant part
			break
		}
		if i+1+length > len(raw) {
			return adv, fmt.Errorf("AD %d malformed length=%d at i=%d total=%d", adIdx, length, i, len(raw))
		}
		typ := raw[i+1]
		data := raw[i+2 : i+1+length]
		log.Debug().Int("ad", adIdx).Int("len", length).Str("type", fmt.Sprintf("0x%02X", typ)).Msg("AD")

		switch typ {
		case adShortName, adFullName:
			adv.LocalName = string(data)
		case adManufacture:
			if len(data) < 2 {
				return adv, fmt.Errorf("AD %d manufacturer data too short length=%d", adIdx, length)
			}
			adv.ManufacturerData[binary.LittleEndian.Uint16(data)] = data[2:]
		case adServiceData:
			if len(data) < 2 {
				return adv, fmt.Errorf("AD %d type=0x16 too short length=%d", adIdx, length)
			}
			adv.ServiceData[classifier.UUID16(binary.LittleEndian.Uint16(data))] = data[2:]
		case adService32:
			if len(data) < 4 {
				return adv, fmt.Errorf("AD %d type=0x20 too short length=%d", adIdx, length)
			}
			adv.ServiceData[classifier.UUID32(binary.LittleEndian.Uint32(data))] = data[4:]
		case adService128:
			if len(data) < 16 {
				return adv, fmt.Errorf("AD %d type=0x21 too short length=%d", adIdx, length)
			}
			var id uuid.UUID
			for j := 0; j < 16; j++ {
				id[j] = data[15-j]
			}
			adv.ServiceData[classifier.ServiceIDFromUUID(id)] = data[16:]
		}

		i += 1 + length
		adIdx++
	}
	return adv, nil
}
