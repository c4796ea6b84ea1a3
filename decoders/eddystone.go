package decoders

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// Eddystone frame types carried in the first service data byte.
const (
	EddystoneFrameUID byte = 0x00
	EddystoneFrameURL byte = 0x10
	EddystoneFrameTLM byte = 0x20
)

const (
	eddystoneUIDLen = 18
	eddystoneURLLen = 4
	eddystoneTLMLen = 14
)

// ParseEddystone dispatches a 0xFEAA service data payload on its frame type.
// EID and any other frame type are reported as ErrUnrecognizedFormat.
func ParseEddystone(p []byte) (Beacon, error) {
	if err := precheck("eddystone", p, 1); err != nil {
		return nil, err
	}
	switch p[0] {
	case EddystoneFrameUID:
		return parseEddystoneUID(p)
	case EddystoneFrameURL:
		return parseEddystoneURL(p)
	case EddystoneFrameTLM:
		return parseEddystoneTLM(p)
	default:
		return nil, errors.Wrapf(ErrUnrecognizedFormat, "eddystone: frame type 0x%02X", p[0])
	}
}

// UID: [0]=0x00 [1]=tx power [2..11]=namespace [12..17]=instance
func parseEddystoneUID(p []byte) (Beacon, error) {
	if err := precheck("eddystone-uid", p, eddystoneUIDLen); err != nil {
		return nil, err
	}
	r := fieldReader{f: p}
	ns := r.bytes(2, 10)
	inst := r.bytes(12, 6)
	if r.err != nil {
		return nil, r.err
	}
	return EddystoneUID{
		Namespace: strings.ToUpper(hex.EncodeToString(ns)),
		Instance:  strings.ToUpper(hex.EncodeToString(inst)),
	}, nil
}

// URL: [0]=0x10 [1]=tx power [2]=scheme [3..]=encoded url
func parseEddystoneURL(p []byte) (Beacon, error) {
	if err := precheck("eddystone-url", p, eddystoneURLLen); err != nil {
		return nil, err
	}
	return EddystoneURL{URL: DecodeURL(p[2:])}, nil
}

// TLM (unencrypted): [0]=0x20 [1]=version [2..3]=battery mV
// [4..5]=temperature 8.8 [6..9]=adv count [10..13]=uptime in 0.1 s
func parseEddystoneTLM(p []byte) (Beacon, error) {
	if err := precheck("eddystone-tlm", p, eddystoneTLMLen); err != nil {
		return nil, err
	}
	r := fieldReader{f: p}
	version := r.u8(1)
	batt := r.u16(2)
	whole := r.i8(4)
	frac := r.u8(5)
	count := r.u32(6)
	uptime := r.u32(10)
	if r.err != nil {
		return nil, r.err
	}
	return EddystoneTLM{
		Version:                version,
		BatteryMillivolts:      batt,
		TemperatureCelsius:     fixed(float64(whole)+float64(frac)/256, 2),
		AdvertisingPacketCount: count,
		UptimeSeconds:          fixed(float64(uptime)/10, 1),
	}, nil
}
