package decoders

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CompanyApple is the manufacturer data key carrying iBeacon frames.
const CompanyApple uint16 = 0x004C

const ibeaconLen = 23

// ParseIBeacon decodes the 0x004C manufacturer payload:
//
//	0      0x02
//	1      0x15
//	2..17  proximity UUID
//	18 19  major
//	20 21  minor
//	22     measured power
func ParseIBeacon(p []byte) (Beacon, error) {
	if err := precheck("ibeacon", p, ibeaconLen); err != nil {
		return nil, err
	}
	if p[0] != 0x02 || p[1] != 0x15 {
		return nil, errors.Wrapf(ErrUnrecognizedFormat, "ibeacon: magic %02X %02X", p[0], p[1])
	}

	r := fieldReader{f: p}
	raw := r.bytes(2, 16)
	major := r.u16(18)
	minor := r.u16(20)
	_ = r.i8(22)
	if r.err != nil {
		return nil, r.err
	}

	var id uuid.UUID
	copy(id[:], raw)
	return IBeacon{
		UUID:  strings.ToUpper(id.String()),
		Major: major,
		Minor: minor,
	}, nil
}
