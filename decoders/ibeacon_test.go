package decoders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ibeaconPayload(major, minor uint16) []byte {
	p := []byte{0x02, 0x15}
	for i := 1; i <= 16; i++ {
		p = append(p, byte(i))
	}
	return append(p, byte(major>>8), byte(major), byte(minor>>8), byte(minor), 0xC5)
}

func TestParseIBeacon(t *testing.T) {
	b, err := ParseIBeacon(ibeaconPayload(1, 2))
	require.NoError(t, err)
	assert.Equal(t, IBeacon{
		UUID:  "01020304-0506-0708-090A-0B0C0D0E0F10",
		Major: 1,
		Minor: 2,
	}, b)
	assert.Equal(t, KindIBeacon, b.Kind())
}

func TestParseIBeaconLargeMajorMinor(t *testing.T) {
	b, err := ParseIBeacon(ibeaconPayload(0xFFFE, 0x8001))
	require.NoError(t, err)
	ib := b.(IBeacon)
	assert.Equal(t, uint16(0xFFFE), ib.Major)
	assert.Equal(t, uint16(0x8001), ib.Minor)
}

func TestParseIBeaconIgnoresTrailingBytes(t *testing.T) {
	p := append(ibeaconPayload(7, 8), 0xAA, 0xBB)
	b, err := ParseIBeacon(p)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), b.(IBeacon).Major)
}

func TestParseIBeaconRejects(t *testing.T) {
	full := ibeaconPayload(1, 2)

	_, err := ParseIBeacon(full[:5])
	assert.ErrorIs(t, err, ErrTruncatedPayload)

	_, err = ParseIBeacon(full[:22])
	assert.ErrorIs(t, err, ErrTruncatedPayload)

	bad := append([]byte(nil), full...)
	bad[1] = 0x16
	_, err = ParseIBeacon(bad)
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)

	_, err = ParseIBeacon(nil)
	assert.ErrorIs(t, err, ErrTruncatedPayload)
}
