package decoders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEddystoneUID(t *testing.T) {
	p := []byte{0x00, 0xE7,
		0x8B, 0x1A, 0x2C, 0x3D, 0x4E, 0x5F, 0x60, 0x71, 0x82, 0x93,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x2A,
		0x00, 0x00}

	b, err := ParseEddystone(p)
	require.NoError(t, err)
	assert.Equal(t, EddystoneUID{Namespace: "8B1A2C3D4E5F60718293", Instance: "00000000002A"}, b)
}

func TestParseEddystoneURL(t *testing.T) {
	p := []byte{0x10, 0x00, 0x00, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x00}

	b, err := ParseEddystone(p)
	require.NoError(t, err)
	assert.Equal(t, EddystoneURL{URL: "http://www.example.com/"}, b)
}

func TestParseEddystoneTLM(t *testing.T) {
	p := []byte{0x20, 0x00,
		0x0B, 0xB8,
		0x15, 0x80,
		0x00, 0x00, 0x00, 0x64,
		0x00, 0x00, 0x8C, 0xA0}

	b, err := ParseEddystone(p)
	require.NoError(t, err)
	assert.Equal(t, EddystoneTLM{
		BatteryMillivolts:      3000,
		TemperatureCelsius:     "21.50",
		AdvertisingPacketCount: 100,
		UptimeSeconds:          "3600.0",
	}, b)
}

func TestParseEddystoneTLMNegativeTemperature(t *testing.T) {
	p := []byte{0x20, 0x00, 0x0B, 0xB8, 0xFF, 0x80, 0, 0, 0, 1, 0, 0, 0, 5}

	b, err := ParseEddystone(p)
	require.NoError(t, err)
	tlm := b.(EddystoneTLM)
	assert.Equal(t, "-0.50", tlm.TemperatureCelsius)
	assert.Equal(t, "0.5", tlm.UptimeSeconds)
}

func TestParseEddystoneRejects(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrTruncatedPayload},
		{"short uid", []byte{0x00, 0x00, 0x01, 0x02}, ErrTruncatedPayload},
		{"short url", []byte{0x10, 0x00, 0x00}, ErrTruncatedPayload},
		{"short tlm", []byte{0x20, 0x00, 0x0B, 0xB8, 0x15, 0x80, 0, 0, 0, 0x64, 0, 0, 0x8C}, ErrTruncatedPayload},
		{"eid frame", []byte{0x30, 0x00, 1, 2, 3, 4, 5, 6, 7, 8}, ErrUnrecognizedFormat},
		{"unknown frame", []byte{0x40, 0x00, 0x00, 0x00}, ErrUnrecognizedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseEddystone(tt.in)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
