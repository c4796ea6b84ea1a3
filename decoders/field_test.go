package decoders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsReadsBigEndian(t *testing.T) {
	f := Fields{0xFF, 0x12, 0x34, 0x80, 0x00, 0x00, 0x01}

	u8, err := f.Uint8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), u8)

	i8, err := f.Int8(0)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)

	u16, err := f.Uint16(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	i16, err := f.Int16(3)
	require.NoError(t, err)
	assert.Equal(t, int16(-32768), i16)

	u32, err := f.Uint32(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80000001), u32)

	sub, err := f.Slice(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, sub)
}

func TestFieldsOutOfRange(t *testing.T) {
	f := Fields{0x01, 0x02, 0x03}

	tests := []struct {
		name string
		read func() error
	}{
		{"uint8 past end", func() error { _, err := f.Uint8(3); return err }},
		{"uint16 straddles end", func() error { _, err := f.Uint16(2); return err }},
		{"uint32 longer than buffer", func() error { _, err := f.Uint32(0); return err }},
		{"negative offset", func() error { _, err := f.Int8(-1); return err }},
		{"slice past end", func() error { _, err := f.Slice(1, 3); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.read(), ErrTruncatedPayload)
		})
	}
}

func TestSliceCannotGrowIntoCallerBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	sub, err := Fields(buf).Slice(0, 2)
	require.NoError(t, err)

	sub = append(sub, 9)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
	assert.Equal(t, []byte{1, 2, 9}, sub)
}

func TestFieldReaderKeepsFirstError(t *testing.T) {
	r := fieldReader{f: Fields{0x00, 0x01}}
	assert.Equal(t, uint16(1), r.u16(0))
	assert.Equal(t, uint32(0), r.u32(0))
	assert.Equal(t, uint8(0), r.u8(0))
	assert.ErrorIs(t, r.err, ErrTruncatedPayload)
}
