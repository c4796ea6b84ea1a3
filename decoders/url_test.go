package decoders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeURL(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"expansion with slash", []byte{0x00, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x00}, "http://www.example.com/"},
		{"https no www", []byte{0x03, 'g', 'o', 'o', '.', 'g', 'l', '/', 'a', 'b'}, "https://goo.gl/ab"},
		{"expansion mid url", []byte{0x02, 'r', 'u', 'u', 'v', 'i', 0x07, '/', 'x'}, "http://ruuvi.com/x"},
		{"last table entry", []byte{0x01, 'u', 's', 'a', 0x0D}, "https://www.usa.gov"},
		{"unknown scheme omitted", []byte{0x09, 'a', 0x0A}, "a.net"},
		{"scheme only", []byte{0x02}, "http://"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeURL(tt.in))
		})
	}
}

func TestEncodeURLRoundTrip(t *testing.T) {
	suffixes := []string{
		"example.com/",
		"example.com/about",
		"ruuvi.org",
		"a.b.info/c.biz",
		"cdn.edu/x.gov/",
		"plain",
	}

	for scheme := byte(0); scheme <= 3; scheme++ {
		for _, suffix := range suffixes {
			enc, err := EncodeURL(scheme, suffix)
			require.NoError(t, err)
			assert.Equal(t, urlSchemes[scheme]+suffix, DecodeURL(enc))
		}
	}
}

func TestEncodeURLPrefersLongestExpansion(t *testing.T) {
	enc, err := EncodeURL(0x00, "example.com/")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x00}, enc)

	enc, err = EncodeURL(0x03, "x.com")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 'x', 0x07}, enc)
}

func TestEncodeURLRejects(t *testing.T) {
	_, err := EncodeURL(0x04, "example.com")
	assert.Error(t, err)

	_, err = EncodeURL(0x00, "tab\there")
	assert.Error(t, err)

	_, err = EncodeURL(0x00, "caf\xc3\xa9")
	assert.Error(t, err)
}
