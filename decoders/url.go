package decoders

import (
	"strings"

	"github.com/pkg/errors"
)

var urlSchemes = [...]string{
	0x00: "http://www.",
	0x01: "https://www.",
	0x02: "http://",
	0x03: "https://",
}

// Eddystone-URL expansion codes 0x00-0x0D. Slashed forms come first, as in
// the published frame definition.
var urlExpansions = [...]string{
	0x00: ".com/",
	0x01: ".org/",
	0x02: ".edu/",
	0x03: ".net/",
	0x04: ".info/",
	0x05: ".biz/",
	0x06: ".gov/",
	0x07: ".com",
	0x08: ".org",
	0x09: ".edu",
	0x0A: ".net",
	0x0B: ".info",
	0x0C: ".biz",
	0x0D: ".gov",
}

// DecodeURL expands a compressed Eddystone URL. b[0] is the scheme code; an
// unknown code adds nothing. Each following byte is an expansion code or a
// literal byte, up to the end of b.
func DecodeURL(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	if int(b[0]) < len(urlSchemes) {
		sb.WriteString(urlSchemes[b[0]])
	}
	for _, c := range b[1:] {
		if int(c) < len(urlExpansions) {
			sb.WriteString(urlExpansions[c])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// EncodeURL compresses suffix behind the given scheme code, replacing the
// longest expansion match at each position.
func EncodeURL(scheme byte, suffix string) ([]byte, error) {
	if int(scheme) >= len(urlSchemes) {
		return nil, errors.Errorf("url scheme code 0x%02X out of range", scheme)
	}
	out := make([]byte, 0, len(suffix)+1)
	out = append(out, scheme)
	for i := 0; i < len(suffix); {
		code, n := longestExpansion(suffix[i:])
		if n > 0 {
			out = append(out, code)
			i += n
			continue
		}
		c := suffix[i]
		if int(c) < len(urlExpansions) || c > 0x7E {
			return nil, errors.Errorf("url byte 0x%02X at %d cannot be sent literally", c, i)
		}
		out = append(out, c)
		i++
	}
	return out, nil
}

func longestExpansion(s string) (code byte, n int) {
	for i, exp := range urlExpansions {
		if len(exp) > n && strings.HasPrefix(s, exp) {
			code, n = byte(i), len(exp)
		}
	}
	return code, n
}
