package proximity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"echogo/backend/internal/proximity"
)

// TestEncodeExtractRoundTrip verifies extraction is the exact inverse of
// the payload encoding for valid tokens.
func TestEncodeExtractRoundTrip(t *testing.T) {
	tokens := []string{
		"a1b2c3d4e5f60708",
		"0000000000000000",
		"ffffffffffffffff",
		"0102030405060708",
	}
	for _, tok := range tokens {
		payload := proximity.EncodePayload(tok)
		assert.Equal(t, "E:"+tok, payload)

		got, ok := proximity.ExtractToken(payload)
		assert.True(t, ok, "token %q should extract", tok)
		assert.Equal(t, tok, got)
	}
}

// TestExtractTokenRejectsMalformed verifies malformed payloads yield no
// token rather than a partial value.
func TestExtractTokenRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"prefix only":     "E:",
		"wrong prefix":    "X:a1b2c3d4e5f60708",
		"no prefix":       "a1b2c3d4e5f60708",
		"too short":       "E:a1b2c3d4e5f607",
		"too long":        "E:a1b2c3d4e5f6070800",
		"uppercase hex":   "E:A1B2C3D4E5F60708",
		"non-hex chars":   "E:a1b2c3d4e5f6070g",
		"embedded space":  "E:a1b2c3d4 5f60708",
		"trailing prefix": "E:a1b2c3d4e5f60708E:",
	}
	for name, payload := range cases {
		got, ok := proximity.ExtractToken(payload)
		assert.False(t, ok, "case %q should not extract", name)
		assert.Empty(t, got, "case %q should yield no token", name)
	}
}

// TestZoneForRSSI verifies the three-bucket zoning thresholds.
func TestZoneForRSSI(t *testing.T) {
	assert.Equal(t, proximity.ZoneHere, proximity.ZoneForRSSI(-30))
	assert.Equal(t, proximity.ZoneHere, proximity.ZoneForRSSI(-55))
	assert.Equal(t, proximity.ZoneClose, proximity.ZoneForRSSI(-56))
	assert.Equal(t, proximity.ZoneClose, proximity.ZoneForRSSI(-75))
	assert.Equal(t, proximity.ZoneNearby, proximity.ZoneForRSSI(-76))
	assert.Equal(t, proximity.ZoneNearby, proximity.ZoneForRSSI(-100))
}
