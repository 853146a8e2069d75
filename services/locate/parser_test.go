package locate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeoResult(t *testing.T) {
	result, err := parseGeoResult(`{"lat": 50.45, "lng": 30.52, "place": "Kyiv", "country": "Ukraine", "confidence": 0.92}`)
	require.NoError(t, err)
	assert.Equal(t, 50.45, result.Latitude)
	assert.Equal(t, 30.52, result.Longitude)
	assert.Equal(t, "Kyiv", result.Place)
	assert.Equal(t, "Ukraine", result.Country)
	assert.Equal(t, 0.92, result.Confidence)
}

func TestParseGeoResultStripsFences(t *testing.T) {
	raw := "```json\n{\"lat\": 35.68, \"lng\": 139.69, \"place\": \"Tokyo\", \"country\": \"Japan\", \"confidence\": 0.8}\n```"

	result, err := parseGeoResult(raw)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", result.Place)
}

func TestParseGeoResultIgnoresExtraFields(t *testing.T) {
	raw := `{"lat": 1.29, "lng": 103.85, "place": "Singapore", "country": "Singapore", "confidence": 0.7, "reasoning": "port city"}`

	result, err := parseGeoResult(raw)
	require.NoError(t, err)
	assert.Equal(t, "Singapore", result.Place)
}

func TestParseGeoResultRejectsGarbage(t *testing.T) {
	cases := []string{
		"The location is probably Paris.",
		`{"lat": "fifty", "lng": 2.35, "place": "Paris", "country": "France", "confidence": 0.9}`,
		"",
	}

	for _, raw := range cases {
		if _, err := parseGeoResult(raw); err == nil {
			t.Errorf("expected an error for %q", raw)
		}
	}
}

func TestParseGeoResultRejectsOutOfRange(t *testing.T) {
	cases := []string{
		`{"lat": 91, "lng": 0, "place": "Nowhere", "country": "X", "confidence": 0.9}`,
		`{"lat": 0, "lng": -181, "place": "Nowhere", "country": "X", "confidence": 0.9}`,
		`{"lat": 10, "lng": 10, "place": "Nowhere", "country": "X", "confidence": 1.5}`,
	}

	for _, raw := range cases {
		if _, err := parseGeoResult(raw); err == nil {
			t.Errorf("expected an error for %q", raw)
		}
	}
}

func TestParseGeoResultNoLocation(t *testing.T) {
	_, err := parseGeoResult(`{"lat": 0, "lng": 0, "place": "", "country": "", "confidence": 0}`)
	assert.True(t, errors.Is(err, ErrNoLocation))

	// A place with zero confidence still counts as no location.
	_, err = parseGeoResult(`{"lat": 48.85, "lng": 2.35, "place": "Paris", "country": "France", "confidence": 0}`)
	assert.True(t, errors.Is(err, ErrNoLocation))
}
