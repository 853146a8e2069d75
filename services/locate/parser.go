package locate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoLocation = errors.New("no location in model answer")

// GeoResult is the location the model extracted from an article. Confidence
// runs from 0 to 1; the service decides what is good enough to plot.
type GeoResult struct {
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	Place      string  `json:"place"`
	Country    string  `json:"country"`
	Confidence float64 `json:"confidence"`
}

// parseGeoResult reads the model's JSON answer. Models occasionally wrap
// JSON in a markdown fence even when asked not to, so fences are stripped
// before decoding. Anything that does not decode into valid coordinates is
// rejected; a zero confidence or empty place is the model saying there is
// no location.
func parseGeoResult(raw string) (*GeoResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result GeoResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	if result.Confidence == 0 || result.Place == "" {
		return nil, ErrNoLocation
	}
	if result.Latitude < -90 || result.Latitude > 90 {
		return nil, fmt.Errorf("latitude %f is out of range", result.Latitude)
	}
	if result.Longitude < -180 || result.Longitude > 180 {
		return nil, fmt.Errorf("longitude %f is out of range", result.Longitude)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("confidence %f is out of range", result.Confidence)
	}

	return &result, nil
}

// buildPrompt asks for exactly one location as bare JSON.
func buildPrompt(title, description string) string {
	return fmt.Sprintf(`Identify the single most relevant geographic location for this news story.
Respond with JSON only, no prose: {"lat": <number>, "lng": <number>, "place": "<city or region>", "country": "<country>", "confidence": <number 0 to 1>}.
Use {"lat": 0, "lng": 0, "place": "", "country": "", "confidence": 0} when the story has no meaningful location.

Title: %s
Summary: %s`, title, description)
}
