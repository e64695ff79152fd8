package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stayko/api/internal/models"
)

// ErrNoAddress is returned when the geocoder has no address for the point.
var ErrNoAddress = errors.New("no address found")

const geocodeRequestTimeout = 8 * time.Second

// Geocoder resolves a coordinate to a human-readable address.
// Used by the listing-creation flow only; callers fall back to a
// manually-editable coordinate string on failure.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, point models.Point) (string, error)
}

// NominatimClient talks to a Nominatim-compatible reverse-geocoding endpoint.
type NominatimClient struct {
	baseURL string
	client  *http.Client
}

// NewNominatimClient creates a geocoding client against the given base URL.
func NewNominatimClient(baseURL string) *NominatimClient {
	return &NominatimClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: geocodeRequestTimeout},
	}
}

// ReverseGeocode asks Nominatim for the display name at the point.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, point models.Point) (string, error) {
	url := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%f&lon=%f",
		c.baseURL, point.Lat(), point.Lng())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying agent.
	req.Header.Set("User-Agent", "stayko-api")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if body.Error != "" || body.DisplayName == "" {
		return "", ErrNoAddress
	}

	return body.DisplayName, nil
}

// FallbackAddress formats a point as the manual-entry fallback string shown
// when reverse geocoding is unavailable.
func FallbackAddress(point models.Point) string {
	return fmt.Sprintf("%.6f, %.6f", point.Lat(), point.Lng())
}
