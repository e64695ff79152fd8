// Package geo wraps the external road-routing and reverse-geocoding
// services. Both are public best-effort APIs: failures degrade features,
// never the session.
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

// ErrNoRoute is returned when the routing service answers without any route.
var ErrNoRoute = errors.New("no route found")

const routeRequestTimeout = 10 * time.Second

// Route is a single road route between two points.
type Route struct {
	Geometry        models.LineString
	DistanceMeters  float64
	DurationSeconds float64
}

// RouteService computes a driving route between two lon/lat points.
type RouteService interface {
	Route(ctx context.Context, origin, destination models.Point) (*Route, error)
}

// OSRMClient talks to an OSRM-compatible routing endpoint
// (router.project-osrm.org by default).
type OSRMClient struct {
	baseURL string
	client  *http.Client
}

// NewOSRMClient creates a routing client against the given base URL.
func NewOSRMClient(baseURL string) *OSRMClient {
	return &OSRMClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: routeRequestTimeout},
	}
}

// osrmResponse mirrors the subset of the OSRM route response we consume.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry models.LineString `json:"geometry"`
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
	} `json:"routes"`
}

// Route requests a driving route with full GeoJSON overview geometry.
// Coordinates go on the wire in lon,lat order, as OSRM expects.
func (c *OSRMClient) Route(ctx context.Context, origin, destination models.Point) (*Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL,
		origin.Lng(), origin.Lat(),
		destination.Lng(), destination.Lat(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build route request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route request returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode route response: %w", err)
	}

	if len(body.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := body.Routes[0]
	return &Route{
		Geometry:        best.Geometry,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}
