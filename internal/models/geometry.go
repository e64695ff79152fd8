package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Point represents a WGS84 coordinate in GeoJSON [longitude, latitude] order.
// Routing and map services all consume lon/lat ordering, so the type keeps
// that order on the wire and exposes named accessors for readability.
type Point [2]float64

// NewPoint builds a point from a longitude/latitude pair.
func NewPoint(lng, lat float64) Point {
	return Point{lng, lat}
}

// Lng returns the longitude component.
func (p Point) Lng() float64 { return p[0] }

// Lat returns the latitude component.
func (p Point) Lat() float64 { return p[1] }

// LineString represents a route polyline as an ordered sequence of points.
// It stores coordinates in GeoJSON format: [points][lon,lat], SRID 4326.
type LineString struct {
	Coordinates []Point // GeoJSON coordinate structure
	SRID        int     // Spatial Reference ID (default: 4326)
}

// IsEmpty reports whether the line has no points.
func (ls LineString) IsEmpty() bool {
	return len(ls.Coordinates) == 0
}

// Scan implements sql.Scanner for reading linestring geometry returned by
// the database as GeoJSON (e.g. via ST_AsGeoJSON).
func (ls *LineString) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan LineString: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string  `json:"type"`
		Coordinates []Point `json:"coordinates"`
	}

	if err := json.Unmarshal(bytes, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal linestring geometry: %w", err)
	}

	if geom.Type != "LineString" {
		return fmt.Errorf("expected LineString type, got %s", geom.Type)
	}

	ls.Coordinates = geom.Coordinates
	ls.SRID = 4326 // Default to WGS84

	return nil
}

// Value implements driver.Valuer for writing linestring geometry to the
// database. Returns a GeoJSON string for use with ST_GeomFromGeoJSON.
func (ls LineString) Value() (driver.Value, error) {
	if len(ls.Coordinates) == 0 {
		return nil, nil
	}

	geom := map[string]interface{}{
		"type":        "LineString",
		"coordinates": ls.Coordinates,
	}

	geoJSON, err := json.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal linestring to GeoJSON: %w", err)
	}

	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler for API responses.
// Returns GeoJSON-compliant format for frontend consumption.
func (ls LineString) MarshalJSON() ([]byte, error) {
	coords := ls.Coordinates
	if coords == nil {
		coords = []Point{}
	}
	geom := struct {
		Type        string  `json:"type"`
		Coordinates []Point `json:"coordinates"`
	}{
		Type:        "LineString",
		Coordinates: coords,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input,
// including route geometries returned by the routing service.
func (ls *LineString) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string  `json:"type"`
		Coordinates []Point `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal linestring: %w", err)
	}

	if geom.Type != "" && geom.Type != "LineString" {
		return fmt.Errorf("expected LineString type, got %s", geom.Type)
	}

	ls.Coordinates = geom.Coordinates
	ls.SRID = 4326

	return nil
}
