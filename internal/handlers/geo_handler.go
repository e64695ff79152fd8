package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stayko/api/internal/errors"
	"github.com/stayko/api/internal/geo"
	"github.com/stayko/api/internal/models"
)

// GeoHandler exposes the routing and reverse-geocoding services directly,
// for clients that manage their own map state.
type GeoHandler struct {
	routes   geo.RouteService
	geocoder geo.Geocoder
}

// NewGeoHandler creates a new GeoHandler instance.
func NewGeoHandler(routes geo.RouteService, geocoder geo.Geocoder) *GeoHandler {
	return &GeoHandler{
		routes:   routes,
		geocoder: geocoder,
	}
}

// RouteRequest represents the query parameters for the route endpoint.
type RouteRequest struct {
	OriginLat      float64 `form:"originLat" binding:"min=-90,max=90"`
	OriginLng      float64 `form:"originLng" binding:"min=-180,max=180"`
	DestinationLat float64 `form:"destLat" binding:"min=-90,max=90"`
	DestinationLng float64 `form:"destLng" binding:"min=-180,max=180"`
}

// RouteResponse carries the computed route with display-ready labels.
type RouteResponse struct {
	Polyline      models.LineString `json:"polyline"`
	DistanceLabel string            `json:"distanceLabel"`
	DurationLabel string            `json:"durationLabel"`
}

// ReverseRequest represents the query parameters for the reverse endpoint.
type ReverseRequest struct {
	Lat float64 `form:"lat" binding:"min=-90,max=90"`
	Lng float64 `form:"lng" binding:"min=-180,max=180"`
}

// ReverseResponse carries a resolved or fallback address. Fallback is true
// when the geocoder had no answer and the address is just the coordinates.
type ReverseResponse struct {
	Address  string `json:"address"`
	Fallback bool   `json:"fallback"`
}

// Route handles GET /api/v1/geo/route.
func (h *GeoHandler) Route(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	origin := models.NewPoint(req.OriginLng, req.OriginLat)
	destination := models.NewPoint(req.DestinationLng, req.DestinationLat)

	route, err := h.routes.Route(c.Request.Context(), origin, destination)
	if err != nil {
		if errors.Is(err, geo.ErrNoRoute) {
			apierrors.NotFound(c, "No route between these points")
			return
		}
		apierrors.UpstreamError(c, "Route computation failed", err)
		return
	}

	c.JSON(http.StatusOK, RouteResponse{
		Polyline:      route.Geometry,
		DistanceLabel: formatDistance(route.DistanceMeters),
		DurationLabel: formatDuration(route.DurationSeconds),
	})
}

// Reverse handles GET /api/v1/geo/reverse.
// Geocoding is best-effort: when the geocoder fails, the response still
// succeeds with the raw coordinates as the address.
func (h *GeoHandler) Reverse(c *gin.Context) {
	var req ReverseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	point := models.NewPoint(req.Lng, req.Lat)

	address, err := h.geocoder.ReverseGeocode(c.Request.Context(), point)
	if err != nil {
		c.JSON(http.StatusOK, ReverseResponse{
			Address:  geo.FallbackAddress(point),
			Fallback: true,
		})
		return
	}

	c.JSON(http.StatusOK, ReverseResponse{Address: address})
}

// formatDistance renders meters as kilometers with one decimal place.
func formatDistance(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}

// formatDuration renders seconds as whole minutes.
func formatDuration(seconds float64) string {
	return fmt.Sprintf("%d min", int(math.Round(seconds/60)))
}

