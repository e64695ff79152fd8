package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stayko/api/internal/errors"
	"github.com/stayko/api/internal/geo"
	"github.com/stayko/api/internal/logger"
	"github.com/stayko/api/internal/mapview"
	"github.com/stayko/api/internal/middleware"
	"github.com/stayko/api/internal/models"
)

// staticListingSource serves a fixed listing set.
type staticListingSource struct {
	listings []models.Listing
}

func (s *staticListingSource) ListAll(ctx context.Context) ([]models.Listing, error) {
	return s.listings, nil
}

// stubRouteService returns a fixed route immediately.
type stubRouteService struct{}

func (s *stubRouteService) Route(ctx context.Context, origin, destination models.Point) (*geo.Route, error) {
	return &geo.Route{
		Geometry: models.LineString{
			Coordinates: []models.Point{origin, destination},
		},
		DistanceMeters:  1500,
		DurationSeconds: 300,
	}, nil
}

func sessionListing(id string, lng, lat float64) models.Listing {
	return models.Listing{
		ID:           id,
		Title:        "Listing " + id,
		Address:      "Somewhere",
		PropertyType: "House for rent",
		Longitude:    &lng,
		Latitude:     &lat,
		Images:       []string{"a.jpg", "b.jpg"},
		Owner: &models.OwnerProfile{
			PhoneNumber: phonePtr("+63 900 123 4567"),
		},
	}
}

func phonePtr(v string) *string {
	return &v
}

// setupMapTestRouter wires the map session routes over real session state.
func setupMapTestRouter(listings []models.Listing) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test")

	sessions := mapview.NewManager(&staticListingSource{listings: listings}, &stubRouteService{}, log)
	handler := NewMapHandler(sessions)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	v1 := router.Group("/api/v1")
	mapGroup := v1.Group("/map/sessions")
	{
		mapGroup.POST("", handler.CreateSession)
		mapGroup.DELETE("/:id", handler.DestroySession)
		mapGroup.GET("/:id/scene", handler.Scene)
		mapGroup.PUT("/:id/position", handler.SetPosition)
		mapGroup.PUT("/:id/filter", handler.SetFilter)
		mapGroup.PUT("/:id/style", handler.SetStyle)
		mapGroup.POST("/:id/select", handler.Select)
		mapGroup.POST("/:id/close", handler.Close)
		mapGroup.DELETE("/:id/route", handler.ClearRoute)
		mapGroup.POST("/:id/carousel/next", handler.NextImage)
		mapGroup.POST("/:id/carousel/previous", handler.PreviousImage)
		mapGroup.PUT("/:id/carousel/maximized", handler.SetMaximized)
		mapGroup.POST("/:id/copy-phone", handler.CopyPhone)
	}

	return router
}

func createMapSession(t *testing.T, router *gin.Engine) mapview.Snapshot {
	t.Helper()

	w := performJSON(t, router, http.MethodPost, "/api/v1/map/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var snap mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.SessionID)
	return snap
}

func TestMapSession_CreateReturnsScene(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{
		sessionListing("a", 121.0, 14.6),
		sessionListing("b", 121.1, 14.7),
	})

	snap := createMapSession(t, router)

	assert.Len(t, snap.Scene.Markers, 2)
	assert.Nil(t, snap.Scene.UserMarker, "No user marker before a position fix")
	assert.Equal(t, "All", snap.Filter.PropertyType)
}

func TestMapSession_CreateWithSeededPosition(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{sessionListing("a", 121.0, 14.6)})

	w := performJSON(t, router, http.MethodPost, "/api/v1/map/sessions", gin.H{
		"position": gin.H{"lat": 14.5, "lng": 120.9},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var snap mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotNil(t, snap.Scene.UserMarker)
	assert.Equal(t, models.NewPoint(120.9, 14.5), snap.Scene.UserMarker.Position)
	require.Len(t, snap.Viewport.Camera, 1, "The first fix flies the camera to the user")
}

func TestMapSession_UnknownSessionIs404(t *testing.T) {
	router := setupMapTestRouter(nil)

	w := performJSON(t, router, http.MethodGet, "/api/v1/map/sessions/nope/scene", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrNotFound, decodeErrorCode(t, w))
}

func TestMapSession_SelectUnknownListingIs404(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{sessionListing("a", 121.0, 14.6)})
	snap := createMapSession(t, router)

	w := performJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/map/sessions/%s/select", snap.SessionID),
		gin.H{"listingId": "nope"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMapSession_SelectOpensPanelAndMovesCamera(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{sessionListing("a", 121.0, 14.6)})
	snap := createMapSession(t, router)

	w := performJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/map/sessions/%s/select", snap.SessionID),
		gin.H{"listingId": "a"})
	require.Equal(t, http.StatusOK, w.Code)

	var after mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	require.NotNil(t, after.Selected)
	assert.Equal(t, "a", after.Selected.Listing.ID)
	require.Len(t, after.Viewport.Camera, 1)
	assert.Equal(t, "flyTo", after.Viewport.Camera[0].Kind)
}

func TestMapSession_PositionThenSelectProducesRoute(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{sessionListing("a", 121.0, 14.6)})
	snap := createMapSession(t, router)
	base := fmt.Sprintf("/api/v1/map/sessions/%s", snap.SessionID)

	w := performJSON(t, router, http.MethodPut, base+"/position", gin.H{"lat": 14.5, "lng": 120.9})
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(t, router, http.MethodPost, base+"/select", gin.H{"listingId": "a"})
	require.Equal(t, http.StatusOK, w.Code)

	// The fetch is asynchronous; poll the scene until the overlay appears.
	require.Eventually(t, func() bool {
		w := performJSON(t, router, http.MethodGet, base+"/scene", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var snap mapview.Snapshot
		if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
			return false
		}
		return snap.Scene.RouteBadge != nil
	}, 2*time.Second, 10*time.Millisecond, "Route overlay should appear after selection")

	w = performJSON(t, router, http.MethodGet, base+"/scene", nil)
	var after mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Equal(t, "1.5 km", after.Scene.RouteBadge.DistanceLabel)
	assert.Equal(t, "5 min", after.Scene.RouteBadge.DurationLabel)

	// Clearing the route removes the overlay.
	w = performJSON(t, router, http.MethodDelete, base+"/route", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Nil(t, after.Scene.RouteBadge)
}

func TestMapSession_FilterNarrowsMarkers(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{
		sessionListing("a", 121.0, 14.6),
		sessionListing("b", 121.1, 14.7),
	})
	snap := createMapSession(t, router)

	w := performJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/map/sessions/%s/filter", snap.SessionID),
		gin.H{"searchText": "Listing b"})
	require.Equal(t, http.StatusOK, w.Code)

	var after mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	require.Len(t, after.Scene.Markers, 1)
	assert.Equal(t, "b", after.Scene.Markers[0].ListingID)
}

func TestMapSession_StyleValidation(t *testing.T) {
	router := setupMapTestRouter(nil)
	snap := createMapSession(t, router)
	path := fmt.Sprintf("/api/v1/map/sessions/%s/style", snap.SessionID)

	w := performJSON(t, router, http.MethodPut, path, gin.H{"style": "openstreetmap3d"})
	require.Equal(t, http.StatusOK, w.Code)

	var after mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Equal(t, "openstreetmap3d", after.Viewport.Style)
	assert.NotEmpty(t, after.Viewport.StyleURL)

	w = performJSON(t, router, http.MethodPut, path, gin.H{"style": "satellite"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapSession_CarouselAndCopyPhone(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{sessionListing("a", 121.0, 14.6)})
	snap := createMapSession(t, router)
	base := fmt.Sprintf("/api/v1/map/sessions/%s", snap.SessionID)

	w := performJSON(t, router, http.MethodPost, base+"/select", gin.H{"listingId": "a"})
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(t, router, http.MethodPost, base+"/carousel/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var after mapview.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	require.NotNil(t, after.Selected)
	assert.Equal(t, 1, after.Selected.Panel.CurrentImageIndex)

	w = performJSON(t, router, http.MethodPut, base+"/carousel/maximized", gin.H{"maximized": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.True(t, after.Selected.Panel.IsMaximized)

	w = performJSON(t, router, http.MethodPost, base+"/copy-phone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var copied CopyPhoneResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &copied))
	assert.Equal(t, "+63 900 123 4567", copied.Phone)
}

func TestMapSession_CopyPhoneWithoutSelectionIs404(t *testing.T) {
	router := setupMapTestRouter([]models.Listing{sessionListing("a", 121.0, 14.6)})
	snap := createMapSession(t, router)

	w := performJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/map/sessions/%s/copy-phone", snap.SessionID), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMapSession_DestroyThenUseIs404(t *testing.T) {
	router := setupMapTestRouter(nil)
	snap := createMapSession(t, router)
	base := fmt.Sprintf("/api/v1/map/sessions/%s", snap.SessionID)

	w := performJSON(t, router, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = performJSON(t, router, http.MethodGet, base+"/scene", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
