package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stayko/api/internal/errors"
	"github.com/stayko/api/internal/mapview"
	"github.com/stayko/api/internal/models"
)

// MapHandler exposes the map interaction layer. Every mutating endpoint
// responds with the fresh session snapshot so the client renders exactly
// the state the server holds.
type MapHandler struct {
	sessions *mapview.Manager
}

// NewMapHandler creates a new MapHandler instance.
func NewMapHandler(sessions *mapview.Manager) *MapHandler {
	return &MapHandler{
		sessions: sessions,
	}
}

// PositionRequest is the body for the position endpoint.
type PositionRequest struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

// FilterRequest is the body for the filter endpoint.
type FilterRequest struct {
	MinPrice     *float64 `json:"minPrice" binding:"omitempty,min=0"`
	MaxPrice     *float64 `json:"maxPrice" binding:"omitempty,min=0"`
	SearchText   string   `json:"searchText"`
	PropertyType string   `json:"propertyType"`
}

// StyleRequest is the body for the style endpoint.
type StyleRequest struct {
	Style string `json:"style" binding:"required"`
}

// SelectRequest is the body for the select endpoint.
type SelectRequest struct {
	ListingID string `json:"listingId" binding:"required"`
}

// MaximizedRequest is the body for the lightbox endpoint.
type MaximizedRequest struct {
	Maximized bool `json:"maximized"`
}

// CopyPhoneResponse carries the owner phone number for the clipboard.
type CopyPhoneResponse struct {
	Phone string `json:"phone"`
}

// CreateSessionRequest is the optional body for session creation. A client
// that already has a geolocation fix can seed it here and save a round trip.
type CreateSessionRequest struct {
	Position *PositionRequest `json:"position"`
}

// CreateSession handles POST /api/v1/map/sessions.
func (h *MapHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if !h.bind(c, &req) {
			return
		}
	}

	session, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		apierrors.UpstreamError(c, "Failed to load listings for the map", err)
		return
	}

	if req.Position != nil {
		session.SetUserPosition(models.NewPoint(req.Position.Lng, req.Position.Lat))
	}

	c.JSON(http.StatusCreated, session.Snapshot())
}

// DestroySession handles DELETE /api/v1/map/sessions/:id.
func (h *MapHandler) DestroySession(c *gin.Context) {
	if err := h.sessions.Destroy(c.Param("id")); err != nil {
		apierrors.NotFound(c, "Map session not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// Scene handles GET /api/v1/map/sessions/:id/scene.
// Reading the scene drains any queued camera animations.
func (h *MapHandler) Scene(c *gin.Context) {
	h.withSession(c, func(s *mapview.Session) {
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// SetPosition handles PUT /api/v1/map/sessions/:id/position.
func (h *MapHandler) SetPosition(c *gin.Context) {
	var req PositionRequest
	if !h.bind(c, &req) {
		return
	}

	h.withSession(c, func(s *mapview.Session) {
		s.SetUserPosition(models.NewPoint(req.Lng, req.Lat))
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// SetFilter handles PUT /api/v1/map/sessions/:id/filter.
func (h *MapHandler) SetFilter(c *gin.Context) {
	var req FilterRequest
	if !h.bind(c, &req) {
		return
	}

	h.withSession(c, func(s *mapview.Session) {
		s.SetFilter(mapview.FilterState{
			MinPrice:     req.MinPrice,
			MaxPrice:     req.MaxPrice,
			SearchText:   req.SearchText,
			PropertyType: req.PropertyType,
		})
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// SetStyle handles PUT /api/v1/map/sessions/:id/style.
func (h *MapHandler) SetStyle(c *gin.Context) {
	var req StyleRequest
	if !h.bind(c, &req) {
		return
	}

	h.withSession(c, func(s *mapview.Session) {
		if err := s.SetStyle(req.Style); err != nil {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// Select handles POST /api/v1/map/sessions/:id/select.
func (h *MapHandler) Select(c *gin.Context) {
	var req SelectRequest
	if !h.bind(c, &req) {
		return
	}

	h.withSession(c, func(s *mapview.Session) {
		if err := s.Select(req.ListingID); err != nil {
			if errors.Is(err, mapview.ErrListingNotInSession) {
				apierrors.NotFound(c, "Listing not found")
				return
			}
			apierrors.InternalServerError(c, "Failed to select listing", err)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// Close handles POST /api/v1/map/sessions/:id/close.
func (h *MapHandler) Close(c *gin.Context) {
	h.withSession(c, func(s *mapview.Session) {
		s.Close()
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// ClearRoute handles DELETE /api/v1/map/sessions/:id/route.
func (h *MapHandler) ClearRoute(c *gin.Context) {
	h.withSession(c, func(s *mapview.Session) {
		s.ClearRoute()
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// NextImage handles POST /api/v1/map/sessions/:id/carousel/next.
func (h *MapHandler) NextImage(c *gin.Context) {
	h.withSession(c, func(s *mapview.Session) {
		s.NextImage()
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// PreviousImage handles POST /api/v1/map/sessions/:id/carousel/previous.
func (h *MapHandler) PreviousImage(c *gin.Context) {
	h.withSession(c, func(s *mapview.Session) {
		s.PreviousImage()
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// SetMaximized handles PUT /api/v1/map/sessions/:id/carousel/maximized.
func (h *MapHandler) SetMaximized(c *gin.Context) {
	var req MaximizedRequest
	if !h.bind(c, &req) {
		return
	}

	h.withSession(c, func(s *mapview.Session) {
		s.SetMaximized(req.Maximized)
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// CopyPhone handles POST /api/v1/map/sessions/:id/copy-phone.
func (h *MapHandler) CopyPhone(c *gin.Context) {
	h.withSession(c, func(s *mapview.Session) {
		phone := s.CopyPhone()
		if phone == "" {
			apierrors.NotFound(c, "No phone number to copy")
			return
		}
		c.JSON(http.StatusOK, CopyPhoneResponse{Phone: phone})
	})
}

// withSession resolves the session from the path or writes 404.
func (h *MapHandler) withSession(c *gin.Context, fn func(*mapview.Session)) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Map session not found")
		return
	}
	fn(session)
}

// bind decodes a JSON body or writes the error response.
func (h *MapHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}
