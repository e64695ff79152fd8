package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stayko/api/internal/errors"
	"github.com/stayko/api/internal/middleware"
	"github.com/stayko/api/internal/models"
	"github.com/stayko/api/internal/repository"
	"github.com/stayko/api/internal/services"
)

// ListingHandler handles listing-related HTTP requests.
type ListingHandler struct {
	service services.ListingService
}

// NewListingHandler creates a new ListingHandler instance.
func NewListingHandler(service services.ListingService) *ListingHandler {
	return &ListingHandler{
		service: service,
	}
}

// ListingPayload is the request body shared by create and update.
type ListingPayload struct {
	Title          string   `json:"title" binding:"required"`
	Address        string   `json:"address" binding:"required"`
	PropertyType   string   `json:"propertyType" binding:"required"`
	Description    *string  `json:"description"`
	Price          *float64 `json:"price" binding:"omitempty,min=0"`
	Latitude       *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude      *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	AvailableSlots *int     `json:"availableSlots" binding:"omitempty,min=0"`
	ImageURLs      []string `json:"imageUrls"`
}

// StatusPayload is the request body for the status endpoint.
type StatusPayload struct {
	Status string `json:"status" binding:"required,oneof=available booked"`
}

// ListingsResponse wraps a listing collection.
type ListingsResponse struct {
	Listings []models.Listing `json:"listings"`
	Count    int              `json:"count"`
}

// ListingResponse wraps a single listing.
type ListingResponse struct {
	Listing *models.Listing `json:"listing"`
}

func (p *ListingPayload) writeFields() repository.ListingWriteFields {
	return repository.ListingWriteFields{
		Title:          p.Title,
		Address:        p.Address,
		PropertyType:   p.PropertyType,
		Description:    p.Description,
		Price:          p.Price,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		AvailableSlots: p.AvailableSlots,
	}
}

// List handles GET /api/v1/listings.
// Returns every listing with images and owner snapshots for the map feed.
func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load listings", err)
		return
	}

	c.JSON(http.StatusOK, ListingsResponse{
		Listings: listings,
		Count:    len(listings),
	})
}

// ListMine handles GET /api/v1/listings/mine.
func (h *ListingHandler) ListMine(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	listings, err := h.service.ListOwn(c.Request.Context(), ownerID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load your listings", err)
		return
	}

	c.JSON(http.StatusOK, ListingsResponse{
		Listings: listings,
		Count:    len(listings),
	})
}

// Get handles GET /api/v1/listings/:id.
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			apierrors.NotFound(c, "Listing not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load listing", err)
		return
	}

	c.JSON(http.StatusOK, ListingResponse{Listing: listing})
}

// Create handles POST /api/v1/listings.
func (h *ListingHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)
	ownerID := middleware.GetUserID(c)

	var payload ListingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if log != nil {
		log.Info("Creating listing", map[string]interface{}{
			"owner_id": ownerID,
			"title":    payload.Title,
		})
	}

	listing, err := h.service.Create(c.Request.Context(), ownerID, payload.writeFields(), payload.ImageURLs)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) || errors.Is(err, services.ErrInvalidCoordinates) {
			apierrors.ValidationFailed(c, err.Error())
			return
		}
		apierrors.InternalServerError(c, "Failed to create listing", err)
		return
	}

	c.JSON(http.StatusCreated, ListingResponse{Listing: listing})
}

// Update handles PUT /api/v1/listings/:id.
// A non-nil imageUrls array replaces the listing's image set wholesale.
func (h *ListingHandler) Update(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var payload ListingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	replaceImages := payload.ImageURLs != nil

	err := h.service.Update(c.Request.Context(), c.Param("id"), ownerID, payload.writeFields(), payload.ImageURLs, replaceImages)
	if err != nil {
		h.writeMutationError(c, err, "Failed to update listing")
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/listings/:id.
func (h *ListingHandler) Delete(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		h.writeMutationError(c, err, "Failed to delete listing")
		return
	}

	c.Status(http.StatusNoContent)
}

// SetStatus handles PATCH /api/v1/listings/:id/status.
func (h *ListingHandler) SetStatus(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var payload StatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), c.Param("id"), ownerID, payload.Status); err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			apierrors.ValidationFailed(c, err.Error())
			return
		}
		h.writeMutationError(c, err, "Failed to update listing status")
		return
	}

	c.Status(http.StatusNoContent)
}

// writeMutationError maps the shared mutation error cases.
func (h *ListingHandler) writeMutationError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, services.ErrListingNotFound) {
		apierrors.NotFound(c, "Listing not found")
		return
	}
	if errors.Is(err, services.ErrNotOwner) {
		apierrors.Unauthorized(c, "You do not own this listing")
		return
	}
	if errors.Is(err, services.ErrMissingFields) || errors.Is(err, services.ErrInvalidCoordinates) {
		apierrors.ValidationFailed(c, err.Error())
		return
	}
	apierrors.InternalServerError(c, fallback, err)
}
