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
	"github.com/stayko/api/internal/upload"
)

// ProfileHandler handles profile-related HTTP requests.
type ProfileHandler struct {
	service  services.ProfileService
	uploader upload.Uploader
}

// NewProfileHandler creates a new ProfileHandler instance.
func NewProfileHandler(service services.ProfileService, uploader upload.Uploader) *ProfileHandler {
	return &ProfileHandler{
		service:  service,
		uploader: uploader,
	}
}

// ProfilePayload is the multipart form for the update endpoint. The avatar
// arrives as a file part named "avatar"; every other field is optional and
// left unchanged when omitted.
type ProfilePayload struct {
	FullName    *string `form:"fullName"`
	PhoneNumber *string `form:"phoneNumber"`
	Address     *string `form:"address"`
	Facebook    *string `form:"facebook"`
	Instagram   *string `form:"instagram"`
	TikTok      *string `form:"tiktok"`
}

// ProfileResponse wraps a single profile.
type ProfileResponse struct {
	Profile *models.Profile `json:"profile"`
}

// GetMe handles GET /api/v1/profiles/me.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	profile, err := h.service.GetOwn(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			apierrors.NotFound(c, "Profile not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load profile", err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Profile: profile})
}

// GetPublic handles GET /api/v1/profiles/:id.
// The id is validated as a UUID before any storage access.
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	profile, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidUserID) {
			apierrors.BadRequest(c, "Invalid profile id", nil)
			return
		}
		if errors.Is(err, services.ErrProfileNotFound) {
			apierrors.NotFound(c, "Profile not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load profile", err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Profile: profile})
}

// UpdateMe handles PUT /api/v1/profiles/me.
// When an avatar file is attached it is uploaded first; an upload failure
// aborts the update so the profile never references a missing image.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	log := middleware.GetLogger(c)
	userID := middleware.GetUserID(c)

	var payload ProfilePayload
	if err := c.ShouldBind(&payload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	fields := repository.ProfileWriteFields{
		FullName:    payload.FullName,
		PhoneNumber: payload.PhoneNumber,
		Address:     payload.Address,
	}

	if payload.Facebook != nil || payload.Instagram != nil || payload.TikTok != nil {
		fields.Social = &models.SocialLinks{
			Facebook:  payload.Facebook,
			Instagram: payload.Instagram,
			TikTok:    payload.TikTok,
		}
	}

	if fileHeader, err := c.FormFile("avatar"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			apierrors.BadRequest(c, "Unreadable avatar file", nil)
			return
		}
		defer file.Close()

		avatarURL, err := h.uploader.Upload(c.Request.Context(), fileHeader.Filename, file)
		if err != nil {
			apierrors.NetworkError(c, "Avatar upload failed", err)
			return
		}
		fields.AvatarURL = &avatarURL

		if log != nil {
			log.Info("Avatar uploaded", map[string]interface{}{
				"user_id": userID,
			})
		}
	}

	if err := h.service.Update(c.Request.Context(), userID, fields); err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			apierrors.NotFound(c, "Profile not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to update profile", err)
		return
	}

	c.Status(http.StatusNoContent)
}
