package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stayko/api/internal/errors"
	"github.com/stayko/api/internal/middleware"
	"github.com/stayko/api/internal/upload"
)

// maxUploadBytes caps a single image upload.
const maxUploadBytes = 10 << 20

// UploadHandler streams image files to the CDN and returns their URLs.
type UploadHandler struct {
	uploader upload.Uploader
}

// NewUploadHandler creates a new UploadHandler instance.
func NewUploadHandler(uploader upload.Uploader) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
	}
}

// UploadResponse carries the hosted image URL.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /api/v1/uploads.
// Accepts one multipart file part named "file" and returns its hosted URL.
func (h *UploadHandler) Upload(c *gin.Context) {
	log := middleware.GetLogger(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A multipart file part named \"file\" is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		apierrors.BadRequest(c, "File exceeds the 10 MB upload limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "Unreadable file", nil)
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, upload.ErrNotConfigured) {
			apierrors.InternalServerError(c, "Image uploads are not configured", err)
			return
		}
		apierrors.NetworkError(c, "Image upload failed", err)
		return
	}

	if log != nil {
		log.Info("Image uploaded", map[string]interface{}{
			"user_id":  middleware.GetUserID(c),
			"filename": fileHeader.Filename,
			"size":     fileHeader.Size,
		})
	}

	c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
