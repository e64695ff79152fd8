// Package upload wraps the hosted media service. Files go to Cloudinary's
// unsigned upload endpoint and come back as public URLs.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when the upload credentials are absent.
var ErrNotConfigured = errors.New("image uploads are not configured")

const uploadRequestTimeout = 30 * time.Second

// Uploader accepts an image file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

// CloudinaryUploader posts files to the unsigned upload endpoint for a
// cloud/preset pair.
type CloudinaryUploader struct {
	cloudName    string
	uploadPreset string
	client       *http.Client
}

// NewCloudinaryUploader creates an uploader for the given cloud and preset.
func NewCloudinaryUploader(cloudName, uploadPreset string) *CloudinaryUploader {
	return &CloudinaryUploader{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		client:       &http.Client{Timeout: uploadRequestTimeout},
	}
}

// Upload streams the file as multipart form data and returns the secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	if u.cloudName == "" || u.uploadPreset == "" {
		return "", ErrNotConfigured
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		defer writer.Close()

		if err := writer.WriteField("upload_preset", u.uploadPreset); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
	}()

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", u.cloudName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload returned status %d", resp.StatusCode)
	}

	var body struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if body.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure URL")
	}

	return body.SecureURL, nil
}
