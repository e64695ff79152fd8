package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stayko/api/internal/logger"
	"github.com/stayko/api/internal/models"
	"github.com/stayko/api/internal/repository"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Service-level errors
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrListingNotFound    = errors.New("listing not found")
	ErrNotOwner           = errors.New("listing belongs to another user")
)

// ListingService defines the interface for listing business logic operations.
type ListingService interface {
	// ListAll retrieves the full listing set for the map feed.
	ListAll(ctx context.Context) ([]models.Listing, error)

	// ListOwn retrieves the caller's listings for the management view.
	ListOwn(ctx context.Context, ownerID string) ([]models.Listing, error)

	// Get retrieves a single listing.
	// Returns ErrListingNotFound when it does not exist.
	Get(ctx context.Context, id string) (*models.Listing, error)

	// Create validates required fields and coordinates, then inserts the
	// listing with its images. New listings always start available.
	Create(ctx context.Context, ownerID string, fields repository.ListingWriteFields, imageURLs []string) (*models.Listing, error)

	// Update rewrites a listing the caller owns.
	// Returns ErrListingNotFound when absent, ErrNotOwner on an
	// ownership violation.
	Update(ctx context.Context, id, ownerID string, fields repository.ListingWriteFields, imageURLs []string, replaceImages bool) error

	// Delete removes a listing the caller owns.
	Delete(ctx context.Context, id, ownerID string) error

	// SetStatus sets availability to available or booked.
	SetStatus(ctx context.Context, id, ownerID, status string) error
}

// listingService is the concrete implementation of ListingService.
type listingService struct {
	repo repository.ListingRepository
	log  *logger.Logger
}

// NewListingService creates a new instance of ListingService.
func NewListingService(repo repository.ListingRepository, log *logger.Logger) ListingService {
	return &listingService{
		repo: repo,
		log:  log,
	}
}

func (s *listingService) ListAll(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Error("Failed to list listings", err, nil)
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	s.log.Debug("Listings fetched", map[string]interface{}{
		"count": len(listings),
	})

	return listings, nil
}

func (s *listingService) ListOwn(ctx context.Context, ownerID string) ([]models.Listing, error) {
	listings, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error("Failed to list owner listings", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to list owner listings: %w", err)
	}

	return listings, nil
}

func (s *listingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get listing", err, map[string]interface{}{
			"listing_id": id,
		})
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// Create validates and inserts a new listing.
func (s *listingService) Create(ctx context.Context, ownerID string, fields repository.ListingWriteFields, imageURLs []string) (*models.Listing, error) {
	if err := validateListingFields(fields); err != nil {
		s.log.Warn("Invalid listing payload", map[string]interface{}{
			"owner_id": ownerID,
			"reason":   err.Error(),
		})
		return nil, err
	}

	listing, err := s.repo.Create(ctx, ownerID, fields, imageURLs)
	if err != nil {
		s.log.Error("Failed to create listing", err, map[string]interface{}{
			"owner_id": ownerID,
			"title":    fields.Title,
		})
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.log.Info("Listing created", map[string]interface{}{
		"listing_id": listing.ID,
		"owner_id":   ownerID,
		"images":     len(imageURLs),
	})

	return listing, nil
}

// Update verifies ownership before writing, translating an absent row into
// ErrListingNotFound and a foreign row into ErrNotOwner.
func (s *listingService) Update(ctx context.Context, id, ownerID string, fields repository.ListingWriteFields, imageURLs []string, replaceImages bool) error {
	if err := validateListingFields(fields); err != nil {
		return err
	}

	if err := s.checkOwnership(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, ownerID, fields, imageURLs, replaceImages); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrListingNotFound
		}
		s.log.Error("Failed to update listing", err, map[string]interface{}{
			"listing_id": id,
			"owner_id":   ownerID,
		})
		return fmt.Errorf("failed to update listing: %w", err)
	}

	s.log.Info("Listing updated", map[string]interface{}{
		"listing_id":      id,
		"owner_id":        ownerID,
		"images_replaced": replaceImages,
	})

	return nil
}

func (s *listingService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.checkOwnership(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrListingNotFound
		}
		s.log.Error("Failed to delete listing", err, map[string]interface{}{
			"listing_id": id,
			"owner_id":   ownerID,
		})
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	s.log.Info("Listing deleted", map[string]interface{}{
		"listing_id": id,
		"owner_id":   ownerID,
	})

	return nil
}

func (s *listingService) SetStatus(ctx context.Context, id, ownerID, status string) error {
	if status != models.StatusAvailable && status != models.StatusBooked {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if err := s.checkOwnership(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.repo.SetStatus(ctx, id, ownerID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrListingNotFound
		}
		s.log.Error("Failed to set listing status", err, map[string]interface{}{
			"listing_id": id,
			"status":     status,
		})
		return fmt.Errorf("failed to set listing status: %w", err)
	}

	s.log.Info("Listing status updated", map[string]interface{}{
		"listing_id": id,
		"status":     status,
	})

	return nil
}

// checkOwnership loads the listing and compares its owner to the caller.
func (s *listingService) checkOwnership(ctx context.Context, id, ownerID string) error {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to verify listing ownership", err, map[string]interface{}{
			"listing_id": id,
		})
		return fmt.Errorf("failed to verify ownership: %w", err)
	}
	if listing == nil {
		return ErrListingNotFound
	}
	if listing.OwnerID != ownerID {
		s.log.Warn("Ownership violation", map[string]interface{}{
			"listing_id": id,
			"owner_id":   listing.OwnerID,
			"caller_id":  ownerID,
		})
		return ErrNotOwner
	}
	return nil
}

// validateListingFields enforces the required-field and coordinate rules.
func validateListingFields(fields repository.ListingWriteFields) error {
	if fields.Title == "" || fields.PropertyType == "" || fields.Address == "" {
		return fmt.Errorf("%w: title, property type and address are required", ErrMissingFields)
	}

	if fields.Latitude != nil && (*fields.Latitude < MinLatitude || *fields.Latitude > MaxLatitude) {
		return fmt.Errorf("%w: latitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, *fields.Latitude)
	}
	if fields.Longitude != nil && (*fields.Longitude < MinLongitude || *fields.Longitude > MaxLongitude) {
		return fmt.Errorf("%w: longitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, *fields.Longitude)
	}

	return nil
}
