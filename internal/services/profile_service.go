package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/stayko/api/internal/logger"
	"github.com/stayko/api/internal/models"
	"github.com/stayko/api/internal/repository"
)

// Service-level errors
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidUserID   = errors.New("invalid user id")
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ProfileService defines the interface for profile business logic operations.
type ProfileService interface {
	// GetOwn retrieves the caller's profile.
	GetOwn(ctx context.Context, userID string) (*models.Profile, error)

	// GetPublic retrieves another user's public profile by id.
	// The id is validated as a UUID before touching storage.
	GetPublic(ctx context.Context, userID string) (*models.Profile, error)

	// Update rewrites the caller's profile and social links.
	Update(ctx context.Context, userID string, fields repository.ProfileWriteFields) error
}

// profileService is the concrete implementation of ProfileService.
type profileService struct {
	repo repository.ProfileRepository
	log  *logger.Logger
}

// NewProfileService creates a new instance of ProfileService.
func NewProfileService(repo repository.ProfileRepository, log *logger.Logger) ProfileService {
	return &profileService{
		repo: repo,
		log:  log,
	}
}

func (s *profileService) GetOwn(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to get own profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *profileService) GetPublic(ctx context.Context, userID string) (*models.Profile, error) {
	if !uuidPattern.MatchString(userID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}

	profile, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to get public profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to get public profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	return profile, nil
}

func (s *profileService) Update(ctx context.Context, userID string, fields repository.ProfileWriteFields) error {
	if err := s.repo.Update(ctx, userID, fields); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProfileNotFound
		}
		s.log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to update profile: %w", err)
	}

	s.log.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})

	return nil
}
