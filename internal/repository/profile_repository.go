package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stayko/api/internal/database"
	"github.com/stayko/api/internal/models"
)

// ProfileWriteFields carries the mutable profile columns.
// AvatarURL is applied only when non-nil so a profile edit without a new
// avatar leaves the existing one untouched.
type ProfileWriteFields struct {
	FullName    *string
	PhoneNumber *string
	Address     *string
	AvatarURL   *string
	Social      *models.SocialLinks
}

// ProfileRepository defines the interface for profile data access operations.
type ProfileRepository interface {
	// GetByID returns the profile with social links.
	// Returns nil, nil if no profile is found (not an error).
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// Update rewrites profile columns and upserts social links.
	Update(ctx context.Context, id string, fields ProfileWriteFields) error
}

// profileRepository is the concrete implementation of ProfileRepository.
type profileRepository struct {
	db *database.Database
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *database.Database) ProfileRepository {
	return &profileRepository{
		db: db,
	}
}

// GetByID fetches the profile row joined with its social links.
func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT
			p.id,
			p.full_name,
			p.username,
			p.phone_number,
			p.address,
			p.avatar_url,
			p.created_at,
			p.updated_at,
			s.facebook,
			s.instagram,
			s.tiktok
		FROM profiles p
		LEFT JOIN social_links s ON s.user_id = p.id
		WHERE p.id = $1
	`

	var profile models.Profile
	var facebook, instagram, tiktok *string

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Username,
		&profile.PhoneNumber,
		&profile.Address,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&facebook,
		&instagram,
		&tiktok,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query profile %s: %w", id, err)
	}

	if facebook != nil || instagram != nil || tiktok != nil {
		profile.Social = &models.SocialLinks{
			Facebook:  facebook,
			Instagram: instagram,
			TikTok:    tiktok,
		}
	}

	return &profile, nil
}

// Update rewrites the profile columns and upserts social links in one
// transaction, mirroring the two-table write the product has always done.
func (r *profileRepository) Update(ctx context.Context, id string, fields ProfileWriteFields) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE profiles SET
			full_name = $1,
			phone_number = $2,
			address = COALESCE($3, address),
			avatar_url = COALESCE($4, avatar_url),
			updated_at = NOW()
		WHERE id = $5
	`

	tag, err := tx.Exec(ctx, query,
		fields.FullName,
		fields.PhoneNumber,
		fields.Address,
		fields.AvatarURL,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if fields.Social != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO social_links (user_id, facebook, instagram, tiktok, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				facebook = EXCLUDED.facebook,
				instagram = EXCLUDED.instagram,
				tiktok = EXCLUDED.tiktok,
				updated_at = NOW()
		`, id, fields.Social.Facebook, fields.Social.Instagram, fields.Social.TikTok)
		if err != nil {
			return fmt.Errorf("failed to upsert social links for %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit profile update: %w", err)
	}

	return nil
}
