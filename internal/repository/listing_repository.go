package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stayko/api/internal/database"
	"github.com/stayko/api/internal/models"
)

// ListingWriteFields carries the mutable listing columns for create/update.
// Coordinates stay nullable: a listing without them is simply not plottable.
type ListingWriteFields struct {
	Description    *string
	Price          *float64
	Latitude       *float64
	Longitude      *float64
	AvailableSlots *int
	Title          string
	Address        string
	PropertyType   string
}

// ListingRepository defines the interface for listing data access operations.
type ListingRepository interface {
	// ListAll returns every listing with its image URLs (in display order)
	// and the owner profile snapshot including social links.
	// Returns an empty slice if there are no listings (not an error).
	ListAll(ctx context.Context) ([]models.Listing, error)

	// ListByOwner returns the owner's listings, newest first, with images.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)

	// GetByID returns the listing with the given id.
	// Returns nil, nil if no listing is found (not an error).
	GetByID(ctx context.Context, id string) (*models.Listing, error)

	// Create inserts a listing with status available and its images in order.
	Create(ctx context.Context, ownerID string, fields ListingWriteFields, imageURLs []string) (*models.Listing, error)

	// Update rewrites the listing's columns, scoped to the owning user.
	// When replaceImages is true, the image set is replaced wholesale with
	// imageURLs inside the same transaction.
	Update(ctx context.Context, id, ownerID string, fields ListingWriteFields, imageURLs []string, replaceImages bool) error

	// Delete removes the listing; images go with it via cascade.
	Delete(ctx context.Context, id, ownerID string) error

	// SetStatus updates the availability status, scoped to the owning user.
	SetStatus(ctx context.Context, id, ownerID, status string) error
}

// listingRepository is the concrete implementation of ListingRepository.
type listingRepository struct {
	db *database.Database
}

// NewListingRepository creates a new instance of ListingRepository.
func NewListingRepository(db *database.Database) ListingRepository {
	return &listingRepository{
		db: db,
	}
}

const listingColumns = `
	l.id,
	l.owner_id,
	l.title,
	l.description,
	l.price,
	l.address,
	l.latitude,
	l.longitude,
	l.status,
	l.available_slots,
	l.property_type,
	l.created_at,
	l.updated_at,
	COALESCE(img.urls, '{}')
`

// imageJoin aggregates the listing's image URLs preserving insertion order,
// which is the display order.
const imageJoin = `
	LEFT JOIN LATERAL (
		SELECT array_agg(li.image_url ORDER BY li.position) AS urls
		FROM listing_images li
		WHERE li.listing_id = l.id
	) img ON true
`

// ListAll returns the full visible listing set for the map feed.
// Owner profile and social links ride along in one query so the map
// never needs a second round trip per marker.
func (r *listingRepository) ListAll(ctx context.Context) ([]models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `,
			p.full_name,
			p.phone_number,
			p.avatar_url,
			s.facebook,
			s.instagram,
			s.tiktok
		FROM listings l
		LEFT JOIN profiles p ON p.id = l.owner_id
		LEFT JOIN social_links s ON s.user_id = l.owner_id
		` + imageJoin + `
		ORDER BY l.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var results []models.Listing

	for rows.Next() {
		var listing models.Listing
		var fullName, phoneNumber, avatarURL *string
		var facebook, instagram, tiktok *string

		err := rows.Scan(
			&listing.ID,
			&listing.OwnerID,
			&listing.Title,
			&listing.Description,
			&listing.Price,
			&listing.Address,
			&listing.Latitude,
			&listing.Longitude,
			&listing.Status,
			&listing.AvailableSlots,
			&listing.PropertyType,
			&listing.CreatedAt,
			&listing.UpdatedAt,
			&listing.Images,
			&fullName,
			&phoneNumber,
			&avatarURL,
			&facebook,
			&instagram,
			&tiktok,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}

		owner := &models.OwnerProfile{
			FullName:    fullName,
			PhoneNumber: phoneNumber,
			AvatarURL:   avatarURL,
		}
		if facebook != nil || instagram != nil || tiktok != nil {
			owner.Social = &models.SocialLinks{
				Facebook:  facebook,
				Instagram: instagram,
				TikTok:    tiktok,
			}
		}
		listing.Owner = owner

		results = append(results, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	if results == nil {
		results = []models.Listing{}
	}

	return results, nil
}

// ListByOwner returns the owner's own listings for the management view.
func (r *listingRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		` + imageJoin + `
		WHERE l.owner_id = $1
		ORDER BY l.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var results []models.Listing

	for rows.Next() {
		var listing models.Listing
		if err := scanListing(rows, &listing); err != nil {
			return nil, err
		}
		results = append(results, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	if results == nil {
		results = []models.Listing{}
	}

	return results, nil
}

// GetByID returns a single listing with images, or nil when absent.
func (r *listingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		` + imageJoin + `
		WHERE l.id = $1
	`

	var listing models.Listing
	err := scanListing(r.db.Pool.QueryRow(ctx, query, id), &listing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query listing %s: %w", id, err)
	}

	return &listing, nil
}

// Create inserts the listing and its images in a single transaction so a
// failed image write never leaves a half-created listing behind.
func (r *listingRepository) Create(ctx context.Context, ownerID string, fields ListingWriteFields, imageURLs []string) (*models.Listing, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO listings (
			owner_id, title, description, price, address,
			latitude, longitude, status, available_slots, property_type,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at
	`

	listing := models.Listing{
		OwnerID:        ownerID,
		Title:          fields.Title,
		Description:    fields.Description,
		Price:          fields.Price,
		Address:        fields.Address,
		Latitude:       fields.Latitude,
		Longitude:      fields.Longitude,
		AvailableSlots: fields.AvailableSlots,
		PropertyType:   fields.PropertyType,
	}
	status := models.StatusAvailable
	listing.Status = &status

	err = tx.QueryRow(ctx, query,
		ownerID,
		fields.Title,
		fields.Description,
		fields.Price,
		fields.Address,
		fields.Latitude,
		fields.Longitude,
		status,
		fields.AvailableSlots,
		fields.PropertyType,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert listing: %w", err)
	}

	if err := insertImages(ctx, tx, listing.ID, imageURLs); err != nil {
		return nil, err
	}
	listing.Images = append([]string{}, imageURLs...)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit listing insert: %w", err)
	}

	return &listing, nil
}

// Update rewrites the listing columns and, when requested, replaces the
// image set wholesale. The WHERE clause keeps the write owner-scoped even
// though the service has already verified ownership.
func (r *listingRepository) Update(ctx context.Context, id, ownerID string, fields ListingWriteFields, imageURLs []string, replaceImages bool) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE listings SET
			title = $1,
			description = $2,
			price = $3,
			address = $4,
			latitude = $5,
			longitude = $6,
			available_slots = $7,
			property_type = $8,
			updated_at = NOW()
		WHERE id = $9 AND owner_id = $10
	`

	tag, err := tx.Exec(ctx, query,
		fields.Title,
		fields.Description,
		fields.Price,
		fields.Address,
		fields.Latitude,
		fields.Longitude,
		fields.AvailableSlots,
		fields.PropertyType,
		id,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if replaceImages {
		if _, err := tx.Exec(ctx, `DELETE FROM listing_images WHERE listing_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear images for listing %s: %w", id, err)
		}
		if err := insertImages(ctx, tx, id, imageURLs); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit listing update: %w", err)
	}

	return nil
}

// Delete removes the listing row; listing_images cascades.
func (r *listingRepository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM listings WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetStatus flips the availability status.
func (r *listingRepository) SetStatus(ctx context.Context, id, ownerID, status string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE listings SET status = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, status, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update status for listing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// insertImages writes image URLs with their positions preserving order.
func insertImages(ctx context.Context, tx pgx.Tx, listingID string, imageURLs []string) error {
	for i, url := range imageURLs {
		_, err := tx.Exec(ctx, `
			INSERT INTO listing_images (listing_id, image_url, position)
			VALUES ($1, $2, $3)
		`, listingID, url, i)
		if err != nil {
			return fmt.Errorf("failed to insert image %d for listing %s: %w", i, listingID, err)
		}
	}
	return nil
}

// scanListing scans the shared listing column set from a row.
func scanListing(row pgx.Row, listing *models.Listing) error {
	err := row.Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&listing.Address,
		&listing.Latitude,
		&listing.Longitude,
		&listing.Status,
		&listing.AvailableSlots,
		&listing.PropertyType,
		&listing.CreatedAt,
		&listing.UpdatedAt,
		&listing.Images,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("failed to scan listing row: %w", err)
	}
	return nil
}
