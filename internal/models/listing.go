package models

import (
	"time"
)

// Listing status values. A NULL status is treated as available for marker
// coloring; it is never rewritten in storage.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
)

// PropertyTypes is the fixed set of categories the UI constrains listings to.
// The column itself is free text; "All" is a filter-only pseudo-category.
var PropertyTypes = []string{
	"Boarding House",
	"House for rent",
	"House and lot for sale",
	"Lot for sale",
}

// Listing represents a property listing with location, pricing and media.
// All nullable fields use pointers to distinguish between zero values and NULL.
type Listing struct {
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Description    *string       `json:"description,omitempty"`
	Price          *float64      `json:"price,omitempty"`
	Latitude       *float64      `json:"latitude,omitempty"`
	Longitude      *float64      `json:"longitude,omitempty"`
	Status         *string       `json:"status,omitempty"`
	AvailableSlots *int          `json:"availableSlots,omitempty"`
	Owner          *OwnerProfile `json:"owner,omitempty"`
	ID             string        `json:"id"`
	OwnerID        string        `json:"ownerId"`
	Title          string        `json:"title"`
	Address        string        `json:"address"`
	PropertyType   string        `json:"propertyType"`
	Images         []string      `json:"images"`
}

// Plottable reports whether the listing can be placed on the map.
// A listing with either coordinate missing is excluded from marker
// rendering and from route-fetch eligibility.
func (l *Listing) Plottable() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Coordinates returns the listing position as a lon/lat point.
// Only valid when Plottable reports true.
func (l *Listing) Coordinates() Point {
	return NewPoint(*l.Longitude, *l.Latitude)
}

// DisplayStatus resolves the stored status for marker coloring,
// defaulting to available when the column is NULL.
func (l *Listing) DisplayStatus() string {
	if l.Status == nil {
		return StatusAvailable
	}
	return *l.Status
}

// OwnerProfile is the public owner snapshot embedded in listing reads.
type OwnerProfile struct {
	FullName    *string      `json:"fullName,omitempty"`
	PhoneNumber *string      `json:"phoneNumber,omitempty"`
	AvatarURL   *string      `json:"avatarUrl,omitempty"`
	Social      *SocialLinks `json:"social,omitempty"`
}

// SocialLinks holds optional social media handles for a profile.
type SocialLinks struct {
	Facebook  *string `json:"facebook,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	TikTok    *string `json:"tiktok,omitempty"`
}

// HasAny reports whether at least one handle is present.
func (s *SocialLinks) HasAny() bool {
	if s == nil {
		return false
	}
	return s.Facebook != nil || s.Instagram != nil || s.TikTok != nil
}
