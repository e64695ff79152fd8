package models

import (
	"time"
)

// Profile represents a user profile row.
// Nullable columns use pointers, matching the listing model.
type Profile struct {
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	FullName    *string      `json:"fullName,omitempty"`
	Username    *string      `json:"username,omitempty"`
	PhoneNumber *string      `json:"phoneNumber,omitempty"`
	Address     *string      `json:"address,omitempty"`
	AvatarURL   *string      `json:"avatarUrl,omitempty"`
	Social      *SocialLinks `json:"social,omitempty"`
	ID          string       `json:"id"`
}

// OwnerSnapshot projects the profile into the form embedded in listings.
func (p *Profile) OwnerSnapshot() *OwnerProfile {
	if p == nil {
		return nil
	}
	return &OwnerProfile{
		FullName:    p.FullName,
		PhoneNumber: p.PhoneNumber,
		AvatarURL:   p.AvatarURL,
		Social:      p.Social,
	}
}
