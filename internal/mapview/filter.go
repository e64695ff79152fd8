package mapview

import (
	"strings"

	"github.com/stayko/api/internal/models"
)

// FilterTypeAll matches every property type.
const FilterTypeAll = "All"

// FilterState holds the ephemeral discovery filters. Price bounds use
// pointers so "no bound" and "bound of zero" stay distinct. State is
// process-local and reset only by explicit user action.
type FilterState struct {
	MinPrice     *float64 `json:"minPrice,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	SearchText   string   `json:"searchText"`
	PropertyType string   `json:"propertyType"`
}

// NewFilterState returns the neutral filter that matches everything.
func NewFilterState() FilterState {
	return FilterState{PropertyType: FilterTypeAll}
}

// VisibleListings reduces the listing set to those matching the filter.
// Pure and order-preserving: the result is a stable subsequence of all.
// Clauses are AND-ed; see Matches for the per-listing predicate.
func VisibleListings(all []models.Listing, filter FilterState) []models.Listing {
	visible := make([]models.Listing, 0, len(all))
	for _, listing := range all {
		if filter.Matches(&listing) {
			visible = append(visible, listing)
		}
	}
	return visible
}

// Matches applies the filter predicate to a single listing:
//   - case-insensitive substring of the search text in title or address
//     (empty search always matches),
//   - property type equality unless the filter is "All",
//   - price within any active bounds. A listing with no price fails any
//     active bound but passes when no bound is set.
func (f FilterState) Matches(listing *models.Listing) bool {
	if f.SearchText != "" {
		needle := strings.ToLower(f.SearchText)
		title := strings.ToLower(listing.Title)
		address := strings.ToLower(listing.Address)
		if !strings.Contains(title, needle) && !strings.Contains(address, needle) {
			return false
		}
	}

	if f.PropertyType != "" && f.PropertyType != FilterTypeAll {
		if listing.PropertyType != f.PropertyType {
			return false
		}
	}

	if f.MinPrice != nil {
		if listing.Price == nil || *listing.Price < *f.MinPrice {
			return false
		}
	}
	if f.MaxPrice != nil {
		if listing.Price == nil || *listing.Price > *f.MaxPrice {
			return false
		}
	}

	return true
}
