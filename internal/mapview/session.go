// Package mapview implements the map discovery and routing interaction
// layer: per-session state for listings, filters, selection, the user
// position, the camera, and the route fetch/cache lifecycle. All state is
// owned by a Session and mutated only through its methods; renderers and
// panels read snapshots, they never write.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stayko/api/internal/geo"
	"github.com/stayko/api/internal/logger"
	"github.com/stayko/api/internal/models"
)

// ErrListingNotInSession is returned when selecting an id the session's
// listing snapshot does not contain.
var ErrListingNotInSession = errors.New("listing not in session")

// routeFetchTimeout bounds a background route fetch. The originating HTTP
// request does not cancel it; only result application is guarded.
const routeFetchTimeout = 15 * time.Second

// RouteResult is the single live route computation. It belongs to exactly
// one listing at a time and survives selection changes until the user
// clears it or a route for a different listing replaces it.
type RouteResult struct {
	Polyline            models.LineString `json:"polyline"`
	DistanceLabel       string            `json:"distanceLabel"`
	DurationLabel       string            `json:"durationLabel"`
	AssociatedListingID string            `json:"associatedListingId"`
}

// Session is one user's map interaction state. A session is created per
// page load, carries a one-shot listing snapshot, and is destroyed on
// navigation away.
type Session struct {
	mu sync.Mutex

	id     string
	log    *logger.Logger
	routes geo.RouteService

	listings     []models.Listing
	filter       FilterState
	userPosition *models.Point
	selected     *models.Listing
	route        *RouteResult
	routeLoading bool
	viewport     Viewport
	style        string
	panel        DetailPanel
	createdAt    time.Time
	lastSeen     time.Time

	// selectionGen increments whenever the route-fetch inputs change.
	// A resolving fetch applies its result only when its captured
	// generation is still current, so a late response for a stale
	// selection can never stomp a newer route.
	selectionGen uint64

	copyAckDelay time.Duration
}

// newSession builds a session over a listing snapshot.
func newSession(listings []models.Listing, routes geo.RouteService, log *logger.Logger) *Session {
	now := time.Now()
	return &Session{
		id:           uuid.New().String(),
		log:          log,
		routes:       routes,
		listings:     listings,
		filter:       NewFilterState(),
		viewport:     NewViewport(),
		style:        StyleDefault,
		createdAt:    now,
		lastSeen:     now,
		copyAckDelay: copyAckDuration,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// touch records an interaction for idle-eviction purposes.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports how long the session has gone without an interaction.
func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SetUserPosition records the one-shot geolocation fix. The first fix flies
// the camera to the user; any fix re-evaluates route eligibility since the
// origin changed.
func (s *Session) SetUserPosition(position models.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := s.userPosition == nil
	p := position
	s.userPosition = &p
	s.selectionGen++

	if first {
		s.viewport.FlyTo(position, UserZoom, UserFlyDurationMs)
	}

	s.evaluateRouteFetchLocked()
}

// SetFilter replaces the discovery filters. Filtering never moves the
// camera and never touches selection or the route.
func (s *Session) SetFilter(filter FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter.PropertyType == "" {
		filter.PropertyType = FilterTypeAll
	}
	s.filter = filter
}

// SetStyle switches the map style. Entering the 3D style eases the pitch
// up; leaving it eases back to flat. Center and zoom never move on a style
// change.
func (s *Session) SetStyle(style string) error {
	if style != StyleDefault && style != StyleStreet && style != Style3D {
		return fmt.Errorf("unknown map style %q", style)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	was3D := s.style == Style3D
	s.style = style
	is3D := style == Style3D

	if is3D && !was3D {
		s.viewport.EaseTo(TiltedPitch, PitchEaseDurationMs)
	} else if !is3D && was3D {
		s.viewport.EaseTo(0, PitchEaseDurationMs)
	}

	return nil
}

// Select opens a listing from a marker or list-item click. It resets the
// detail panel, flies the camera to the listing when plottable, and
// triggers route-fetch evaluation.
func (s *Session) Select(listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *models.Listing
	for i := range s.listings {
		if s.listings[i].ID == listingID {
			target = &s.listings[i]
			break
		}
	}
	if target == nil {
		return ErrListingNotInSession
	}

	changed := s.selected == nil || s.selected.ID != target.ID
	s.selected = target
	s.selectionGen++

	if changed {
		s.panel.Reset()
	}

	if target.Plottable() {
		s.viewport.FlyTo(target.Coordinates(), ListingZoom, ListingFlyDuration)
	}

	s.evaluateRouteFetchLocked()
	return nil
}

// Close dismisses the detail panel. The route, its labels, and the map
// line stay as they are; only ClearRoute removes them.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = nil
	s.panel.Reset()
}

// ClearRoute is the explicit user action that removes the route polyline
// and its distance/duration labels. Independent of selection state.
func (s *Session) ClearRoute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.route = nil
}

// evaluateRouteFetchLocked runs whenever selection or the user position
// changes. A fetch is attempted only when a selection exists, a user
// position exists, and the selected listing is plottable. An existing
// route for the same listing is treated as fresh and skips the fetch.
// The loading flag is true exactly while the newest fetch is in flight:
// every caller bumps selectionGen first, so when no new fetch launches
// here any pending fetch is already stale and the flag must drop.
func (s *Session) evaluateRouteFetchLocked() {
	if s.selected == nil || s.userPosition == nil || !s.selected.Plottable() {
		s.routeLoading = false
		return
	}

	if s.route != nil && s.route.AssociatedListingID == s.selected.ID {
		s.routeLoading = false
		return
	}

	origin := *s.userPosition
	destination := s.selected.Coordinates()
	listingID := s.selected.ID
	gen := s.selectionGen

	s.routeLoading = true

	go s.fetchRoute(gen, listingID, origin, destination)
}

// fetchRoute performs one asynchronous route request and applies the result
// atomically. A result whose generation is stale is dropped entirely; a
// failed fetch leaves any previous route untouched and is not retried.
func (s *Session) fetchRoute(gen uint64, listingID string, origin, destination models.Point) {
	ctx, cancel := context.WithTimeout(context.Background(), routeFetchTimeout)
	defer cancel()

	route, err := s.routes.Route(ctx, origin, destination)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.selectionGen {
		s.log.Debug("Dropping stale route response", map[string]interface{}{
			"session_id": s.id,
			"listing_id": listingID,
		})
		return
	}

	s.routeLoading = false

	if err != nil {
		// Routing is best-effort: the feature silently stays unavailable.
		s.log.Warn("Route fetch failed", map[string]interface{}{
			"session_id": s.id,
			"listing_id": listingID,
			"error":      err.Error(),
		})
		return
	}

	s.route = &RouteResult{
		Polyline:            route.Geometry,
		DistanceLabel:       formatDistanceLabel(route.DistanceMeters),
		DurationLabel:       formatDurationLabel(route.DurationSeconds),
		AssociatedListingID: listingID,
	}

	s.log.Debug("Route applied", map[string]interface{}{
		"session_id": s.id,
		"listing_id": listingID,
		"distance":   s.route.DistanceLabel,
		"duration":   s.route.DurationLabel,
	})
}

// NextImage advances the open listing's carousel.
func (s *Session) NextImage() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return
	}
	s.panel.NextImage(len(s.selected.Images))
}

// PreviousImage steps the open listing's carousel back.
func (s *Session) PreviousImage() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return
	}
	s.panel.PreviousImage(len(s.selected.Images))
}

// SetMaximized toggles the lightbox for the open listing.
func (s *Session) SetMaximized(maximized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return
	}
	s.panel.SetMaximized(maximized)
}

// CopyPhone returns the owner's phone number for the clipboard and shows a
// transient acknowledgment that auto-reverts after two seconds. Returns an
// empty string when no selection or no phone number exists.
func (s *Session) CopyPhone() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil || s.selected.Owner == nil || s.selected.Owner.PhoneNumber == nil {
		return ""
	}

	phone := *s.selected.Owner.PhoneNumber
	gen := s.panel.markPhoneCopied()

	time.AfterFunc(s.copyAckDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.panel.clearPhoneCopied(gen)
	})

	return phone
}

// formatDistanceLabel renders meters as kilometers with one decimal place.
func formatDistanceLabel(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}

// formatDurationLabel renders seconds as whole minutes.
func formatDurationLabel(seconds float64) string {
	return fmt.Sprintf("%d min", int(math.Round(seconds/60)))
}
