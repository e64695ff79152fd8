package mapview

import (
	"github.com/stayko/api/internal/models"
)

// UserMarker is the distinctly styled marker for the user's own position.
type UserMarker struct {
	Position models.Point `json:"position"`
}

// ListingMarker is one price-tagged property marker. StopPropagation tells
// the client to swallow the click so the map beneath never sees it.
type ListingMarker struct {
	ListingID       string       `json:"listingId"`
	Title           string       `json:"title"`
	Price           *float64     `json:"price,omitempty"`
	Status          string       `json:"status"`
	Position        models.Point `json:"position"`
	Selected        bool         `json:"selected"`
	StopPropagation bool         `json:"stopPropagation"`
}

// RouteLine is the route polyline overlay.
type RouteLine struct {
	Polyline models.LineString `json:"polyline"`
}

// RouteBadge is the floating distance/duration readout with its clear
// control.
type RouteBadge struct {
	DistanceLabel string `json:"distanceLabel"`
	DurationLabel string `json:"durationLabel"`
	CanClear      bool   `json:"canClear"`
}

// Scene is everything the map renders for one session: the user marker,
// the filtered listing markers, and the route overlay when one is live.
type Scene struct {
	UserMarker *UserMarker     `json:"userMarker,omitempty"`
	Markers    []ListingMarker `json:"markers"`
	RouteLine  *RouteLine      `json:"routeLine,omitempty"`
	RouteBadge *RouteBadge     `json:"routeBadge,omitempty"`
}

// SelectedDetail is the open listing's detail panel payload.
type SelectedDetail struct {
	Listing models.Listing `json:"listing"`
	Panel   DetailPanel    `json:"panel"`
}

// ViewportState is the camera snapshot plus any pending animation commands.
type ViewportState struct {
	Center   models.Point    `json:"center"`
	Zoom     float64         `json:"zoom"`
	Pitch    float64         `json:"pitch"`
	Style    string          `json:"style"`
	StyleURL string          `json:"styleUrl,omitempty"`
	Camera   []CameraCommand `json:"camera"`
}

// Snapshot is the full renderable state of a session at one instant.
type Snapshot struct {
	SessionID    string          `json:"sessionId"`
	Scene        Scene           `json:"scene"`
	Viewport     ViewportState   `json:"viewport"`
	Filter       FilterState     `json:"filter"`
	RouteLoading bool            `json:"routeLoading"`
	Selected     *SelectedDetail `json:"selected,omitempty"`
}

// buildScene projects session state into the renderable scene. Markers come
// from the filtered listing set; listings without both coordinates are
// skipped entirely. The route overlay renders whenever a route is live,
// regardless of whether its listing is still selected or visible.
func buildScene(visible []models.Listing, userPosition *models.Point, selected *models.Listing, route *RouteResult) Scene {
	scene := Scene{Markers: make([]ListingMarker, 0, len(visible))}

	if userPosition != nil {
		scene.UserMarker = &UserMarker{Position: *userPosition}
	}

	for i := range visible {
		listing := &visible[i]
		if !listing.Plottable() {
			continue
		}
		scene.Markers = append(scene.Markers, ListingMarker{
			ListingID:       listing.ID,
			Title:           listing.Title,
			Price:           listing.Price,
			Status:          listing.DisplayStatus(),
			Position:        listing.Coordinates(),
			Selected:        selected != nil && selected.ID == listing.ID,
			StopPropagation: true,
		})
	}

	if route != nil {
		scene.RouteLine = &RouteLine{Polyline: route.Polyline}
		scene.RouteBadge = &RouteBadge{
			DistanceLabel: route.DistanceLabel,
			DurationLabel: route.DurationLabel,
			CanClear:      true,
		}
	}

	return scene
}

// Snapshot assembles the renderable state and drains the queued camera
// commands. Each queued animation is therefore delivered exactly once.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := VisibleListings(s.listings, s.filter)

	snap := Snapshot{
		SessionID: s.id,
		Scene:     buildScene(visible, s.userPosition, s.selected, s.route),
		Viewport: ViewportState{
			Center:   s.viewport.Center,
			Zoom:     s.viewport.Zoom,
			Pitch:    s.viewport.Pitch,
			Style:    s.style,
			StyleURL: StyleURLs[s.style],
			Camera:   s.viewport.DrainCommands(),
		},
		Filter:       s.filter,
		RouteLoading: s.routeLoading,
	}

	if s.selected != nil {
		snap.Selected = &SelectedDetail{
			Listing: *s.selected,
			Panel:   s.panel,
		}
	}

	return snap
}
