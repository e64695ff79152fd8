package mapview

import (
	"github.com/stayko/api/internal/models"
)

// Map style keys. URLs are opaque to the server; the default style has none.
const (
	StyleDefault = "default"
	StyleStreet  = "openstreetmap"
	Style3D      = "openstreetmap3d"
)

// StyleURLs maps non-default style keys to their tile style URLs.
var StyleURLs = map[string]string{
	StyleStreet: "https://tiles.openfreemap.org/styles/bright",
	Style3D:     "https://tiles.openfreemap.org/styles/liberty",
}

// Camera animation constants. Zoom levels and durations match the product's
// tuned values: a slow multi-second fly to the user on first fix, a shorter
// street-level fly on selection, a quick pitch ease on style change.
const (
	UserZoom            = 15
	UserFlyDurationMs   = 2000
	ListingZoom         = 16
	ListingFlyDuration  = 1500
	TiltedPitch         = 60
	PitchEaseDurationMs = 500
)

// Default camera before any geolocation fix arrives.
var (
	DefaultCenter = models.NewPoint(-0.1276, 51.5074)
)

const DefaultZoom = 14

// Camera command kinds.
const (
	CameraFlyTo  = "flyTo"
	CameraEaseTo = "easeTo"
)

// CameraCommand is an imperative camera animation for the map client.
type CameraCommand struct {
	Center     *models.Point `json:"center,omitempty"`
	Zoom       *float64      `json:"zoom,omitempty"`
	Pitch      *float64      `json:"pitch,omitempty"`
	Kind       string        `json:"kind"`
	DurationMs int           `json:"durationMs"`
}

// Viewport owns the map camera state and queues imperative camera commands.
// Commands accumulate until drained by a snapshot read.
type Viewport struct {
	pending []CameraCommand
	Center  models.Point
	Zoom    float64
	Pitch   float64
}

// NewViewport returns a viewport at the default camera.
func NewViewport() Viewport {
	return Viewport{
		Center: DefaultCenter,
		Zoom:   DefaultZoom,
	}
}

// FlyTo moves the camera center and zoom with an animated transition.
func (v *Viewport) FlyTo(center models.Point, zoom float64, durationMs int) {
	v.Center = center
	v.Zoom = zoom
	z := zoom
	c := center
	v.pending = append(v.pending, CameraCommand{
		Kind:       CameraFlyTo,
		Center:     &c,
		Zoom:       &z,
		DurationMs: durationMs,
	})
}

// EaseTo tilts the camera pitch without touching center or zoom.
func (v *Viewport) EaseTo(pitch float64, durationMs int) {
	v.Pitch = pitch
	p := pitch
	v.pending = append(v.pending, CameraCommand{
		Kind:       CameraEaseTo,
		Pitch:      &p,
		DurationMs: durationMs,
	})
}

// DrainCommands returns the queued camera commands and clears the queue.
func (v *Viewport) DrainCommands() []CameraCommand {
	cmds := v.pending
	v.pending = nil
	if cmds == nil {
		cmds = []CameraCommand{}
	}
	return cmds
}
