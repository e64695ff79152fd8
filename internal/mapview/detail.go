package mapview

import (
	"time"
)

// copyAckDuration is how long the "copied" acknowledgment stays visible
// after copying the owner's phone number.
const copyAckDuration = 2 * time.Second

// DetailPanel holds the presentation state of the open listing's detail
// card: the image carousel position, the lightbox toggle, and the transient
// phone-copy acknowledgment.
type DetailPanel struct {
	CurrentImageIndex int  `json:"currentImageIndex"`
	IsMaximized       bool `json:"isMaximized"`
	PhoneCopied       bool `json:"phoneCopied"`

	copyGen int
}

// Reset returns the panel to its initial state. Called whenever a different
// listing is opened.
func (p *DetailPanel) Reset() {
	p.CurrentImageIndex = 0
	p.IsMaximized = false
	p.PhoneCopied = false
	p.copyGen++
}

// NextImage advances the carousel, wrapping to the first image past the end.
// No-op when there is at most one image; the controls are hidden then.
func (p *DetailPanel) NextImage(imageCount int) {
	if imageCount <= 1 {
		return
	}
	if p.CurrentImageIndex == imageCount-1 {
		p.CurrentImageIndex = 0
		return
	}
	p.CurrentImageIndex++
}

// PreviousImage steps the carousel back, wrapping to the last image from
// the first. No-op when there is at most one image.
func (p *DetailPanel) PreviousImage(imageCount int) {
	if imageCount <= 1 {
		return
	}
	if p.CurrentImageIndex == 0 {
		p.CurrentImageIndex = imageCount - 1
		return
	}
	p.CurrentImageIndex--
}

// SetMaximized toggles the lightbox overlay.
func (p *DetailPanel) SetMaximized(maximized bool) {
	p.IsMaximized = maximized
}

// markPhoneCopied flips the acknowledgment on and returns the generation
// to pass to clearPhoneCopied when the acknowledgment window ends. Copying
// again within the window restarts it: the older revert becomes stale.
func (p *DetailPanel) markPhoneCopied() int {
	p.PhoneCopied = true
	p.copyGen++
	return p.copyGen
}

// clearPhoneCopied reverts the acknowledgment, unless a newer copy or a
// panel reset superseded the given generation.
func (p *DetailPanel) clearPhoneCopied(gen int) {
	if gen != p.copyGen {
		return
	}
	p.PhoneCopied = false
}
