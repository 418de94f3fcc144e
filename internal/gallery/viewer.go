// Package gallery implements the public portfolio grid: which images are
// shown, how many are revealed, and lightbox navigation between them.
package gallery

import "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"

// InitialVisible is the number of images shown before "show more".
const InitialVisible = 8

// Viewer is the state of one rendering of the gallery. It is not safe for
// concurrent use; handlers build one per request.
type Viewer struct {
	display     []domain.GalleryImage
	placeholder bool
	selected    int
	visible     int
}

// NewViewer displays fetched, or the placeholder portfolio in its entirety
// when fetched is empty.
func NewViewer(fetched []domain.GalleryImage) *Viewer {
	v := &Viewer{selected: -1, visible: InitialVisible}
	if len(fetched) > 0 {
		v.display = append([]domain.GalleryImage(nil), fetched...)
	} else {
		v.display = Placeholders()
		v.placeholder = true
	}
	return v
}

// Len is the size of the display list.
func (v *Viewer) Len() int { return len(v.display) }

// IsPlaceholder reports whether the sample portfolio is being shown.
func (v *Viewer) IsPlaceholder() bool { return v.placeholder }

// Images returns the full display list.
func (v *Viewer) Images() []domain.GalleryImage {
	return append([]domain.GalleryImage(nil), v.display...)
}

// Open selects index i. Out-of-range indexes leave the viewer unchanged.
func (v *Viewer) Open(i int) bool {
	if i < 0 || i >= len(v.display) {
		return false
	}
	v.selected = i
	return true
}

// Close clears the selection.
func (v *Viewer) Close() { v.selected = -1 }

// Next moves to the following image, wrapping to the first.
func (v *Viewer) Next() {
	if v.selected < 0 {
		return
	}
	v.selected = (v.selected + 1) % len(v.display)
}

// Previous moves to the preceding image, wrapping to the last.
func (v *Viewer) Previous() {
	if v.selected < 0 {
		return
	}
	n := len(v.display)
	v.selected = (v.selected - 1 + n) % n
}

// Selected returns the open image and its index.
func (v *Viewer) Selected() (domain.GalleryImage, int, bool) {
	if v.selected < 0 {
		return domain.GalleryImage{}, -1, false
	}
	return v.display[v.selected], v.selected, true
}

// Neighbours returns the indexes Previous and Next would select, without
// moving. ok is false when nothing is open.
func (v *Viewer) Neighbours() (prev, next int, ok bool) {
	if v.selected < 0 {
		return -1, -1, false
	}
	n := len(v.display)
	return (v.selected - 1 + n) % n, (v.selected + 1) % n, true
}

// RevealMore shows the whole display list. Calling it again has no effect.
func (v *Viewer) RevealMore() { v.visible = len(v.display) }

// Visible returns the images currently revealed in the grid. Navigation is
// not limited to this slice.
func (v *Viewer) Visible() []domain.GalleryImage {
	n := v.visible
	if n > len(v.display) {
		n = len(v.display)
	}
	return append([]domain.GalleryImage(nil), v.display[:n]...)
}

// HasMore reports whether images remain hidden behind "show more".
func (v *Viewer) HasMore() bool { return v.visible < len(v.display) }
