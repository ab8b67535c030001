package domain

import (
	"image"
	"time"
)

// Frame is one decoded display frame from the backend. Bytes holds the
// original encoded payload so consumers that re-encode (journals,
// recorders) do not pay for a second compression pass. Generation ties
// the frame to the session generation whose stream produced it.
type Frame struct {
	Image      image.Image
	Format     string
	Bytes      []byte
	ReceivedAt time.Time
	Generation uint64
}

// Size returns the pixel dimensions of the decoded image.
func (f *Frame) Size() (w, h int) {
	if f == nil || f.Image == nil {
		return 0, 0
	}
	b := f.Image.Bounds()
	return b.Dx(), b.Dy()
}
