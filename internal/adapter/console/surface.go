package console

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	"webrelay/internal/domain"
)

// Surface is the live frame display area. It renders the latest frame as
// half-block cells (two pixels per terminal cell) and doubles as the
// relay's GeometryProvider: its reported bounds are the content box the
// scaled image actually occupies, in terminal cells, recomputed on every
// render so they track frame dimension changes.
type Surface struct {
	mu sync.Mutex

	// Viewport box assigned by layout, in absolute terminal cells.
	viewX, viewY, viewW, viewH int

	// Content box of the fitted image within the viewport.
	content domain.SurfaceGeometry

	// Render cache, invalidated when frame or viewport changes.
	cachedFrame *domain.Frame
	cachedW     int
	cachedH     int
	cached      string
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// SetViewport assigns the surface's box in absolute terminal cells.
func (s *Surface) SetViewport(x, y, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewX, s.viewY, s.viewW, s.viewH = x, y, w, h
}

// SurfaceGeometry implements relay.GeometryProvider. Zero geometry is
// returned until a frame has been rendered; the dispatcher discards
// events against it.
func (s *Surface) SurfaceGeometry() domain.SurfaceGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Contains reports whether an absolute cell position falls inside the
// surface's viewport box.
func (s *Surface) Contains(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return x >= s.viewX && x < s.viewX+s.viewW && y >= s.viewY && y < s.viewY+s.viewH
}

// Render returns the surface view for frame, sized to the current
// viewport. Passing the same frame and viewport returns the cached
// string; a nil frame renders a placeholder.
func (s *Surface) Render(frame *domain.Frame) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.viewW <= 0 || s.viewH <= 0 {
		return ""
	}
	if frame == nil || frame.Image == nil {
		s.content = domain.SurfaceGeometry{}
		return placeholder(s.viewW, s.viewH)
	}
	if frame == s.cachedFrame && s.viewW == s.cachedW && s.viewH == s.cachedH {
		return s.cached
	}

	view, content := renderFrame(frame.Image, s.viewX, s.viewY, s.viewW, s.viewH)
	s.cachedFrame = frame
	s.cachedW, s.cachedH = s.viewW, s.viewH
	s.cached = view
	s.content = content
	return view
}

// renderFrame scales img to fit cols×rows cells (each cell two pixels
// tall), centers it, and paints it with upper-half-block glyphs and
// 24-bit color. Returns the view and the fitted content box.
func renderFrame(img image.Image, viewX, viewY, cols, rows int) (string, domain.SurfaceGeometry) {
	b := img.Bounds()
	iw, ih := b.Dx(), b.Dy()
	if iw == 0 || ih == 0 {
		return placeholder(cols, rows), domain.SurfaceGeometry{}
	}

	// Fit in pixel space: each cell is one pixel wide, two tall.
	pw, ph := cols, rows*2
	scale := min(float64(pw)/float64(iw), float64(ph)/float64(ih))
	fw := max(1, int(float64(iw)*scale))
	fh := max(2, int(float64(ih)*scale))
	fitCols := fw
	fitRows := fh / 2
	fh = fitRows * 2

	scaled := image.NewRGBA(image.Rect(0, 0, fw, fh))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	padX := (cols - fitCols) / 2
	padY := (rows - fitRows) / 2

	var sb strings.Builder
	blank := strings.Repeat(" ", cols)
	for y := 0; y < padY; y++ {
		sb.WriteString(blank)
		sb.WriteByte('\n')
	}
	left := strings.Repeat(" ", padX)
	right := strings.Repeat(" ", cols-padX-fitCols)
	for row := 0; row < fitRows; row++ {
		sb.WriteString(left)
		for x := 0; x < fitCols; x++ {
			tr, tg, tb2, _ := scaled.At(x, row*2).RGBA()
			br, bg, bb, _ := scaled.At(x, row*2+1).RGBA()
			fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				tr>>8, tg>>8, tb2>>8, br>>8, bg>>8, bb>>8)
		}
		sb.WriteString("\x1b[0m")
		sb.WriteString(right)
		if row < fitRows-1 || padY+fitRows < rows {
			sb.WriteByte('\n')
		}
	}
	for y := padY + fitRows; y < rows; y++ {
		sb.WriteString(blank)
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}

	content := domain.SurfaceGeometry{
		OriginX: float64(viewX + padX),
		OriginY: float64(viewY + padY),
		Width:   float64(fitCols),
		Height:  float64(fitRows),
	}
	return sb.String(), content
}

func placeholder(cols, rows int) string {
	lines := make([]string, rows)
	blank := strings.Repeat(" ", cols)
	for i := range lines {
		lines[i] = blank
	}
	msg := "no frame"
	if cols > len(msg) && rows > 0 {
		pad := (cols - len(msg)) / 2
		lines[rows/2] = blank[:pad] + msg + blank[:cols-pad-len(msg)]
	}
	return strings.Join(lines, "\n")
}
