package domain

// SurfaceGeometry describes where the page surface currently sits inside
// the host view, in host units (terminal cells, pixels, whatever the host
// measures in). Normalization only needs the mapping, not the unit.
type SurfaceGeometry struct {
	OriginX float64
	OriginY float64
	Width   float64
	Height  float64
}

// Valid reports whether the geometry can be used for normalization.
func (g SurfaceGeometry) Valid() bool {
	return g.Width > 0 && g.Height > 0
}

// Contains reports whether a host-space point falls inside the surface.
func (g SurfaceGeometry) Contains(x, y float64) bool {
	return g.Valid() &&
		x >= g.OriginX && x < g.OriginX+g.Width &&
		y >= g.OriginY && y < g.OriginY+g.Height
}

// InputKind identifies a raw interaction from the host view.
type InputKind int

const (
	InputPointerMove InputKind = iota
	InputClick
	InputWheel
	InputKeyDown
	InputKeyUp
)

func (k InputKind) String() string {
	switch k {
	case InputPointerMove:
		return "pointer_move"
	case InputClick:
		return "click"
	case InputWheel:
		return "wheel"
	case InputKeyDown:
		return "key_down"
	case InputKeyUp:
		return "key_up"
	default:
		return "unknown"
	}
}

// InputEvent is a raw interaction in host coordinates. Pointer kinds use
// X/Y, wheel uses DX/DY, key kinds use Key.
type InputEvent struct {
	Kind   InputKind
	X, Y   float64
	DX, DY float64
	Key    string
}

// NormalizePoint maps a host-space point to the unit square relative to
// the given surface. The result is not clamped: callers decide whether
// out-of-range values mean "discard" or "pass through".
func NormalizePoint(g SurfaceGeometry, x, y float64) (nx, ny float64, ok bool) {
	if !g.Valid() {
		return 0, 0, false
	}
	return (x - g.OriginX) / g.Width, (y - g.OriginY) / g.Height, true
}

// NormalizeWheel maps host-space wheel deltas to fractions of the surface
// size. Sign is preserved; magnitudes may exceed 1 for large spins.
func NormalizeWheel(g SurfaceGeometry, dx, dy float64) (ndx, ndy float64, ok bool) {
	if !g.Valid() {
		return 0, 0, false
	}
	return dx / g.Width, dy / g.Height, true
}
