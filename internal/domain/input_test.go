package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePoint(t *testing.T) {
	g := SurfaceGeometry{OriginX: 50, OriginY: 25, Width: 200, Height: 200}

	nx, ny, ok := NormalizePoint(g, 150, 75)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, nx, 1e-9)
	assert.InDelta(t, 0.25, ny, 1e-9)
}

func TestNormalizePoint_Corners(t *testing.T) {
	g := SurfaceGeometry{OriginX: 10, OriginY: 10, Width: 100, Height: 50}

	nx, ny, ok := NormalizePoint(g, 10, 10)
	assert.True(t, ok)
	assert.Equal(t, 0.0, nx)
	assert.Equal(t, 0.0, ny)

	nx, ny, ok = NormalizePoint(g, 110, 60)
	assert.True(t, ok)
	assert.Equal(t, 1.0, nx)
	assert.Equal(t, 1.0, ny)
}

func TestNormalizePoint_OutsideNotClamped(t *testing.T) {
	g := SurfaceGeometry{OriginX: 0, OriginY: 0, Width: 100, Height: 100}

	nx, ny, ok := NormalizePoint(g, -50, 150)
	assert.True(t, ok)
	assert.Equal(t, -0.5, nx)
	assert.Equal(t, 1.5, ny)
}

func TestNormalizePoint_DegenerateGeometry(t *testing.T) {
	_, _, ok := NormalizePoint(SurfaceGeometry{}, 10, 10)
	assert.False(t, ok)

	_, _, ok = NormalizePoint(SurfaceGeometry{Width: 100}, 10, 10)
	assert.False(t, ok)
}

func TestNormalizeWheel(t *testing.T) {
	g := SurfaceGeometry{OriginX: 0, OriginY: 0, Width: 400, Height: 200}

	ndx, ndy, ok := NormalizeWheel(g, 20, -40)
	assert.True(t, ok)
	assert.InDelta(t, 0.05, ndx, 1e-9)
	assert.InDelta(t, -0.2, ndy, 1e-9)
}

func TestNormalizeWheel_SignPreserved(t *testing.T) {
	g := SurfaceGeometry{Width: 100, Height: 100}

	ndx, ndy, ok := NormalizeWheel(g, -30, 30)
	assert.True(t, ok)
	assert.Less(t, ndx, 0.0)
	assert.Greater(t, ndy, 0.0)
}

func TestNormalizeWheel_LargeSpinExceedsUnit(t *testing.T) {
	g := SurfaceGeometry{Width: 100, Height: 100}

	_, ndy, ok := NormalizeWheel(g, 0, 250)
	assert.True(t, ok)
	assert.Equal(t, 2.5, ndy)
}

func TestSurfaceGeometryContains(t *testing.T) {
	g := SurfaceGeometry{OriginX: 50, OriginY: 25, Width: 200, Height: 200}

	assert.True(t, g.Contains(50, 25))
	assert.True(t, g.Contains(150, 75))
	assert.False(t, g.Contains(250, 75))
	assert.False(t, g.Contains(49, 75))
	assert.False(t, SurfaceGeometry{}.Contains(0, 0))
}
