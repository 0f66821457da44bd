// internal/types/geometry.go
package types

import "math"

// Point is a position in document coordinates.
type Point struct {
	X float64
	Y float64
}

// Size is a measured width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// Box is an axis-aligned bounding box. All boxes handed between components
// share one coordinate space.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Top returns the smallest y of the box.
func (b Box) Top() float64 { return b.Y }

// Bottom returns the largest y of the box.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Left returns the smallest x of the box.
func (b Box) Left() float64 { return b.X }

// Right returns the largest x of the box.
func (b Box) Right() float64 { return b.X + b.Width }

// CenterX returns the horizontal center.
func (b Box) CenterX() float64 { return b.X + b.Width/2 }

// IsEmpty reports whether the box has no area.
func (b Box) IsEmpty() bool { return b.Width <= 0 || b.Height <= 0 }

// Contains reports whether p lies inside the box (edges inclusive).
func (b Box) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() && p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Translate returns the box moved by dx, dy.
func (b Box) Translate(dx, dy float64) Box {
	b.X += dx
	b.Y += dy
	return b
}

// Union returns the smallest box containing every box in boxes.
// The zero Box is returned for an empty slice.
func Union(boxes ...Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range boxes {
		minX = math.Min(minX, b.Left())
		minY = math.Min(minY, b.Top())
		maxX = math.Max(maxX, b.Right())
		maxY = math.Max(maxY, b.Bottom())
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Clamp limits v to [lo, hi]. When hi < lo the lower bound wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
