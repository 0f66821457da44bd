package toolbar

import "github.com/bethropolis/infograph/internal/types"

// DefaultMargin is the gap between the selection and the toolbar.
const DefaultMargin = 8

// Place positions a toolbar of size t around the selection bounds b. The
// toolbar goes above when there is room for it there or when there is at
// least as much room above as below, otherwise below. The result is clamped
// into extent, the box of the coordinate space hosting the toolbar.
func Place(b types.Box, t types.Size, extent types.Box, margin float64) (types.Point, bool) {
	anchorTopY := b.Top()
	anchorBottomY := b.Bottom()
	anchorX := b.CenterX()

	spaceAbove := anchorTopY - extent.Top() - margin
	spaceBelow := extent.Bottom() - anchorBottomY - margin
	above := spaceAbove >= t.Height || spaceAbove >= spaceBelow

	y := anchorBottomY + margin
	if above {
		y = anchorTopY - t.Height - margin
	}
	x := anchorX - t.Width/2

	return types.Point{
		X: types.Clamp(x, extent.Left(), extent.Right()-t.Width),
		Y: types.Clamp(y, extent.Top(), extent.Bottom()-t.Height),
	}, above
}
