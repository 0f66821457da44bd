package toolbar

import (
	"testing"

	"github.com/bethropolis/infograph/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPlace(t *testing.T) {
	viewport := types.Box{Width: 300, Height: 200}
	toolbar := types.Size{Width: 60, Height: 30}

	tests := []struct {
		name      string
		selection types.Box
		extent    types.Box
		want      types.Point
		above     bool
	}{
		{
			name:      "room above",
			selection: types.Box{X: 100, Y: 50, Width: 40, Height: 20},
			extent:    viewport,
			want:      types.Point{X: 90, Y: 12},
			above:     true,
		},
		{
			name:      "too close to the top goes below",
			selection: types.Box{X: 100, Y: 10, Width: 40, Height: 20},
			extent:    viewport,
			want:      types.Point{X: 90, Y: 38},
		},
		{
			name:      "clamped left",
			selection: types.Box{X: 0, Y: 100, Width: 10, Height: 10},
			extent:    viewport,
			want:      types.Point{X: 0, Y: 62},
			above:     true,
		},
		{
			name:      "clamped right",
			selection: types.Box{X: 290, Y: 100, Width: 10, Height: 10},
			extent:    viewport,
			want:      types.Point{X: 240, Y: 62},
			above:     true,
		},
		{
			name:      "scrolled viewport",
			selection: types.Box{X: 100, Y: 520, Width: 40, Height: 20},
			extent:    types.Box{X: 0, Y: 500, Width: 300, Height: 200},
			want:      types.Point{X: 90, Y: 548},
		},
		{
			name:      "more space above than below but not enough",
			selection: types.Box{X: 100, Y: 25, Width: 40, Height: 160},
			extent:    viewport,
			want:      types.Point{X: 90, Y: 0},
			above:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, above := Place(tt.selection, toolbar, tt.extent, DefaultMargin)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.above, above)
		})
	}
}
