package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvery3658(t *testing.T) {
	g := Avery3658()

	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 8, g.Rows)
	assert.Equal(t, 24, g.PerPage())
	assert.InDelta(t, 595.2756, g.PageWidth, 1e-3)
	assert.InDelta(t, 841.8898, g.PageHeight, 1e-3)
	assert.InDelta(t, MM(8.1), g.LeftMargin, 1e-9)
	assert.InDelta(t, MM(13.5), g.TopMargin, 1e-9)
	assert.Zero(t, g.ColGap)
	assert.Zero(t, g.RowGap)
}

func TestCellOrigin(t *testing.T) {
	g := Avery3658()

	x, y := g.CellOrigin(0, 0)
	assert.InDelta(t, g.LeftMargin, x, 1e-9)
	assert.InDelta(t, g.PageHeight-g.TopMargin-g.LabelHeight, y, 1e-9)

	// Same row: offset purely by label width plus gap.
	x1, y1 := g.CellOrigin(3, 1)
	x2, y2 := g.CellOrigin(3, 2)
	assert.InDelta(t, g.LabelWidth+g.ColGap, x2-x1, 1e-9)
	assert.InDelta(t, y1, y2, 1e-9)

	// Same column: offset purely by label height plus gap, downward.
	x3, y3 := g.CellOrigin(4, 1)
	assert.InDelta(t, x1, x3, 1e-9)
	assert.InDelta(t, g.LabelHeight+g.RowGap, y1-y3, 1e-9)

	// The whole grid stays on the sheet.
	xLast, yLast := g.CellOrigin(g.Rows-1, g.Cols-1)
	assert.GreaterOrEqual(t, yLast, 0.0)
	assert.LessOrEqual(t, xLast+g.LabelWidth, g.PageWidth+1e-9)
	assert.InDelta(t, g.PageWidth-g.LeftMargin, xLast+g.LabelWidth, 1e-9, "grid is horizontally centred")
}

func TestCellsNeverOverlap(t *testing.T) {
	geometries := map[string]Geometry{
		"avery": Avery3658(),
		"gapped": func() Geometry {
			g := Avery3658()
			g.ColGap, g.RowGap = MM(2), MM(1)
			return g
		}(),
	}

	for name, g := range geometries {
		t.Run(name, func(t *testing.T) {
			var cells []Rect
			for i := 0; i < g.PerPage(); i++ {
				cells = append(cells, g.CellRect(g.Slot(i)))
			}
			for i := range cells {
				for j := i + 1; j < len(cells); j++ {
					assert.False(t, cells[i].Overlaps(cells[j]), "cells %d and %d overlap", i, j)
				}
			}
		})
	}
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.True(t, a.Overlaps(Rect{X: 5, Y: 5, W: 10, H: 10}))
	assert.False(t, a.Overlaps(Rect{X: 10, Y: 0, W: 10, H: 10}), "touching edges")
	assert.False(t, a.Overlaps(Rect{X: 0, Y: -10, W: 10, H: 10}))
}

func TestSlot(t *testing.T) {
	g := Avery3658()
	tests := []struct{ i, row, col int }{
		{0, 0, 0}, {1, 0, 1}, {2, 0, 2}, {3, 1, 0}, {23, 7, 2},
	}
	for _, tt := range tests {
		row, col := g.Slot(tt.i)
		assert.Equal(t, tt.row, row, "slot %d", tt.i)
		assert.Equal(t, tt.col, col, "slot %d", tt.i)
	}
}

func TestPaddingPolicy(t *testing.T) {
	g := Avery3658()
	p := PaddingPolicy{Universal: 2, LeftColumnExtra: 3, RightColumnExtra: 4, Vertical: 1}

	l, r := p.Pads(0, g.Cols)
	assert.InDelta(t, MM(5), l, 1e-9)
	assert.InDelta(t, MM(2), r, 1e-9)

	l, r = p.Pads(1, g.Cols)
	assert.InDelta(t, MM(2), l, 1e-9)
	assert.InDelta(t, MM(2), r, 1e-9)

	l, r = p.Pads(2, g.Cols)
	assert.InDelta(t, MM(2), l, 1e-9)
	assert.InDelta(t, MM(6), r, 1e-9)

	assert.InDelta(t, g.LabelWidth-MM(7), p.SafeWidth(0, g), 1e-9)
	assert.InDelta(t, g.LabelWidth-MM(4), p.SafeWidth(1, g), 1e-9)
	assert.InDelta(t, g.LabelHeight-MM(2), p.AvailableHeight(g), 1e-9)

	single := Geometry{Cols: 1, LabelWidth: MM(50)}
	l, r = p.Pads(0, single.Cols)
	assert.InDelta(t, MM(5), l, 1e-9, "one column gets both extras")
	assert.InDelta(t, MM(6), r, 1e-9)
}

func TestSafeWidthCanGoNegative(t *testing.T) {
	g := Avery3658()
	p := PaddingPolicy{Universal: 40}
	assert.Less(t, p.SafeWidth(1, g), 0.0)
}
