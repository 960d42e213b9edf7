package layout

// PointsPerMM converts millimetres to PostScript points
const PointsPerMM = 72.0 / 25.4

// MM converts millimetres to points
func MM(v float64) float64 {
	return v * PointsPerMM
}

// Geometry describes a fixed label sheet in points
type Geometry struct {
	Name        string  `json:"name"`
	PageWidth   float64 `json:"page_width"`
	PageHeight  float64 `json:"page_height"`
	LabelWidth  float64 `json:"label_width"`
	LabelHeight float64 `json:"label_height"`
	Cols        int     `json:"cols"`
	Rows        int     `json:"rows"`
	LeftMargin  float64 `json:"left_margin"`
	TopMargin   float64 `json:"top_margin"`
	ColGap      float64 `json:"col_gap"`
	RowGap      float64 `json:"row_gap"`
}

// Avery3658 returns the A4 sheet of 3 x 8 labels, 64.6 x 33.8 mm each,
// horizontally centred and touching each other.
func Avery3658() Geometry {
	labelWidth := MM(64.6)
	pageWidth := MM(210)
	return Geometry{
		Name:        "Avery Zweckform 3658",
		PageWidth:   pageWidth,
		PageHeight:  MM(297),
		LabelWidth:  labelWidth,
		LabelHeight: MM(33.8),
		Cols:        3,
		Rows:        8,
		LeftMargin:  (pageWidth - 3*labelWidth) / 2,
		TopMargin:   MM(13.5),
	}
}

// PerPage is the number of label cells on one sheet
func (g Geometry) PerPage() int {
	return g.Cols * g.Rows
}

// Slot maps a 0-based index within a page to its grid cell
func (g Geometry) Slot(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// CellOrigin returns the bottom-left corner of the cell at row, col.
// Row 0 is the top row of the sheet.
func (g Geometry) CellOrigin(row, col int) (x, y float64) {
	x = g.LeftMargin + float64(col)*(g.LabelWidth+g.ColGap)
	y = g.PageHeight - g.TopMargin - float64(row+1)*g.LabelHeight - float64(row)*g.RowGap
	return x, y
}

// CellRect returns the full rectangle of the cell at row, col
func (g Geometry) CellRect(row, col int) Rect {
	x, y := g.CellOrigin(row, col)
	return Rect{X: x, Y: y, W: g.LabelWidth, H: g.LabelHeight}
}

// Rect is an axis-aligned rectangle anchored at its bottom-left corner
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Overlaps reports whether r and o share a region of positive area.
// Touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	const eps = 1e-9
	return r.X+eps < o.X+o.W && o.X+eps < r.X+r.W &&
		r.Y+eps < o.Y+o.H && o.Y+eps < r.Y+r.H
}
