package layout

// PaddingPolicy holds the horizontal and vertical insets in millimetres.
// Column extras apply only to the outermost columns of the sheet.
type PaddingPolicy struct {
	Universal        float64 `json:"universal"`
	LeftColumnExtra  float64 `json:"left_column_extra"`
	RightColumnExtra float64 `json:"right_column_extra"`
	Vertical         float64 `json:"vertical"`
}

// Pads returns the left and right padding in points for col of a sheet with cols columns
func (p PaddingPolicy) Pads(col, cols int) (left, right float64) {
	left = MM(p.Universal)
	right = MM(p.Universal)
	if col == 0 {
		left += MM(p.LeftColumnExtra)
	}
	if col == cols-1 {
		right += MM(p.RightColumnExtra)
	}
	return left, right
}

// SafeWidth is the label width left between the pads of col.
// It is negative when padding exceeds the label; callers are not protected from that.
func (p PaddingPolicy) SafeWidth(col int, g Geometry) float64 {
	left, right := p.Pads(col, g.Cols)
	return g.LabelWidth - left - right
}

// AvailableHeight is the label height minus the vertical padding on both edges
func (p PaddingPolicy) AvailableHeight(g Geometry) float64 {
	return g.LabelHeight - 2*MM(p.Vertical)
}
