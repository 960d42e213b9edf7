package layout

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	apperrors "labelcli/internal/errors"
)

// Settings are the user-facing layout choices
type Settings struct {
	LinesPerLabel int           `json:"lines_per_label"`
	FontFamily    string        `json:"font_family"`
	Bold          bool          `json:"bold"`
	Padding       PaddingPolicy `json:"padding"`
	// StartSize overrides the seed table when positive
	StartSize int `json:"start_size,omitempty"`
}

// DefaultSettings mirrors the form defaults: 3 lines, Arial regular, 2 mm padding
func DefaultSettings() Settings {
	return Settings{
		LinesPerLabel: 3,
		FontFamily:    FamilyArial,
		Padding:       PaddingPolicy{Universal: 2},
	}
}

// FontChoice is the font applied to a whole label
type FontChoice struct {
	Family string `json:"family"`
	Bold   bool   `json:"bold"`
	Size   int    `json:"size"`
}

// DrawCommand places one line of text. X, Y is the baseline start.
type DrawCommand struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Text       string  `json:"text"`
	FontFamily string  `json:"font_family"`
	FontSize   int     `json:"font_size"`
	Bold       bool    `json:"bold"`
	Width      float64 `json:"width"`
	Label      int     `json:"label"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
}

// PlacedLabel is a label bound to a grid cell with its fitted font
type PlacedLabel struct {
	Label
	Row       int        `json:"row"`
	Col       int        `json:"col"`
	Cell      Rect       `json:"cell"`
	LeftPad   float64    `json:"left_pad"`
	RightPad  float64    `json:"right_pad"`
	SafeWidth float64    `json:"safe_width"`
	Font      FontChoice `json:"font"`
	Fit       FitResult  `json:"fit"`
}

// Page is one printed sheet
type Page struct {
	Number   int           `json:"number"`
	Labels   []PlacedLabel `json:"labels"`
	Commands []DrawCommand `json:"commands"`
}

// Result is a complete layout
type Result struct {
	Geometry Geometry `json:"geometry"`
	Settings Settings `json:"settings"`
	Pages    []Page   `json:"pages"`
}

// LabelCount returns the number of labels across all pages
func (r *Result) LabelCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Labels)
	}
	return n
}

// FitSteps returns the fitting step count of every label in order
func (r *Result) FitSteps() []int {
	steps := make([]int, 0, r.LabelCount())
	for _, p := range r.Pages {
		for _, l := range p.Labels {
			steps = append(steps, l.Fit.Steps)
		}
	}
	return steps
}

// Engine computes layouts for one sheet geometry
type Engine struct {
	geometry Geometry
	measurer Measurer
}

// NewEngine creates an engine for g that measures text with m
func NewEngine(g Geometry, m Measurer) *Engine {
	return &Engine{geometry: g, measurer: m}
}

// Geometry returns the sheet the engine lays out
func (e *Engine) Geometry() Geometry {
	return e.geometry
}

// Compute lays out lines from scratch. Trailing whitespace is trimmed from
// every line before grouping. Empty input yields zero pages.
// Padding that leaves no room is not rejected; those labels fall to the floor size.
func (e *Engine) Compute(lines []string, s Settings) (*Result, error) {
	if s.LinesPerLabel < 1 {
		return nil, fmt.Errorf("lines per label %d: %w", s.LinesPerLabel, apperrors.ErrInvalidSettings)
	}

	result := &Result{Geometry: e.geometry, Settings: s, Pages: []Page{}}
	pages := Paginate(GroupLines(trimLines(lines), s.LinesPerLabel), e.geometry.PerPage())
	for i, labels := range pages {
		page := Page{Number: i + 1}
		for slot, label := range labels {
			row, col := e.geometry.Slot(slot)
			placed, commands := e.place(label, row, col, s)
			page.Labels = append(page.Labels, placed)
			page.Commands = append(page.Commands, commands...)
		}
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}

// Preview lays out a single label once in each column of the top row so the
// column-specific padding is visible. It uses the first label of lines, or
// sample text when lines is empty or starts blank.
func (e *Engine) Preview(lines []string, s Settings) (*Page, error) {
	if s.LinesPerLabel < 1 {
		return nil, fmt.Errorf("lines per label %d: %w", s.LinesPerLabel, apperrors.ErrInvalidSettings)
	}

	lines = trimLines(lines)
	content := SampleLines(s.LinesPerLabel)
	if len(lines) > 0 && lines[0] != "" {
		content = lines[:min(s.LinesPerLabel, len(lines))]
	}

	page := &Page{Number: 1}
	for col := 0; col < e.geometry.Cols; col++ {
		placed, commands := e.place(Label{Lines: content}, 0, col, s)
		page.Labels = append(page.Labels, placed)
		page.Commands = append(page.Commands, commands...)
	}
	return page, nil
}

// trimLines drops trailing whitespace from each line. Blank lines are kept.
func trimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return out
}

// SampleLines is the placeholder text shown by Preview
func SampleLines(n int) []string {
	sample := []string{"Sample Label", "Text Here", "Line 3"}
	return sample[:min(max(n, 0), len(sample))]
}

func (e *Engine) place(label Label, row, col int, s Settings) (PlacedLabel, []DrawCommand) {
	g := e.geometry
	cell := g.CellRect(row, col)
	leftPad, rightPad := s.Padding.Pads(col, g.Cols)
	safe := g.LabelWidth - leftPad - rightPad

	fit := FitFontSize(FitInput{
		Lines:           label.Lines,
		LinesPerLabel:   s.LinesPerLabel,
		Family:          s.FontFamily,
		Bold:            s.Bold,
		SafeWidth:       safe,
		AvailableHeight: s.Padding.AvailableHeight(g),
		StartSize:       s.StartSize,
		Measurer:        e.measurer,
	})

	size := float64(fit.Size)
	lineHeight := size * LineHeightFactor
	n := len(label.Lines)
	startY := cell.Y + (g.LabelHeight-float64(n)*lineHeight)/2

	commands := make([]DrawCommand, 0, n)
	for i, text := range label.Lines {
		if text == "" {
			continue
		}
		width := e.measurer.MeasureTextWidth(text, s.FontFamily, s.Bold, size)
		commands = append(commands, DrawCommand{
			X:          cell.X + leftPad + (safe-width)/2,
			Y:          startY + float64(n-1-i)*lineHeight,
			Text:       text,
			FontFamily: s.FontFamily,
			FontSize:   fit.Size,
			Bold:       s.Bold,
			Width:      width,
			Label:      label.Index,
			Row:        row,
			Col:        col,
		})
	}

	return PlacedLabel{
		Label:     label,
		Row:       row,
		Col:       col,
		Cell:      cell,
		LeftPad:   leftPad,
		RightPad:  rightPad,
		SafeWidth: safe,
		Font:      FontChoice{Family: s.FontFamily, Bold: s.Bold, Size: fit.Size},
		Fit:       fit,
	}, commands
}

// DefaultOutputName names a layout export after its creation time
func DefaultOutputName(now time.Time) string {
	return "labels_" + now.Format("20060102_150405") + ".json"
}
