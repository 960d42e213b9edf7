package layout

import (
	"fmt"
	"io"
)

// Surface is a drawing target. Pages are implicit: the first page exists
// before any call and NewPage starts the next one.
type Surface interface {
	Measurer
	DrawText(x, y float64, text, family string, size int, bold bool) error
	NewPage() error
}

// Replay draws every command of r onto s in page order
func Replay(r *Result, s Surface) error {
	for i, page := range r.Pages {
		if i > 0 {
			if err := s.NewPage(); err != nil {
				return fmt.Errorf("start page %d: %w", page.Number, err)
			}
		}
		for _, c := range page.Commands {
			if err := s.DrawText(c.X, c.Y, c.Text, c.FontFamily, c.FontSize, c.Bold); err != nil {
				return fmt.Errorf("draw %q on page %d: %w", c.Text, page.Number, err)
			}
		}
	}
	return nil
}

// TextSurface writes draw operations as plain text lines, one per call.
// It is the CLI's dry-run output.
type TextSurface struct {
	Measurer
	w    io.Writer
	page int
}

// NewTextSurface returns a surface that prints to w and measures with m
func NewTextSurface(w io.Writer, m Measurer) *TextSurface {
	s := &TextSurface{Measurer: m, w: w, page: 1}
	fmt.Fprintf(w, "page %d\n", s.page)
	return s
}

// DrawText implements Surface
func (s *TextSurface) DrawText(x, y float64, text, family string, size int, bold bool) error {
	style := "regular"
	if bold {
		style = "bold"
	}
	_, err := fmt.Fprintf(s.w, "  %7.2f %7.2f  %s %s %d  %q\n", x, y, family, style, size, text)
	return err
}

// NewPage implements Surface
func (s *TextSurface) NewPage() error {
	s.page++
	_, err := fmt.Fprintf(s.w, "page %d\n", s.page)
	return err
}
