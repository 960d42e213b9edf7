package layout

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Measurer reports the advance width of text in points
type Measurer interface {
	MeasureTextWidth(text, family string, bold bool, size float64) float64
}

// Font families offered to users
const (
	FamilyArial       = "Arial"
	FamilyArialNarrow = "Arial Narrow"
	FamilyHelvetica   = "Helvetica"
	FamilyTimes       = "Times New Roman"
	FamilyCourier     = "Courier New"
)

// Families lists the supported font families in menu order
func Families() []string {
	return []string{FamilyArial, FamilyArialNarrow, FamilyHelvetica, FamilyTimes, FamilyCourier}
}

// KnownFamily reports whether family has its own metrics
func KnownFamily(family string) bool {
	for _, f := range Families() {
		if f == family {
			return true
		}
	}
	return false
}

// narrowScale approximates Arial Narrow as condensed Helvetica
const narrowScale = 0.82

// MetricsMeasurer measures text with built-in advance widths of the standard
// PDF core fonts. Arial shares Helvetica's metrics. Unknown families fall back
// to Helvetica.
type MetricsMeasurer struct{}

// NewMetricsMeasurer returns the built-in measurer
func NewMetricsMeasurer() MetricsMeasurer {
	return MetricsMeasurer{}
}

// MeasureTextWidth implements Measurer
func (MetricsMeasurer) MeasureTextWidth(text, family string, bold bool, size float64) float64 {
	table, scale := widthTable(family, bold)

	units := 0
	for _, r := range text {
		units += glyphWidth(table, r)
	}
	return float64(units) * scale * size / 1000
}

func widthTable(family string, bold bool) (*[95]int, float64) {
	switch family {
	case FamilyTimes:
		if bold {
			return &timesBold, 1
		}
		return &timesRoman, 1
	case FamilyCourier:
		return &courier, 1
	case FamilyArialNarrow:
		if bold {
			return &helveticaBold, narrowScale
		}
		return &helvetica, narrowScale
	default:
		if bold {
			return &helveticaBold, 1
		}
		return &helvetica, 1
	}
}

// glyphWidth folds accented letters onto their base glyph (č to c) and
// gives anything else outside printable ASCII the width of 'n'.
func glyphWidth(table *[95]int, r rune) int {
	if r >= 32 && r <= 126 {
		return table[r-32]
	}
	if base := baseRune(r); base >= 32 && base <= 126 {
		return table[base-32]
	}
	if unicode.IsSpace(r) {
		return table[0]
	}
	return table['n'-32]
}

func baseRune(r rune) rune {
	switch r {
	case 'đ':
		return 'd'
	case 'Đ':
		return 'D'
	case 'ł':
		return 'l'
	case 'Ł':
		return 'L'
	case 'ø':
		return 'o'
	case 'Ø':
		return 'O'
	}
	base, _ := utf8.DecodeRuneInString(norm.NFD.String(string(r)))
	return base
}

var helvetica = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // space to /
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556, // 0 to ?
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778, // @ to O
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556, // P to _
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556, // ` to o
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584, // p to ~
}

var helveticaBold = [95]int{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
	975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
	333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
	611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
}

var timesRoman = [95]int{
	250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
	921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
	556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
	333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
	500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
}

var timesBold = [95]int{
	250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
	930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
	611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
	333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
	556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
}

var courier = func() [95]int {
	var t [95]int
	for i := range t {
		t[i] = 600
	}
	return t
}()
