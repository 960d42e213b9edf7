package layout

const (
	// MinFontSize is the floor of the fitting search
	MinFontSize = 6
	// DefaultSeedSize is used for line counts outside the seed table
	DefaultSeedSize = 10
	// LineHeightFactor converts a font size to its line pitch
	LineHeightFactor = 1.2
)

var seedSizes = map[int]int{1: 32, 2: 24, 3: 18, 4: 14, 5: 12, 6: 10}

// SeedSize returns the starting font size for a given lines-per-label setting
func SeedSize(linesPerLabel int) int {
	if s, ok := seedSizes[linesPerLabel]; ok {
		return s
	}
	return DefaultSeedSize
}

// FitInput is everything the fitting search looks at for one label
type FitInput struct {
	Lines           []string
	LinesPerLabel   int
	Family          string
	Bold            bool
	SafeWidth       float64
	AvailableHeight float64
	// StartSize replaces the seed table when positive
	StartSize int
	Measurer  Measurer
}

// FitResult is the outcome of FitFontSize
type FitResult struct {
	Size int `json:"size"`
	// Steps counts the sizes examined, at most seed-floor+1
	Steps int `json:"steps"`
	// Fits is false when the floor was reached without meeting both constraints
	Fits bool `json:"fits"`
}

// FitFontSize walks down one point at a time from the seed until the line
// block fits the available height and every line fits the safe width.
// At the floor the size is used even if it still overflows.
func FitFontSize(in FitInput) FitResult {
	size := SeedSize(in.LinesPerLabel)
	if in.StartSize > 0 {
		size = in.StartSize
	}
	size = max(size, MinFontSize)

	steps := 0
	for size > MinFontSize {
		steps++
		if in.fits(size) {
			return FitResult{Size: size, Steps: steps, Fits: true}
		}
		size--
	}

	return FitResult{Size: MinFontSize, Steps: steps + 1, Fits: in.fits(MinFontSize)}
}

func (in FitInput) fits(size int) bool {
	s := float64(size)
	if float64(len(in.Lines))*s*LineHeightFactor > in.AvailableHeight {
		return false
	}
	for _, line := range in.Lines {
		if in.Measurer.MeasureTextWidth(line, in.Family, in.Bold, s) > in.SafeWidth {
			return false
		}
	}
	return true
}
