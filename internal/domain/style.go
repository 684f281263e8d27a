package domain

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
)

// ImpactPalette is the eight-colour ramp from "no impact" white to dark red.
var ImpactPalette = []string{
	"#FFFFFF", "#38A800", "#79C900", "#CEED00",
	"#FFCC00", "#FF6600", "#FF0000", "#7A0000",
}

// StyleClass is one display class of an impact raster. Class 0 covers
// exactly the value 0; class i > 0 covers (Lower, Upper].
type StyleClass struct {
	Index        int     `json:"index"`
	Lower        float64 `json:"lower"`
	Upper        float64 `json:"upper"`
	Quantity     float64 `json:"quantity"`
	Label        string  `json:"label"`
	Color        string  `json:"color"`
	Transparency int     `json:"transparency"`
}

// BuildClasses splits [0, max(values)] into n display classes: the zero
// class plus n-1 equal intervals. NaN values are ignored and an all-zero
// input is spread over [0, 1] so that no interval is empty.
func BuildClasses(values []float64, n int) ([]StyleClass, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClassCount, n)
	}

	classes := make([]StyleClass, n)
	classes[0] = StyleClass{
		Index:        0,
		Label:        "[0]",
		Color:        paletteColor(0, n),
		Transparency: 100,
	}
	if n == 1 {
		return classes, nil
	}

	upper := maxFinite(values)
	if !(upper > 0) {
		upper = 1
	}
	breaks := floats.Span(make([]float64, n), 0, upper)
	interval := upper / float64(n-1)

	for i := 1; i < n; i++ {
		lo, hi := breaks[i-1], breaks[i]
		classes[i] = StyleClass{
			Index:    i,
			Lower:    lo,
			Upper:    hi,
			Quantity: hi,
			Label:    classLabel(i, n, formatBreak(lo, interval), formatBreak(hi, interval)),
			Color:    paletteColor(i, n),
		}
	}
	return classes, nil
}

func classLabel(i, n int, lo, hi string) string {
	span := fmt.Sprintf("[%s - %s]", lo, hi)
	if n < 4 {
		return span
	}
	switch i {
	case 1:
		return "Low " + span
	case n / 2:
		return "Medium " + span
	case n - 1:
		return "High " + span
	}
	return span
}

// formatBreak prints v with as many decimals as the class interval needs.
func formatBreak(v, interval float64) string {
	if interval >= 1 {
		return humanize.Comma(int64(math.Round(v)))
	}
	digits := int(math.Ceil(-math.Log10(interval)))
	return humanize.CommafWithDigits(v, digits)
}

func paletteColor(i, n int) string {
	if n <= 1 || i == 0 {
		return ImpactPalette[0]
	}
	last := len(ImpactPalette) - 1
	return ImpactPalette[int(math.Round(float64(i*last)/float64(n-1)))]
}

func maxFinite(values []float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0
	}
	return floats.Max(finite)
}
