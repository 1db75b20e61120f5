package colour

import (
	"math"
)

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c RGB) float64 {
	return 0.2126*gammaCorrect(clamp01(c.R)) +
		0.7152*gammaCorrect(clamp01(c.G)) +
		0.0722*gammaCorrect(clamp01(c.B))
}

// gammaCorrect applies gamma correction to a colour component.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio calculates the contrast ratio between two colours according to WCAG 2.0.
// Returns a value between 1 and 21, where 21 is maximum contrast (black vs white).
func ContrastRatio(c1, c2 RGB) float64 {
	l1 := Luminance(c1)
	l2 := Luminance(c2)

	if l1 < l2 {
		l1, l2 = l2, l1
	}

	return (l1 + 0.05) / (l2 + 0.05)
}

// IsLight reports whether black text reads better than white text on c.
func IsLight(c RGB) bool {
	return ContrastRatio(c, Black) >= ContrastRatio(c, White)
}

// White is full intensity on every channel.
var White = RGB{R: 1, G: 1, B: 1}

// Foreground picks black or white, whichever contrasts more with bg.
// Used for labels drawn on top of a swatch.
func Foreground(bg RGB) RGB {
	if IsLight(bg) {
		return Black
	}
	return White
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
