package colour

import (
	"math"
	"testing"
)

func TestContrastRatio(t *testing.T) {
	if got := ContrastRatio(Black, White); math.Abs(got-21) > 0.01 {
		t.Errorf("ContrastRatio(black, white) = %v, want 21", got)
	}
	if got := ContrastRatio(White, White); math.Abs(got-1) > 0.001 {
		t.Errorf("ContrastRatio(white, white) = %v, want 1", got)
	}
}

func TestForeground(t *testing.T) {
	tests := []struct {
		name string
		bg   RGB
		want RGB
	}{
		{name: "white background", bg: White, want: Black},
		{name: "black background", bg: Black, want: White},
		{name: "yellow background", bg: RGB{R: 1, G: 1}, want: Black},
		{name: "navy background", bg: RGB{B: 0.5}, want: White},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Foreground(tt.bg); got != tt.want {
				t.Errorf("Foreground(%v) = %v, want %v", tt.bg, got, tt.want)
			}
		})
	}
}
