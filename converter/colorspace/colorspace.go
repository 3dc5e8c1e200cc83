package colorspace

import "math"

// Color space names as they appear in PDF color operators.
const (
	RGB  = "RGB"
	CMYK = "CMYK"
	Gray = "Gray"
)

// InvertRGB inverts all three channels.
func InvertRGB(r, g, b float64) (float64, float64, float64) {
	return 1 - r, 1 - g, 1 - b
}

// InvertGray inverts a grayscale value.
func InvertGray(v float64) float64 {
	return 1 - v
}

// InvertCMYK inverts the black channel and leaves cyan, magenta and yellow
// untouched. Print-oriented PDFs define their light/dark axis through K, so
// flipping K alone moves backgrounds and text without negating the inks.
func InvertCMYK(c, m, y, k float64) (float64, float64, float64, float64) {
	return c, m, y, 1 - k
}

// Luminance returns the perceptual brightness of an RGB color using the
// ITU-R BT.601 weights.
func Luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// Clamp01 clamps v to the [0,1] range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RGBToHSV converts RGB in [0,1] to hue (degrees, [0,360)), saturation and
// value, both in [0,1].
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max

	d := max - min
	if max > 0 {
		s = d / max
	}

	if d == 0 {
		return 0, s, v
	}

	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	case b:
		h = (r-g)/d + 4
	}

	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// HSVToRGB converts hue (degrees), saturation and value back to RGB in [0,1].
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return r + m, g + m, b + m
}
