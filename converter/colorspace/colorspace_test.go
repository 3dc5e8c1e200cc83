package colorspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvertRGBInvolution(t *testing.T) {
	cases := [][3]float64{
		{0, 0, 0},
		{1, 1, 1},
		{0.25, 0.5, 0.75},
		{0.1, 0.9, 0.3},
		{0.299, 0.587, 0.114},
	}

	for _, c := range cases {
		r, g, b := InvertRGB(c[0], c[1], c[2])
		r, g, b = InvertRGB(r, g, b)
		assert.InDelta(t, c[0], r, 1e-9)
		assert.InDelta(t, c[1], g, 1e-9)
		assert.InDelta(t, c[2], b, 1e-9)
	}
}

func TestInvertRGBEndpoints(t *testing.T) {
	r, g, b := InvertRGB(1, 1, 1)
	assert.Equal(t, 0.0, r)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, 0.0, b)

	r, g, b = InvertRGB(0, 0, 0)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 1.0, g)
	assert.Equal(t, 1.0, b)
}

func TestInvertGrayInvolution(t *testing.T) {
	for _, v := range []float64{0, 0.15, 0.5, 0.85, 1} {
		assert.InDelta(t, v, InvertGray(InvertGray(v)), 1e-9)
	}
}

func TestInvertCMYKOnlyTouchesK(t *testing.T) {
	c, m, y, k := InvertCMYK(0.2, 0.4, 0.6, 0.8)
	assert.Equal(t, 0.2, c)
	assert.Equal(t, 0.4, m)
	assert.Equal(t, 0.6, y)
	assert.InDelta(t, 0.2, k, 1e-9)

	c, m, y, k = InvertCMYK(c, m, y, k)
	assert.Equal(t, 0.2, c)
	assert.Equal(t, 0.4, m)
	assert.Equal(t, 0.6, y)
	assert.InDelta(t, 0.8, k, 1e-9)
}

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 1.0, Luminance(1, 1, 1), 1e-9)
	assert.InDelta(t, 0.0, Luminance(0, 0, 0), 1e-9)
	assert.InDelta(t, 0.299, Luminance(1, 0, 0), 1e-9)
	assert.InDelta(t, 0.587, Luminance(0, 1, 0), 1e-9)
	assert.InDelta(t, 0.114, Luminance(0, 0, 1), 1e-9)
	assert.InDelta(t, 0.5, Luminance(0.5, 0.5, 0.5), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.3, Clamp01(0.3))
}

func TestHSVRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b float64
	}{
		{"red", 1, 0, 0},
		{"green", 0, 1, 0},
		{"blue", 0, 0, 1},
		{"yellow", 1, 1, 0},
		{"gray", 0.5, 0.5, 0.5},
		{"muted orange", 0.8, 0.5, 0.2},
		{"dark cyan", 0.1, 0.4, 0.4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tc.r, tc.g, tc.b)
			r, g, b := HSVToRGB(h, s, v)
			assert.InDelta(t, tc.r, r, 1e-9)
			assert.InDelta(t, tc.g, g, 1e-9)
			assert.InDelta(t, tc.b, b, 1e-9)
		})
	}
}

func TestHSVValueInversionKeepsHue(t *testing.T) {
	h, s, v := RGBToHSV(0.8, 0.2, 0.2)
	r, g, b := HSVToRGB(h, s, 1-v)

	h2, s2, _ := RGBToHSV(r, g, b)
	assert.InDelta(t, h, h2, 1e-9)
	assert.InDelta(t, s, s2, 1e-9)
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)
}
