package raster

import (
	"image"
	"math"

	"pdfdusk/converter/colorspace"
	"pdfdusk/converter/tuning"
)

// Inverter flips a rasterized page to a dark theme. Pixels near the
// luminance extremes invert fully, saturated colors keep their hue and
// invert brightness only, and an optional sigmoid pass restores contrast
// that plain inversion washes out.
type Inverter struct {
	tun tuning.Tuning
}

// NewInverter creates an Inverter with the given tuning parameters.
func NewInverter(tun tuning.Tuning) *Inverter {
	return &Inverter{tun: tun}
}

// Invert transforms the buffer in place.
func (inv *Inverter) Invert(buf *PixelBuffer) {
	if buf.Gray {
		inv.invertGray(buf)
		return
	}
	inv.invertColor(buf)
	if inv.tun.EnhanceContrast {
		inv.enhanceContrast(buf)
	}
}

// InvertImage is a convenience wrapper over Invert for callers holding a
// decoded image.
func (inv *Inverter) InvertImage(img image.Image) image.Image {
	buf := FromImage(img)
	inv.Invert(buf)
	return buf.ToImage()
}

// invertGray inverts a grayscale page and applies gamma correction so the
// result reads slightly brighter than a straight negative.
func (inv *Inverter) invertGray(buf *PixelBuffer) {
	for i := range buf.Pix {
		buf.Pix[i] = math.Pow(colorspace.InvertGray(buf.Pix[i]), inv.tun.GrayGamma)
	}
}

func (inv *Inverter) invertColor(buf *PixelBuffer) {
	for i := 0; i+2 < len(buf.Pix); i += 3 {
		r, g, b := buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2]
		lum := colorspace.Luminance(r, g, b)

		if channelStdDev(r, g, b) > inv.tun.ColorStdDev &&
			lum >= inv.tun.DarkThreshold && lum <= inv.tun.LightThreshold {
			// Saturated mid-tone, likely a chart or illustration. Flip
			// brightness and keep the hue so it stays recognizable.
			h, s, v := colorspace.RGBToHSV(r, g, b)
			r, g, b = colorspace.HSVToRGB(h, s, 1-v)
		} else {
			r, g, b = colorspace.InvertRGB(r, g, b)
		}

		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = r, g, b
	}
}

// enhanceContrast pushes channel values away from mid-gray with a sigmoid
// and blends the result with the plain inversion.
func (inv *Inverter) enhanceContrast(buf *PixelBuffer) {
	k := inv.tun.ContrastSteepness
	blend := inv.tun.ContrastBlend
	for i, v := range buf.Pix {
		enhanced := 1 / (1 + math.Exp(-k*(v-0.5)))
		buf.Pix[i] = blend*enhanced + (1-blend)*v
	}
}

// channelStdDev measures how far a pixel is from pure gray. Equal channels
// give zero, fully saturated primaries approach 0.47.
func channelStdDev(r, g, b float64) float64 {
	mean := (r + g + b) / 3
	dr, dg, db := r-mean, g-mean, b-mean
	return math.Sqrt((dr*dr + dg*dg + db*db) / 3)
}
