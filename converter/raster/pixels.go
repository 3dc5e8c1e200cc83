package raster

import (
	"image"
	"image/color"
	"math"

	"pdfdusk/converter/colorspace"
)

// PixelBuffer is a rasterized page: a W by H grid of RGB triples normalized
// to [0,1]. Gray marks buffers decoded from single-channel images, which
// take the simpler grayscale inversion path.
type PixelBuffer struct {
	W, H int
	Pix  []float64
	Gray bool
}

// NewPixelBuffer allocates a zeroed buffer.
func NewPixelBuffer(w, h int) *PixelBuffer {
	return &PixelBuffer{W: w, H: h, Pix: make([]float64, w*h*3)}
}

// FromImage normalizes an image into a pixel buffer.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	buf := NewPixelBuffer(bounds.Dx(), bounds.Dy())

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		buf.Gray = true
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			buf.Pix[i] = float64(r) / 65535
			buf.Pix[i+1] = float64(g) / 65535
			buf.Pix[i+2] = float64(b) / 65535
			i += 3
		}
	}
	return buf
}

// At returns the pixel at (x, y).
func (p *PixelBuffer) At(x, y int) (r, g, b float64) {
	i := (y*p.W + x) * 3
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// Set stores the pixel at (x, y).
func (p *PixelBuffer) Set(x, y int, r, g, b float64) {
	i := (y*p.W + x) * 3
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = r, g, b
}

// ToImage clamps and quantizes the buffer back to an 8-bit image.
func (p *PixelBuffer) ToImage() image.Image {
	if p.Gray {
		img := image.NewGray(image.Rect(0, 0, p.W, p.H))
		for y := 0; y < p.H; y++ {
			for x := 0; x < p.W; x++ {
				v, _, _ := p.At(x, y)
				img.SetGray(x, y, color.Gray{Y: quantize(v)})
			}
		}
		return img
	}

	img := image.NewRGBA(image.Rect(0, 0, p.W, p.H))
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			r, g, b := p.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: quantize(r), G: quantize(g), B: quantize(b), A: 255})
		}
	}
	return img
}

func quantize(v float64) uint8 {
	return uint8(math.Round(colorspace.Clamp01(v) * 255))
}
