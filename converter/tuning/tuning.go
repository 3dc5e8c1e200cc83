package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects the thresholds and constants that steer the conversion
// pipeline. The defaults are the values the algorithms were calibrated with;
// a YAML file can override individual fields for experimentation.
type Tuning struct {
	// DarkThreshold marks pixels below this luminance as text-like.
	DarkThreshold float64 `yaml:"dark_threshold"`
	// LightThreshold marks pixels above this luminance as background-like.
	LightThreshold float64 `yaml:"light_threshold"`
	// ColorStdDev is the minimum per-pixel channel deviation for a pixel to
	// count as colored content.
	ColorStdDev float64 `yaml:"color_std_dev"`
	// ContrastSteepness is the sigmoid steepness of the contrast pass.
	ContrastSteepness float64 `yaml:"contrast_steepness"`
	// ContrastBlend is the weight of the enhanced value in the final blend;
	// the inverted value keeps the remaining 1-ContrastBlend.
	ContrastBlend float64 `yaml:"contrast_blend"`
	// EnhanceContrast toggles the contrast pass.
	EnhanceContrast bool `yaml:"enhance_contrast"`
	// GrayGamma is applied to inverted grayscale pages.
	GrayGamma float64 `yaml:"gray_gamma"`
	// ComplexityLimit is the score above which a page is rasterized.
	ComplexityLimit int `yaml:"complexity_limit"`
	// DPI used when rasterizing pages.
	DPI int `yaml:"dpi"`
	// MaxRenderDim caps rendered image width/height in pixels; larger
	// renders are scaled down. Zero disables the cap.
	MaxRenderDim int `yaml:"max_render_dim"`
}

// Default returns the calibrated tuning values.
func Default() Tuning {
	return Tuning{
		DarkThreshold:     0.2,
		LightThreshold:    0.8,
		ColorStdDev:       0.1,
		ContrastSteepness: 12,
		ContrastBlend:     0.7,
		EnhanceContrast:   true,
		GrayGamma:         0.8,
		ComplexityLimit:   50,
		DPI:               200,
		MaxRenderDim:      8192,
	}
}

// Load reads a YAML tuning file on top of the defaults. Fields absent from
// the file keep their default values.
func Load(path string) (Tuning, error) {
	t := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse tuning file: %w", err)
	}

	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate reports tuning values outside their working ranges.
func (t Tuning) Validate() error {
	if t.DarkThreshold < 0 || t.DarkThreshold > 1 {
		return fmt.Errorf("dark_threshold %v outside [0,1]", t.DarkThreshold)
	}
	if t.LightThreshold < 0 || t.LightThreshold > 1 {
		return fmt.Errorf("light_threshold %v outside [0,1]", t.LightThreshold)
	}
	if t.DarkThreshold >= t.LightThreshold {
		return fmt.Errorf("dark_threshold %v must be below light_threshold %v", t.DarkThreshold, t.LightThreshold)
	}
	if t.ColorStdDev < 0 {
		return fmt.Errorf("color_std_dev %v must not be negative", t.ColorStdDev)
	}
	if t.ContrastBlend < 0 || t.ContrastBlend > 1 {
		return fmt.Errorf("contrast_blend %v outside [0,1]", t.ContrastBlend)
	}
	if t.GrayGamma <= 0 {
		return fmt.Errorf("gray_gamma %v must be positive", t.GrayGamma)
	}
	if t.DPI <= 0 {
		return fmt.Errorf("dpi %d must be positive", t.DPI)
	}
	if t.MaxRenderDim < 0 {
		return fmt.Errorf("max_render_dim %d must not be negative", t.MaxRenderDim)
	}
	return nil
}
