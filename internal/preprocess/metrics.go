package preprocess

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// maxLegibilitySamples bounds the number of pixels sampled for metrics so
// large photographs do not dominate preprocessing time.
const maxLegibilitySamples = 65536

// lowContrastThreshold is the luminance standard deviation below which
// photographed card text tends to be unreadable after compression.
const lowContrastThreshold = 0.08

// LegibilityMetrics summarizes how readable a card photograph is likely to
// be. Advisory only: it feeds logging, never control flow.
type LegibilityMetrics struct {
	MeanLuminance float64
	Contrast      float64
	SampleCount   int
}

// LowContrast reports whether the image is likely too flat for clean OCR.
func (m LegibilityMetrics) LowContrast() bool {
	return m.SampleCount > 0 && m.Contrast < lowContrastThreshold
}

// Legibility samples the image's luminance channel and computes its mean and
// standard deviation (contrast proxy), both normalized to [0,1].
func Legibility(img image.Image) LegibilityMetrics {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return LegibilityMetrics{}
	}

	stride := 1
	for (width/stride)*(height/stride) > maxLegibilitySamples {
		stride++
	}

	samples := make([]float64, 0, maxLegibilitySamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma weights on normalized channels
			lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			samples = append(samples, lum/65535.0)
		}
	}

	if len(samples) == 0 {
		return LegibilityMetrics{}
	}

	mean, std := stat.MeanStdDev(samples, nil)
	if len(samples) < 2 {
		std = 0
	}
	return LegibilityMetrics{
		MeanLuminance: mean,
		Contrast:      std,
		SampleCount:   len(samples),
	}
}
