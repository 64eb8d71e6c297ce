package analyzer

import "image"

// QualityAssessor classifies an image from its metadata alone
type QualityAssessor interface {
	Assess(img DecodedImage) (QualityResult, error)
}

// PatternObserver turns pixel statistics into descriptive observations
type PatternObserver interface {
	// Observe is Measure followed by Describe
	Observe(img DecodedImage) (Observations, error)

	Measure(img DecodedImage) (BrightnessStats, error)
	Describe(stats BrightnessStats) Observations
}

// MetricsCalculator handles intensity statistics on single-channel rasters
type MetricsCalculator interface {
	CalculateHistogram(gray *image.Gray) Histogram
	CalculateBrightness(gray *image.Gray) (BrightnessStats, error)
}
