package analyzer

const (
	ObservationDark     = "Overall dark appearance - may indicate underpenetration or dense tissue"
	ObservationBright   = "Overall bright appearance - may indicate overpenetration or air-filled spaces"
	ObservationModerate = "Moderate contrast levels observed"

	ObservationDensityPatterns    = "Visual analysis of density patterns in progress"
	ObservationStructuralElements = "Structural elements visible for assessment"
)

// Observations is the ordered list of descriptive findings. The brightness
// statement always comes first.
type Observations []string

type patternObserver struct {
	calculator MetricsCalculator
	thresholds Thresholds
}

// NewPatternObserver creates an observer with the default thresholds
func NewPatternObserver() PatternObserver {
	thresholds := DefaultThresholds()
	return NewPatternObserverWithCalculator(NewMetricsCalculatorWithThresholds(thresholds), thresholds)
}

// NewPatternObserverWithCalculator creates an observer around a custom calculator
func NewPatternObserverWithCalculator(calculator MetricsCalculator, thresholds Thresholds) PatternObserver {
	return &patternObserver{
		calculator: calculator,
		thresholds: thresholds,
	}
}

// Observe reduces the image to intensities and describes its brightness
func (po *patternObserver) Observe(img DecodedImage) (Observations, error) {
	stats, err := po.Measure(img)
	if err != nil {
		return nil, err
	}
	return po.Describe(stats), nil
}

// Measure computes brightness statistics over the single-channel view
func (po *patternObserver) Measure(img DecodedImage) (BrightnessStats, error) {
	if err := img.Validate(); err != nil {
		return BrightnessStats{}, err
	}
	return po.calculator.CalculateBrightness(img.Intensities())
}

// Describe maps statistics to observations. Exactly one brightness band
// matches; the two trailing lines are unconditional.
func (po *patternObserver) Describe(stats BrightnessStats) Observations {
	return Observations{
		po.brightnessBand(stats.Mean),
		ObservationDensityPatterns,
		ObservationStructuralElements,
	}
}

func (po *patternObserver) brightnessBand(mean float64) string {
	switch {
	case mean < po.thresholds.DarkBelow:
		return ObservationDark
	case mean > po.thresholds.BrightAbove:
		return ObservationBright
	default:
		return ObservationModerate
	}
}
