package analyzer

// Thresholds holds the cut-offs used by the assessor and the observer.
// Intensities are on the 8-bit 0-255 scale.
type Thresholds struct {
	// Resolution thresholds
	MinAdequateWidth  int
	MinAdequateHeight int

	// Aspect ratio band (width / height), inclusive
	MinStandardAspect float64
	MaxStandardAspect float64

	// Brightness bands
	DarkBelow   float64
	BrightAbove float64

	// Images below this pixel count are summed on one goroutine
	ParallelMinPixels int
}

// DefaultThresholds returns the thresholds the report contract is written against
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAdequateWidth:  512,
		MinAdequateHeight: 512,
		MinStandardAspect: 0.8,
		MaxStandardAspect: 1.2,
		DarkBelow:         50,
		BrightAbove:       200,
		ParallelMinPixels: 100000,
	}
}

// WithParallelMinPixels overrides the sequential/parallel cut-over
func (t Thresholds) WithParallelMinPixels(pixels int) Thresholds {
	t.ParallelMinPixels = pixels
	return t
}
