package analyzer

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	apperrors "go-imaging-assistant/internal/errors"

	"gonum.org/v1/gonum/stat"
)

// Histogram counts pixels per 8-bit intensity level
type Histogram [256]uint64

// Total returns the number of pixels counted
func (h Histogram) Total() uint64 {
	var total uint64
	for _, count := range h {
		total += count
	}
	return total
}

// BrightnessStats summarises the single-channel intensities of an image
type BrightnessStats struct {
	Mean       float64
	StdDev     float64
	Min        uint8
	Max        uint8
	PixelCount int
}

// intensityLevels is the value axis 0..255 used as gonum sample values
var intensityLevels = func() []float64 {
	levels := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}
	return levels
}()

type metricsCalculator struct {
	parallelMinPixels int
}

// NewMetricsCalculator creates a calculator that splits large images into
// horizontal strips counted on separate goroutines
func NewMetricsCalculator() MetricsCalculator {
	return NewMetricsCalculatorWithThresholds(DefaultThresholds())
}

// NewMetricsCalculatorWithThresholds creates a calculator honouring
// thresholds.ParallelMinPixels
func NewMetricsCalculatorWithThresholds(thresholds Thresholds) MetricsCalculator {
	return &metricsCalculator{parallelMinPixels: thresholds.ParallelMinPixels}
}

// CalculateHistogram counts intensities, in parallel strips for large images
func (mc *metricsCalculator) CalculateHistogram(gray *image.Gray) Histogram {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= 0 || height <= 0 {
		return Histogram{}
	}

	if width*height < mc.parallelMinPixels {
		return countRows(gray, bounds.Min.Y, bounds.Max.Y)
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	results := make(chan Histogram, numWorkers)
	var wg sync.WaitGroup

	// Process image in horizontal strips for better cache locality
	for i := 0; i < numWorkers; i++ {
		startY := bounds.Min.Y + i*rowsPerWorker
		if startY >= bounds.Max.Y {
			break
		}
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}

		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			results <- countRows(gray, startY, endY)
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total Histogram
	for partial := range results {
		for level, count := range partial {
			total[level] += count
		}
	}
	return total
}

func countRows(gray *image.Gray, startY, endY int) Histogram {
	var hist Histogram
	bounds := gray.Bounds()
	width := bounds.Dx()

	for y := startY; y < endY; y++ {
		offset := gray.PixOffset(bounds.Min.X, y)
		for _, v := range gray.Pix[offset : offset+width] {
			hist[v]++
		}
	}
	return hist
}

// CalculateBrightness computes mean, population standard deviation and range
// of the intensities. An image without pixels is an invalid image; a
// non-finite statistic is a processing failure.
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) (BrightnessStats, error) {
	if gray == nil {
		return BrightnessStats{}, apperrors.NewInvalidImageError("image has no pixel data", nil)
	}

	hist := mc.CalculateHistogram(gray)
	total := hist.Total()
	if total == 0 {
		return BrightnessStats{}, apperrors.NewInvalidImageError("image has no pixel data", nil)
	}

	weights := make([]float64, len(hist))
	for level, count := range hist {
		weights[level] = float64(count)
	}

	mean, variance := stat.PopMeanVariance(intensityLevels, weights)
	if variance < 0 {
		// compensated summation can land a hair below zero for flat images
		variance = 0
	}
	std := math.Sqrt(variance)
	if math.IsNaN(mean) || math.IsInf(mean, 0) || math.IsNaN(std) || math.IsInf(std, 0) {
		return BrightnessStats{}, apperrors.NewProcessingError("brightness statistics are not finite",
			fmt.Errorf("mean=%v std=%v over %d pixels", mean, std, total))
	}

	minLevel, maxLevel := histogramRange(hist)
	return BrightnessStats{
		Mean:       mean,
		StdDev:     std,
		Min:        minLevel,
		Max:        maxLevel,
		PixelCount: int(total),
	}, nil
}

func histogramRange(hist Histogram) (uint8, uint8) {
	minLevel, maxLevel := 0, 255
	for minLevel < 255 && hist[minLevel] == 0 {
		minLevel++
	}
	for maxLevel > 0 && hist[maxLevel] == 0 {
		maxLevel--
	}
	return uint8(minLevel), uint8(maxLevel)
}
