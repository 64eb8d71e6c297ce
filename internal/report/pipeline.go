package report

import (
	"go-imaging-assistant/internal/analyzer"
	"go-imaging-assistant/pkg/models"
)

// Result is a composed report plus the intermediate values it was built from
type Result struct {
	Report     models.Report
	Quality    analyzer.QualityResult
	Brightness analyzer.BrightnessStats
}

// Pipeline runs assess, observe and compose in that order. It holds no
// mutable state and is safe for concurrent use.
type Pipeline struct {
	assessor analyzer.QualityAssessor
	observer analyzer.PatternObserver
	composer Composer
}

// NewPipeline creates a pipeline with the default thresholds
func NewPipeline() *Pipeline {
	return NewPipelineWith(analyzer.NewQualityAssessor(), analyzer.NewPatternObserver(), NewComposer())
}

// NewPipelineWithThresholds creates a pipeline whose assessor and observer share thresholds
func NewPipelineWithThresholds(thresholds analyzer.Thresholds) *Pipeline {
	return NewPipelineWith(
		analyzer.NewQualityAssessorWithThresholds(thresholds),
		analyzer.NewPatternObserverWithCalculator(analyzer.NewMetricsCalculatorWithThresholds(thresholds), thresholds),
		NewComposer(),
	)
}

// NewPipelineWith creates a pipeline from explicit components
func NewPipelineWith(assessor analyzer.QualityAssessor, observer analyzer.PatternObserver, composer Composer) *Pipeline {
	return &Pipeline{
		assessor: assessor,
		observer: observer,
		composer: composer,
	}
}

// Generate produces the report for one decoded image. Either a complete report
// is returned or the first error from assessment or observation, unchanged.
func (p *Pipeline) Generate(img analyzer.DecodedImage, filename string) (models.Report, error) {
	result, err := p.Run(img, filename)
	if err != nil {
		return models.Report{}, err
	}
	return result.Report, nil
}

// Run is Generate but also returns the quality result and brightness statistics
func (p *Pipeline) Run(img analyzer.DecodedImage, filename string) (Result, error) {
	quality, err := p.assessor.Assess(img)
	if err != nil {
		return Result{}, err
	}

	stats, err := p.observer.Measure(img)
	if err != nil {
		return Result{}, err
	}
	observations := p.observer.Describe(stats)

	return Result{
		Report:     p.composer.Compose(img, filename, quality, observations),
		Quality:    quality,
		Brightness: stats,
	}, nil
}
