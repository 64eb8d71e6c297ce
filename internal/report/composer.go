package report

import (
	"fmt"

	"go-imaging-assistant/internal/analyzer"
	"go-imaging-assistant/pkg/models"
)

// Composer assembles analyzer output and the static content into a Report
type Composer interface {
	Compose(img analyzer.DecodedImage, filename string, quality analyzer.QualityResult, observations analyzer.Observations) models.Report
}

type composer struct{}

// NewComposer creates a report composer
func NewComposer() Composer {
	return composer{}
}

// Compose never fails. Every slice in the result is freshly allocated, so a
// caller may modify the report without touching shared content.
func (composer) Compose(img analyzer.DecodedImage, filename string, quality analyzer.QualityResult, observations analyzer.Observations) models.Report {
	resolution := quality.Resolution
	if resolution == "" {
		resolution = analyzerResolution(img)
	}

	return models.Report{
		Disclaimer: Disclaimer,
		ImageInfo: models.ImageInfo{
			Filename:   filename,
			Resolution: resolution,
		},
		ImageQuality: models.QualitySection{
			Title:      TitleImageQuality,
			Assessment: string(quality.Assessment),
			Details:    cloneStrings(quality.Notes),
		},
		Observations: models.ObservationsSection{
			Title:    TitleObservations,
			Findings: cloneStrings(observations),
			Note:     ObservationsNote,
		},
		Interpretations: models.InterpretationSection{
			Title:           TitleInterpretations,
			Interpretations: Interpretations(),
			Emphasis:        InterpretationsEmphasis,
		},
		Recommendations: models.RecommendationSection{
			Title:           TitleRecommendations,
			Recommendations: Recommendations(),
		},
		EducationalNote: EducationalNote,
	}
}

func analyzerResolution(img analyzer.DecodedImage) string {
	return fmt.Sprintf("%dx%d", img.Width, img.Height)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
