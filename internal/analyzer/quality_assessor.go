package analyzer

import (
	"fmt"

	apperrors "go-imaging-assistant/internal/errors"
)

// Assessment is the coarse quality tag
type Assessment string

const (
	AssessmentAdequate Assessment = "Adequate"
	AssessmentLimited  Assessment = "Limited"
)

const (
	NoteAdequateResolution = "Adequate resolution for analysis"
	NoteLowResolution      = "Low resolution - may limit detailed analysis"
	NoteGrayscale          = "Grayscale image (typical for medical imaging)"
	NoteColor              = "Color image detected"
	NoteStandardAspect     = "Standard aspect ratio"
	NoteNonStandardAspect  = "Non-standard aspect ratio - image may be cropped or rotated"

	colorModeNoteFormat = "Color mode: %s"
)

// QualityResult is the output of the quality assessment
type QualityResult struct {
	Resolution string
	Assessment Assessment
	Notes      []string
}

type qualityAssessor struct {
	thresholds Thresholds
}

// NewQualityAssessor creates an assessor with the default thresholds
func NewQualityAssessor() QualityAssessor {
	return NewQualityAssessorWithThresholds(DefaultThresholds())
}

// NewQualityAssessorWithThresholds creates an assessor with custom thresholds
func NewQualityAssessorWithThresholds(thresholds Thresholds) QualityAssessor {
	return &qualityAssessor{thresholds: thresholds}
}

// Assess reads only dimensions and colour mode; the raster is not touched
func (qa *qualityAssessor) Assess(img DecodedImage) (QualityResult, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return QualityResult{}, apperrors.NewInvalidImageError("image has zero area", nil).
			WithDetails(fmt.Sprintf("%dx%d", img.Width, img.Height))
	}

	assessment := AssessmentLimited
	resolutionNote := NoteLowResolution
	if img.Width >= qa.thresholds.MinAdequateWidth && img.Height >= qa.thresholds.MinAdequateHeight {
		assessment = AssessmentAdequate
		resolutionNote = NoteAdequateResolution
	}

	return QualityResult{
		Resolution: fmt.Sprintf("%dx%d", img.Width, img.Height),
		Assessment: assessment,
		Notes: []string{
			resolutionNote,
			colorModeNote(img.Mode),
			qa.aspectRatioNote(img.Width, img.Height),
		},
	}, nil
}

func colorModeNote(mode ColorMode) string {
	switch mode.Kind {
	case ColorModeGrayscale:
		return NoteGrayscale
	case ColorModeRGB:
		return NoteColor
	case ColorModeOther:
		label := mode.Label
		if label == "" {
			label = "unknown"
		}
		return fmt.Sprintf(colorModeNoteFormat, label)
	default:
		return fmt.Sprintf(colorModeNoteFormat, "unknown")
	}
}

func (qa *qualityAssessor) aspectRatioNote(width, height int) string {
	ratio := float64(width) / float64(height)
	if ratio >= qa.thresholds.MinStandardAspect && ratio <= qa.thresholds.MaxStandardAspect {
		return NoteStandardAspect
	}
	return NoteNonStandardAspect
}
