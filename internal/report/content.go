package report

// Disclaimer is attached to every report and every error payload
const Disclaimer = "IMPORTANT: This tool is for educational and informational purposes only. " +
	"It does not provide medical diagnoses. All images must be reviewed and interpreted " +
	"by a qualified radiologist or licensed healthcare professional."

// EducationalNote closes every report
const EducationalNote = "This report is generated from simple pixel statistics to help users " +
	"understand what automated image analysis can and cannot describe. It is not a substitute " +
	"for professional medical evaluation."

const (
	TitleImageQuality    = "1. Image Quality Assessment"
	TitleObservations    = "2. Visual Observations"
	TitleInterpretations = "3. Possible Interpretations (Non-Diagnostic)"
	TitleRecommendations = "4. Recommendations"

	ObservationsNote        = "Observations are descriptive only and do not constitute diagnosis"
	InterpretationsEmphasis = "These interpretations are NOT diagnostic and must not be used for clinical decision-making"
)

var interpretations = [...]string{
	"Image characteristics are consistent with a standard medical imaging study",
	"Visible density variations may reflect normal anatomical structures or imaging technique",
	"Any apparent findings require correlation with clinical history and professional review",
}

var recommendations = [...]string{
	"Have this image reviewed by a qualified radiologist",
	"Correlate any observations with clinical symptoms and history",
	"Consult your healthcare provider for interpretation and next steps",
	"Additional views or imaging studies may be needed for a complete evaluation",
}

// Interpretations returns a fresh copy of the fixed section 3 statements
func Interpretations() []string {
	out := make([]string, len(interpretations))
	copy(out, interpretations[:])
	return out
}

// Recommendations returns a fresh copy of the fixed section 4 statements
func Recommendations() []string {
	out := make([]string, len(recommendations))
	copy(out, recommendations[:])
	return out
}
