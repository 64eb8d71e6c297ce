package models

// Report is the fixed-shape educational report returned for one uploaded image.
// Field order and JSON names are a compatibility surface for existing clients.
type Report struct {
	Disclaimer      string                `json:"disclaimer"`
	ImageInfo       ImageInfo             `json:"image_info"`
	ImageQuality    QualitySection        `json:"section_1_image_quality"`
	Observations    ObservationsSection   `json:"section_2_observations"`
	Interpretations InterpretationSection `json:"section_3_interpretations"`
	Recommendations RecommendationSection `json:"section_4_recommendations"`
	EducationalNote string                `json:"educational_note"`
}

// ImageInfo identifies the analysed upload
type ImageInfo struct {
	Filename   string `json:"filename"`
	Resolution string `json:"resolution"`
}

// QualitySection is section 1 of the report
type QualitySection struct {
	Title      string   `json:"title"`
	Assessment string   `json:"assessment"`
	Details    []string `json:"details"`
}

// ObservationsSection is section 2 of the report
type ObservationsSection struct {
	Title    string   `json:"title"`
	Findings []string `json:"findings"`
	Note     string   `json:"note"`
}

// InterpretationSection is section 3 of the report. Its content never depends
// on the image.
type InterpretationSection struct {
	Title           string   `json:"title"`
	Interpretations []string `json:"interpretations"`
	Emphasis        string   `json:"emphasis"`
}

// RecommendationSection is section 4 of the report. Its content never depends
// on the image.
type RecommendationSection struct {
	Title           string   `json:"title"`
	Recommendations []string `json:"recommendations"`
}
