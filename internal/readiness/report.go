package readiness

// ScoreComponents holds the points each check earned on a 0-100 scale.
type ScoreComponents struct {
	Content      float64 `json:"content"`
	Segmentation float64 `json:"segmentation"`
	Language     float64 `json:"language"`
	Structure    float64 `json:"structure"`
}

// Report is the full translation readiness analysis of one document.
type Report struct {
	ReadyForTranslation bool            `json:"ready_for_translation"`
	ReadinessScore      int             `json:"readiness_score"`
	Threshold           int             `json:"threshold"`
	AzureCompatibility  bool            `json:"azure_compatibility"`
	TranslatableWords   int             `json:"translatable_words"`
	TotalWords          int             `json:"total_words"`
	TotalCharacters     int             `json:"total_characters"`
	Tokens              TokenCounts     `json:"token_counts"`
	TextDensity         float64         `json:"text_density"`
	DetectedLanguages   []string        `json:"detected_languages"`
	DetectedScripts     []string        `json:"detected_scripts"`
	Multilingual        bool            `json:"multilingual"`
	LanguagesSupported  bool            `json:"languages_supported"`
	ContentTypes        []string        `json:"content_types"`
	Segmentation        Segmentation    `json:"segmentation"`
	Complexity          string          `json:"translation_complexity"`
	Components          ScoreComponents `json:"score_components"`
	Recommendations     []string        `json:"recommendations"`
}

// Summary is the short form returned to API callers.
type Summary struct {
	ReadyForTranslation bool     `json:"ready_for_translation" yaml:"ready_for_translation"`
	ReadinessScore      int      `json:"readiness_score" yaml:"readiness_score"`
	TranslatableWords   int      `json:"translatable_words" yaml:"translatable_words"`
	DetectedLanguages   []string `json:"detected_languages" yaml:"detected_languages"`
	ContentTypes        []string `json:"content_types" yaml:"content_types"`
	AzureCompatibility  bool     `json:"azure_compatibility" yaml:"azure_compatibility"`
	KeyRecommendations  []string `json:"key_recommendations" yaml:"key_recommendations"`
}

const keyRecommendationCount = 3

// Summary condenses the report, keeping the first three recommendations.
func (r Report) Summary() Summary {
	recs := r.Recommendations
	if len(recs) > keyRecommendationCount {
		recs = recs[:keyRecommendationCount]
	}
	return Summary{
		ReadyForTranslation: r.ReadyForTranslation,
		ReadinessScore:      r.ReadinessScore,
		TranslatableWords:   r.TranslatableWords,
		DetectedLanguages:   append([]string{}, r.DetectedLanguages...),
		ContentTypes:        append([]string{}, r.ContentTypes...),
		AzureCompatibility:  r.AzureCompatibility,
		KeyRecommendations:  append([]string{}, recs...),
	}
}
