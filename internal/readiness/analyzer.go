// Package readiness scores how prepared a document's extracted text is for a
// machine translation pipeline. Analysis is a pure function of its input.
package readiness

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultThreshold is the score at or above which a document is ready.
	DefaultThreshold = 80
	// MinTranslatableChars is the least amount of word text worth sending.
	MinTranslatableChars = 3
	// MinTextDensity is the share of translatable text that earns full content credit.
	MinTextDensity = 0.1
)

// Weights sets the relative importance of each check. Only ratios matter.
type Weights struct {
	Content      float64 `json:"content"`
	Segmentation float64 `json:"segmentation"`
	Language     float64 `json:"language"`
	Structure    float64 `json:"structure"`
}

func (w Weights) sum() float64 {
	return w.Content + w.Segmentation + w.Language + w.Structure
}

// Config tunes the analyzer.
type Config struct {
	Threshold    int     `json:"threshold"`
	SegmentLimit int     `json:"segment_limit"`
	Weights      Weights `json:"weights"`
}

// DefaultConfig returns threshold 80, a 5000 character segment limit and
// weights 50/25/15/10 for content, segmentation, language and structure.
func DefaultConfig() Config {
	return Config{
		Threshold:    DefaultThreshold,
		SegmentLimit: DefaultSegmentLimit,
		Weights: Weights{
			Content:      50,
			Segmentation: 25,
			Language:     15,
			Structure:    10,
		},
	}
}

// Analyzer produces readiness reports. It holds no mutable state and is safe
// for concurrent use.
type Analyzer struct {
	cfg Config
}

// New returns an Analyzer, replacing out-of-range settings with defaults.
func New(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.Threshold <= 0 || cfg.Threshold > 100 {
		cfg.Threshold = def.Threshold
	}
	if cfg.SegmentLimit <= 0 {
		cfg.SegmentLimit = def.SegmentLimit
	}
	w := cfg.Weights
	w.Content = math.Max(w.Content, 0)
	w.Segmentation = math.Max(w.Segmentation, 0)
	w.Language = math.Max(w.Language, 0)
	w.Structure = math.Max(w.Structure, 0)
	if w.sum() == 0 {
		w = def.Weights
	}
	cfg.Weights = w
	return &Analyzer{cfg: cfg}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

var defaultAnalyzer = New(DefaultConfig())

// Analyze runs the default analyzer.
func Analyze(content ExtractedContent) Report {
	return defaultAnalyzer.Analyze(content)
}

// Analyze builds a report for content. It never fails; empty input yields a
// zero score and a recommendation to add content.
func (a *Analyzer) Analyze(content ExtractedContent) Report {
	if content.TotalWords <= 0 && content.TotalCharacters <= 0 {
		content = content.WithTotals()
	}
	totalWords := max(content.TotalWords, 0)
	totalChars := max(content.TotalCharacters, 0)

	units := content.Units()
	text := content.Text()

	tokens := CountTokens(text)
	translatable := min(tokens.Words, totalWords)

	density := 0.0
	if totalChars > 0 {
		density = roundTo(math.Min(float64(tokens.WordRunes)/float64(totalChars), 1), 4)
	}

	hints := DetectScripts(text)
	types := content.ContentTypes()
	seg := Segment(units, a.cfg.SegmentLimit)

	report := Report{
		Threshold:          a.cfg.Threshold,
		TranslatableWords:  translatable,
		TotalWords:         totalWords,
		TotalCharacters:    totalChars,
		Tokens:             tokens,
		TextDensity:        density,
		DetectedLanguages:  hints.Languages,
		DetectedScripts:    hints.Scripts,
		Multilingual:       hints.Multilingual(),
		LanguagesSupported: len(hints.Unsupported()) == 0,
		ContentTypes:       types,
		Segmentation:       seg,
		Complexity:         AssessComplexity(text),
	}

	hasText := len(units) > 0
	if hasText {
		report.Components = a.components(translatable, tokens.WordRunes, density, len(hints.Languages) > 0, seg.Valid, len(types))
		report.ReadinessScore = score(report.Components)
	}

	report.AzureCompatibility = report.ReadinessScore >= a.cfg.Threshold
	report.ReadyForTranslation = report.AzureCompatibility && translatable > 0
	report.Recommendations = a.recommend(report, hasText, hints)
	return report
}

func (a *Analyzer) components(translatable, wordRunes int, density float64, hasLanguage, segmentsValid bool, typeCount int) ScoreComponents {
	w := a.cfg.Weights
	scale := 100 / w.sum()

	var c ScoreComponents
	if translatable > 0 && wordRunes >= MinTranslatableChars {
		c.Content = w.Content * scale * math.Min(density/MinTextDensity, 1)
	}
	if segmentsValid {
		c.Segmentation = w.Segmentation * scale
	}
	if hasLanguage {
		c.Language = w.Language * scale
	}
	c.Structure = w.Structure * scale * float64(min(typeCount, 2)) / 2

	c.Content = roundTo(c.Content, 2)
	c.Segmentation = roundTo(c.Segmentation, 2)
	c.Language = roundTo(c.Language, 2)
	c.Structure = roundTo(c.Structure, 2)
	return c
}

func score(c ScoreComponents) int {
	total := int(math.Round(c.Content + c.Segmentation + c.Language + c.Structure))
	return max(0, min(100, total))
}

func (a *Analyzer) recommend(r Report, hasText bool, hints ScriptHints) []string {
	recs := []string{}
	switch {
	case !hasText:
		recs = append(recs, "Document has no translatable text; add paragraph or table content")
	case r.TranslatableWords == 0:
		recs = append(recs, "Document has no translatable text; it contains only numbers, URLs or punctuation")
	case r.Tokens.WordRunes < MinTranslatableChars:
		recs = append(recs, fmt.Sprintf("Translatable text is too short; add at least %d characters of words", MinTranslatableChars))
	case r.TextDensity < MinTextDensity:
		recs = append(recs, fmt.Sprintf("Translatable text is only %.1f%% of the content; increase the share of words relative to numbers, URLs and symbols", r.TextDensity*100))
	}

	if hasText {
		if len(r.DetectedLanguages) == 0 {
			recs = append(recs, "No language detected; verify the script encoding of the text")
		} else if unsupported := hints.Unsupported(); len(unsupported) > 0 {
			recs = append(recs, fmt.Sprintf("Detected languages %s may not be supported for translation; verify language support", strings.Join(unsupported, ", ")))
		}
	}

	for _, o := range r.Segmentation.Oversized {
		recs = append(recs, fmt.Sprintf("%s exceeds the %d-character segment limit (%d characters); shorten or split it", o.Label, r.Segmentation.Limit, o.Length))
	}

	if r.ReadinessScore < r.Threshold {
		recs = append(recs, fmt.Sprintf("Readiness score %d is below the threshold of %d", r.ReadinessScore, r.Threshold))
	}

	if len(recs) == 0 {
		recs = append(recs, "Document is ready for translation")
	}
	return recs
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
