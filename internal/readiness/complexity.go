package readiness

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Complexity levels.
const (
	ComplexityNone   = "none"
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

var (
	acronymPattern  = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	numberPattern   = regexp.MustCompile(`\d+`)
	specialPattern  = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// AssessComplexity grades how hard text is to translate from acronym density,
// numerals, special characters and sentence length.
func AssessComplexity(text string) string {
	if strings.TrimSpace(text) == "" {
		return ComplexityNone
	}

	score := 0
	if len(acronymPattern.FindAllStringIndex(text, -1)) > 5 {
		score++
	}
	if len(numberPattern.FindAllStringIndex(text, -1)) > 10 {
		score++
	}
	if float64(len(specialPattern.FindAllStringIndex(text, -1))) > float64(utf8.RuneCountInString(text))*0.1 {
		score++
	}

	sentences := sentencePattern.Split(text, -1)
	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	if float64(words)/float64(len(sentences)) > 25 {
		score++
	}

	switch {
	case score == 0:
		return ComplexityLow
	case score <= 2:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}
