package readiness

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a whitespace-delimited token.
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenNumeric
	TokenURL
	TokenPunct
)

func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "word"
	case TokenNumeric:
		return "numeric"
	case TokenURL:
		return "url"
	case TokenPunct:
		return "punct"
	default:
		return "unknown"
	}
}

// Translatable reports whether tokens of this kind count as translatable words.
func (k TokenKind) Translatable() bool {
	return k == TokenWord
}

var (
	urlPattern     = regexp.MustCompile(`(?i)^(?:(?:https?|ftp)://|www\.)\S+$`)
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)
	numericPattern = regexp.MustCompile(`^\d+(?:[.,:/\-]\d+)*$`)
)

// ClassifyToken decides what a single token is. Punctuation and symbols at
// the edges are ignored, so "(2024)" is numeric and "world." is a word.
func ClassifyToken(tok string) TokenKind {
	core := trimEdges(tok)
	if core == "" {
		return TokenPunct
	}
	if urlPattern.MatchString(core) || emailPattern.MatchString(core) {
		return TokenURL
	}
	if numericPattern.MatchString(core) {
		return TokenNumeric
	}
	var letters, digits int
	for _, r := range core {
		switch {
		case unicode.IsLetter(r) || unicode.Is(unicode.Mn, r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	switch {
	case letters > 0:
		return TokenWord
	case digits > 0:
		return TokenNumeric
	default:
		return TokenPunct
	}
}

func trimEdges(tok string) string {
	return strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// TokenCounts tallies token kinds across a text.
type TokenCounts struct {
	Words   int `json:"words"`
	Numeric int `json:"numeric"`
	URLs    int `json:"urls"`
	Punct   int `json:"punctuation"`

	// WordRunes is the rune length of all word tokens.
	WordRunes int `json:"-"`
}

// Total is the number of tokens seen.
func (c TokenCounts) Total() int {
	return c.Words + c.Numeric + c.URLs + c.Punct
}

// CountTokens splits text on whitespace and classifies every token.
func CountTokens(text string) TokenCounts {
	var counts TokenCounts
	for _, tok := range strings.Fields(text) {
		switch ClassifyToken(tok) {
		case TokenWord:
			counts.Words++
			counts.WordRunes += utf8.RuneCountInString(tok)
		case TokenNumeric:
			counts.Numeric++
		case TokenURL:
			counts.URLs++
		default:
			counts.Punct++
		}
	}
	return counts
}
