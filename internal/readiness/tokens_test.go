package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tok  string
		want TokenKind
	}{
		{"hello", TokenWord},
		{"world.", TokenWord},
		{"(Grüße)", TokenWord},
		{"e.g.", TokenWord},
		{"3D", TokenWord},
		{"42", TokenNumeric},
		{"-3.14", TokenNumeric},
		{"1,000,000", TokenNumeric},
		{"2024-01-31", TokenNumeric},
		{"12/31/2024", TokenNumeric},
		{"09:30", TokenNumeric},
		{"100%", TokenNumeric},
		{"$25", TokenNumeric},
		{"https://example.com/path?q=1", TokenURL},
		{"HTTP://EXAMPLE.COM", TokenURL},
		{"www.example.org", TokenURL},
		{"<user@example.com>", TokenURL},
		{"!", TokenPunct},
		{"--", TokenPunct},
		{"…", TokenPunct},
		{"©", TokenPunct},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.tok, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyToken(tt.tok))
		})
	}
}

func TestCountTokens(t *testing.T) {
	counts := CountTokens("Visit https://example.com on 2024-05-01 - thanks!")
	assert.Equal(t, 3, counts.Words)
	assert.Equal(t, 1, counts.URLs)
	assert.Equal(t, 1, counts.Numeric)
	assert.Equal(t, 1, counts.Punct)
	assert.Equal(t, 6, counts.Total())
	assert.Equal(t, len("Visit")+len("on")+len("thanks!"), counts.WordRunes)
}
