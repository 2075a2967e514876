package readiness

import (
	"strings"
	"unicode/utf8"
)

// DefaultSegmentLimit is the per-request character limit of the translation service.
const DefaultSegmentLimit = 5000

// OversizedUnit is a text unit that cannot fit in one segment.
type OversizedUnit struct {
	Label  string `json:"label"`
	Length int    `json:"length"`
}

// Segmentation describes how the text packs into segments.
type Segmentation struct {
	Limit             int             `json:"limit"`
	Valid             bool            `json:"valid"`
	Units             int             `json:"units"`
	Segments          int             `json:"segments"`
	MaxUnitLength     int             `json:"max_unit_length"`
	AverageUnitLength float64         `json:"average_unit_length"`
	Oversized         []OversizedUnit `json:"oversized"`
}

// Segment greedily packs units into segments of at most limit characters,
// breaking only between units. A unit longer than the limit is flagged and
// counted as the segments SplitText would cut it into.
func Segment(units []Unit, limit int) Segmentation {
	if limit <= 0 {
		limit = DefaultSegmentLimit
	}
	seg := Segmentation{
		Limit:     limit,
		Valid:     true,
		Units:     len(units),
		Oversized: []OversizedUnit{},
	}

	current, total := 0, 0
	for _, u := range units {
		n := utf8.RuneCountInString(u.Text)
		total += n
		if n > seg.MaxUnitLength {
			seg.MaxUnitLength = n
		}

		if n > limit {
			seg.Valid = false
			seg.Oversized = append(seg.Oversized, OversizedUnit{Label: u.Label, Length: n})
			if current > 0 {
				seg.Segments++
				current = 0
			}
			seg.Segments += len(SplitText(u.Text, limit))
			continue
		}

		next := n
		if current > 0 {
			next = current + 1 + n
		}
		if next > limit {
			seg.Segments++
			current = n
			continue
		}
		current = next
	}
	if current > 0 {
		seg.Segments++
	}
	if len(units) > 0 {
		seg.AverageUnitLength = roundTo(float64(total)/float64(len(units)), 2)
	}
	return seg
}

// SplitText cuts text into chunks of at most limit characters at word
// boundaries. A single word longer than the limit is cut hard.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSegmentLimit
	}
	var (
		chunks []string
		buf    strings.Builder
		size   int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
			size = 0
		}
	}

	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if n > limit {
			flush()
			runes := []rune(word)
			for len(runes) > limit {
				chunks = append(chunks, string(runes[:limit]))
				runes = runes[limit:]
			}
			buf.WriteString(string(runes))
			size = len(runes)
			continue
		}
		if size > 0 && size+1+n > limit {
			flush()
		}
		if size > 0 {
			buf.WriteByte(' ')
			size++
		}
		buf.WriteString(word)
		size += n
	}
	flush()
	return chunks
}
