package readiness

import (
	"sort"
	"unicode"

	"golang.org/x/text/language"
)

type scriptRule struct {
	script language.Script
	table  *unicode.RangeTable
	langs  []language.Tag
}

func rule(code string, table *unicode.RangeTable, langs ...string) scriptRule {
	tags := make([]language.Tag, len(langs))
	for i, l := range langs {
		tags[i] = language.MustParse(l)
	}
	return scriptRule{script: language.MustParseScript(code), table: table, langs: tags}
}

// Ordered by how often each script shows up in office documents.
var scriptRules = []scriptRule{
	rule("Latn", unicode.Latin, "en", "es", "fr", "de", "it"),
	rule("Cyrl", unicode.Cyrillic, "ru"),
	rule("Grek", unicode.Greek, "el"),
	rule("Arab", unicode.Arabic, "ar"),
	rule("Hebr", unicode.Hebrew, "he"),
	rule("Hani", unicode.Han, "zh"),
	rule("Hira", unicode.Hiragana, "ja"),
	rule("Kana", unicode.Katakana, "ja"),
	rule("Hang", unicode.Hangul, "ko"),
	rule("Deva", unicode.Devanagari, "hi"),
	rule("Thai", unicode.Thai, "th"),
}

// Latin letters outside ASCII hint at these languages in addition to the Latin set.
var accentedLatin = []language.Tag{
	language.Spanish,
	language.French,
	language.German,
	language.Portuguese,
}

// Languages the downstream translation service is known to accept.
var supportedLanguages = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "ru": {},
	"zh": {}, "ja": {}, "ko": {}, "ar": {}, "hi": {}, "tr": {}, "pl": {},
	"nl": {}, "sv": {}, "da": {}, "no": {}, "fi": {},
}

// ScriptHints is the outcome of script detection.
type ScriptHints struct {
	// Scripts holds ISO 15924 codes, sorted.
	Scripts []string
	// Languages holds BCP 47 language tags, sorted.
	Languages []string
}

// Multilingual reports whether more than one script family was seen.
// Hiragana, Katakana and Han together count as one family.
func (h ScriptHints) Multilingual() bool {
	families := map[string]struct{}{}
	for _, s := range h.Scripts {
		switch s {
		case "Hira", "Kana", "Hani":
			families["CJK"] = struct{}{}
		default:
			families[s] = struct{}{}
		}
	}
	return len(families) > 1
}

// Unsupported returns detected languages that are outside the supported set.
func (h ScriptHints) Unsupported() []string {
	var out []string
	for _, l := range h.Languages {
		if _, ok := supportedLanguages[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

// DetectScripts scans text once and maps the Unicode scripts of its letters
// to candidate languages. It is a heuristic, not language identification.
func DetectScripts(text string) ScriptHints {
	seen := make([]bool, len(scriptRules))
	accented := false
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		for i := range scriptRules {
			if unicode.Is(scriptRules[i].table, r) {
				seen[i] = true
				if i == 0 && r > unicode.MaxASCII {
					accented = true
				}
				break
			}
		}
	}

	scripts := map[string]struct{}{}
	langs := map[string]struct{}{}
	for i, ok := range seen {
		if !ok {
			continue
		}
		scripts[scriptRules[i].script.String()] = struct{}{}
		for _, tag := range scriptRules[i].langs {
			langs[tag.String()] = struct{}{}
		}
	}
	if accented {
		for _, tag := range accentedLatin {
			langs[tag.String()] = struct{}{}
		}
	}
	return ScriptHints{Scripts: sortedKeys(scripts), Languages: sortedKeys(langs)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
