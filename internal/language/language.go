package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps full English language names to tags for configs that spell the
// language out.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"dutch":      "nl",
}

// Parse converts a language code, tag, or English language name into a
// canonical tag. ok is false when the input cannot be understood.
func Parse(code string) (language.Tag, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.Und, false
	}
	if mapped, found := words[strings.ToLower(code)]; found {
		code = mapped
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// ToISO2 returns the ISO 639-1 base of code ("en-US" -> "en"). Returns an
// empty string when the input is not a recognizable language.
func ToISO2(code string) string {
	tag, ok := Parse(code)
	if !ok {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

// Canonical returns the canonical BCP 47 form of code ("en_us" -> "en-US"),
// or the trimmed input when it cannot be parsed.
func Canonical(code string) string {
	tag, ok := Parse(code)
	if !ok {
		return strings.TrimSpace(code)
	}
	return tag.String()
}

// DisplayName returns the English name of the language ("en-US" -> "American
// English"). Returns "Unknown" for empty or unparseable input.
func DisplayName(code string) string {
	tag, ok := Parse(code)
	if !ok {
		return "Unknown"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
