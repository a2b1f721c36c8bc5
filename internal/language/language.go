package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultCode is the language the transcription backend is pinned to when
// configuration leaves it unset.
const DefaultCode = "en"

// words maps full English language names onto ISO 639-1 codes so config
// files may say "english" instead of "en".
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
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"ukrainian":  "uk",
	"turkish":    "tr",
}

// Normalize converts a language code, BCP 47 tag ("en-US"), ISO 639-2 code
// ("eng") or English name ("english") to the ISO 639-1 code Whisper expects.
func Normalize(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("language: empty code")
	}
	if mapped, ok := words[code]; ok {
		return mapped, nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("language: parse %q: %w", code, err)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("language: unknown code %q", code)
	}
	iso2 := base.String()
	if len(iso2) != 2 {
		return "", fmt.Errorf("language: %q has no ISO 639-1 code", code)
	}
	return iso2, nil
}

// ToISO2 is Normalize without the error; unrecognized input yields "".
func ToISO2(code string) string {
	iso2, err := Normalize(code)
	if err != nil {
		return ""
	}
	return iso2
}

// DisplayName returns the English name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	iso2, err := Normalize(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	name := display.English.Languages().Name(language.Make(iso2))
	if name == "" {
		return strings.ToUpper(trimmed)
	}
	return name
}
