package ffprobe

import (
	"strings"

	"audioscribe/internal/language"
)

// PrimaryAudioStream returns the audio stream to transcribe. Streams tagged
// with the pinned language win, then the default-flagged stream, then the
// earliest one. ok is false when the container has no audio.
func (r Result) PrimaryAudioStream(lang string) (stream Stream, ok bool) {
	lang = language.ToISO2(lang)
	bestScore := -1
	for _, candidate := range r.Streams {
		if !candidate.IsAudio() {
			continue
		}
		score := 0
		if lang != "" && language.ToISO2(streamLanguage(candidate.Tags)) == lang {
			score += 100
		}
		if candidate.Disposition["default"] == 1 {
			score += 10
		}
		if candidate.Channels > 0 {
			score++
		}
		if score > bestScore {
			stream = candidate
			bestScore = score
			ok = true
		}
	}
	return stream, ok
}

func streamLanguage(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "LANG"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}
