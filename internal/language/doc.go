// Package language normalizes the pinned transcription language.
//
// Whisper expects ISO 639-1 codes. Configuration may hold BCP 47 tags,
// ISO 639-2 codes or English language names; Normalize folds all of them
// onto the two-letter form using golang.org/x/text.
package language
