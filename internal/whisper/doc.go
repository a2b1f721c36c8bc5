// Package whisper submits audio units to the OpenAI transcription endpoint.
//
// Client never returns an error value: every failure, including rate limits,
// server errors, network faults and per-unit deadlines, comes back as a
// failed audio.Result so one bad unit cannot abort a batch. Failures carry
// services.ErrTranscription plus ErrTransient or ErrTimeout when a retry
// could help. The client itself never retries.
package whisper
