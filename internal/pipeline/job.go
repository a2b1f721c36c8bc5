package pipeline

import (
	"strings"

	"github.com/google/uuid"

	"audioscribe/internal/audio"
	"audioscribe/internal/config"
	"audioscribe/internal/language"
	"audioscribe/internal/services"
)

// DefaultMaxBytes is the backend payload ceiling (25 MiB).
const DefaultMaxBytes int64 = 25 * 1024 * 1024

// Job describes one transcription request. It is immutable once built.
type Job struct {
	inputPath       string
	language        string
	acceptedFormats []string
	maxBytes        int64
	runID           string
}

// JobOption customizes a Job.
type JobOption func(*Job)

// WithLanguage pins the transcription language.
func WithLanguage(code string) JobOption {
	return func(j *Job) { j.language = code }
}

// WithAcceptedFormats replaces the extension allowlist that skips conversion.
func WithAcceptedFormats(formats ...string) JobOption {
	return func(j *Job) { j.acceptedFormats = audio.NormalizeFormats(formats) }
}

// WithMaxBytes overrides the per-unit payload ceiling.
func WithMaxBytes(n int64) JobOption {
	return func(j *Job) { j.maxBytes = n }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) JobOption {
	return func(j *Job) { j.runID = strings.TrimSpace(id) }
}

// NewJob validates and builds a Job for inputPath.
func NewJob(inputPath string, opts ...JobOption) (Job, error) {
	job := Job{
		inputPath:       strings.TrimSpace(inputPath),
		language:        language.DefaultCode,
		acceptedFormats: append([]string(nil), audio.AcceptedFormats...),
		maxBytes:        DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(&job)
	}

	if job.inputPath == "" {
		return Job{}, services.Wrap(services.ErrNotFound, "validating", "job", "input path is empty", nil)
	}
	lang, err := language.Normalize(job.language)
	if err != nil {
		return Job{}, services.Wrap(services.ErrConfiguration, "validating", "job", "language", err)
	}
	job.language = lang
	if job.maxBytes <= 0 {
		return Job{}, services.Wrap(services.ErrConfiguration, "validating", "job", "max bytes must be positive", nil)
	}
	if job.runID == "" {
		job.runID = uuid.NewString()
	}
	return job, nil
}

// NewJobFromConfig builds a Job using the configured language and ceiling.
func NewJobFromConfig(cfg *config.Config, inputPath string, opts ...JobOption) (Job, error) {
	base := []JobOption{}
	if cfg != nil {
		base = append(base,
			WithLanguage(cfg.Transcription.Language),
			WithMaxBytes(cfg.Transcription.MaxUploadBytes),
		)
	}
	return NewJob(inputPath, append(base, opts...)...)
}

// InputPath returns the source file path.
func (j Job) InputPath() string { return j.inputPath }

// Language returns the pinned ISO 639-1 language.
func (j Job) Language() string { return j.language }

// AcceptedFormats returns a copy of the extension allowlist.
func (j Job) AcceptedFormats() []string { return append([]string(nil), j.acceptedFormats...) }

// MaxBytes returns the per-unit payload ceiling.
func (j Job) MaxBytes() int64 { return j.maxBytes }

// RunID returns the identifier namespacing this job's workspace.
func (j Job) RunID() string { return j.runID }
