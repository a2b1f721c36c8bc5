package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if err := ensurePositiveMap(map[string]int{
		"transcription.timeout_seconds": c.Transcription.TimeoutSeconds,
		"transcription.concurrency":     c.Transcription.Concurrency,
		"transcription.max_attempts":    c.Transcription.MaxAttempts,
	}); err != nil {
		return err
	}
	if c.Transcription.Concurrency > maxConcurrency {
		return fmt.Errorf("transcription.concurrency must be <= %d", maxConcurrency)
	}
	if c.Transcription.MaxUploadBytes < 1024*1024 {
		return errors.New("transcription.max_upload_bytes must be at least 1 MiB")
	}
	if c.Transcription.MaxUploadBytes > defaultMaxUploadBytes {
		return fmt.Errorf("transcription.max_upload_bytes must not exceed the backend limit of %d bytes", defaultMaxUploadBytes)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.BitrateKbps < 32 || c.Media.BitrateKbps > 320 {
		return errors.New("media.bitrate_kbps must be between 32 and 320")
	}
	switch c.Media.SampleRate {
	case 8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000:
	default:
		return fmt.Errorf("media.sample_rate %d is not an MP3 sample rate", c.Media.SampleRate)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
