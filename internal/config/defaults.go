package config

const (
	defaultConfigPath     = "~/.config/audioscribe/config.toml"
	defaultModel          = "whisper-1"
	defaultLanguage       = "en"
	defaultTimeoutSeconds = 300
	defaultConcurrency    = 1
	defaultMaxAttempts    = 1
	// defaultMaxUploadBytes is the Whisper API payload ceiling (25 MiB).
	defaultMaxUploadBytes = 25 * 1024 * 1024
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultBitrateKbps    = 192
	defaultSampleRate     = 44100
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	maxConcurrency        = 8
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir(),
		},
		Transcription: Transcription{
			Model:          defaultModel,
			Language:       defaultLanguage,
			TimeoutSeconds: defaultTimeoutSeconds,
			Concurrency:    defaultConcurrency,
			MaxAttempts:    defaultMaxAttempts,
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			BitrateKbps:   defaultBitrateKbps,
			SampleRate:    defaultSampleRate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
