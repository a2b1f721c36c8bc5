package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audioscribe/internal/config"
	"audioscribe/internal/logging"
	"audioscribe/internal/media/ffprobe"
	"audioscribe/internal/services"
	"audioscribe/internal/textutil"
)

const (
	stageName = "converting"

	defaultBitrateKbps = 192
	defaultSampleRate  = 44100
)

// Converter runs ffmpeg to produce MP3 files.
type Converter struct {
	FFmpeg      string
	Runner      services.CommandRunner
	Prober      *ffprobe.Prober
	BitrateKbps int
	SampleRate  int
	// Language selects the audio stream in multi-track containers.
	Language string
	Logger   *slog.Logger
}

// New builds a Converter from configuration.
func New(cfg *config.Config, runner services.CommandRunner, logger *slog.Logger) *Converter {
	if runner == nil {
		runner = services.ExecRunner{}
	}
	c := &Converter{
		Runner: runner,
		Logger: logging.NewComponentLogger(logger, "convert"),
	}
	if cfg != nil {
		c.FFmpeg = cfg.Media.FFmpegBinary
		c.BitrateKbps = cfg.Media.BitrateKbps
		c.SampleRate = cfg.Media.SampleRate
		c.Language = cfg.Transcription.Language
		c.Prober = &ffprobe.Prober{Binary: cfg.Media.FFprobeBinary, Runner: runner}
	} else {
		c.Prober = &ffprobe.Prober{Runner: runner}
	}
	return c
}

// Window describes one encode: a source, a destination, and an optional time range.
type Window struct {
	Input  string
	Output string
	Start  time.Duration
	// Length of zero encodes through the end of the input.
	Length time.Duration
	// StreamIndex selects a specific input stream; negative means ffmpeg's default.
	StreamIndex int
}

// Convert transcodes inputPath into <outputDir>/<stem>.mp3 and returns the new path.
// The input is never modified.
func (c *Converter) Convert(ctx context.Context, inputPath, outputDir string) (string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, stageName, "stat input", inputPath, err)
		}
		return "", services.Wrap(services.ErrConversion, stageName, "stat input", inputPath, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrConversion, stageName, "stat input", inputPath+" is a directory", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConversion, stageName, "prepare output dir", outputDir, err)
	}

	output := filepath.Join(outputDir, textutil.StemName(inputPath)+".mp3")
	if sameFile(inputPath, output) {
		return "", services.Wrap(services.ErrConversion, stageName, "plan output", "output would overwrite input "+inputPath, nil)
	}

	window := Window{Input: inputPath, Output: output, StreamIndex: -1}
	if probe, err := c.prober().Inspect(ctx, inputPath); err == nil {
		if stream, ok := probe.PrimaryAudioStream(c.Language); ok && probe.AudioStreamCount() > 1 {
			window.StreamIndex = stream.Index
			c.logger().Debug("selected audio stream",
				logging.Int("stream_index", stream.Index),
				logging.Int("audio_streams", probe.AudioStreamCount()),
			)
		}
	} else {
		c.logger().Debug("source probe failed; letting ffmpeg decide", logging.Error(err))
	}

	started := time.Now()
	if _, err := c.EncodeWindow(ctx, window); err != nil {
		return "", err
	}
	c.logger().Info("converted audio",
		logging.String("input", inputPath),
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started)),
	)
	return output, nil
}

// EncodeWindow runs one ffmpeg encode and verifies the output is playable audio.
// On any failure the partial output is removed.
func (c *Converter) EncodeWindow(ctx context.Context, w Window) (int64, error) {
	args := c.Args(w)
	result, err := c.runner().Run(ctx, c.binary(), args...)
	if err != nil {
		_ = os.Remove(w.Output)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		message := fmt.Sprintf("ffmpeg exited %d", result.ExitCode)
		if services.IsBinaryMissing(err) {
			message = fmt.Sprintf("ffmpeg binary %q not found", c.binary())
		}
		logging.WarnWithContext(c.logger(), "ffmpeg failed", "ffmpeg_failed",
			logging.String("input", w.Input),
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr", tail(result.Stderr, 512)),
			logging.String(logging.FieldErrorHint, "check that the input is readable audio and ffmpeg supports its codec"),
			logging.String(logging.FieldImpact, "input cannot be normalized"),
		)
		return 0, services.Wrap(services.ErrConversion, stageName, "ffmpeg", message, err)
	}

	size, err := c.verify(ctx, w.Output)
	if err != nil {
		_ = os.Remove(w.Output)
		return 0, services.Wrap(services.ErrConversion, stageName, "verify output", w.Output, err)
	}
	return size, nil
}

// Args returns the full ffmpeg argument list for w.
func (c *Converter) Args(w Window) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}
	if w.Start > 0 {
		args = append(args, "-ss", formatSeconds(w.Start))
	}
	if w.Length > 0 {
		args = append(args, "-t", formatSeconds(w.Length))
	}
	args = append(args, "-i", w.Input)
	if w.StreamIndex >= 0 {
		args = append(args, "-map", "0:"+strconv.Itoa(w.StreamIndex))
	}
	args = append(args, c.CodecArgs()...)
	return append(args, w.Output)
}

// CodecArgs returns the MP3 encoder settings shared by conversion and splitting.
func (c *Converter) CodecArgs() []string {
	return []string{
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(c.Bitrate()) + "k",
		"-ar", strconv.Itoa(c.sampleRate()),
	}
}

// Bitrate returns the encode bitrate in kbps.
func (c *Converter) Bitrate() int {
	if c == nil || c.BitrateKbps <= 0 {
		return defaultBitrateKbps
	}
	return c.BitrateKbps
}

// Probe inspects path with the converter's ffprobe.
func (c *Converter) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return c.prober().Inspect(ctx, path)
}

func (c *Converter) verify(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("output missing: %w", err)
	}
	if info.Size() == 0 {
		return 0, errors.New("output is empty")
	}
	probe, err := c.prober().Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := probe.CheckDecodableAudio(); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (c *Converter) binary() string {
	if c == nil || strings.TrimSpace(c.FFmpeg) == "" {
		return "ffmpeg"
	}
	return strings.TrimSpace(c.FFmpeg)
}

func (c *Converter) sampleRate() int {
	if c == nil || c.SampleRate <= 0 {
		return defaultSampleRate
	}
	return c.SampleRate
}

func (c *Converter) runner() services.CommandRunner {
	if c == nil || c.Runner == nil {
		return services.ExecRunner{}
	}
	return c.Runner
}

func (c *Converter) prober() *ffprobe.Prober {
	if c == nil || c.Prober == nil {
		return &ffprobe.Prober{Runner: c.runner()}
	}
	return c.Prober
}

func (c *Converter) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return logging.NewNop()
	}
	return c.Logger
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
