package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"audioscribe/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	Duration    string            `json:"duration"`
	BitRate     string            `json:"bit_rate"`
	SampleRate  string            `json:"sample_rate"`
	Channels    int               `json:"channels"`
	Tags        map[string]string `json:"tags"`
	Disposition map[string]int    `json:"disposition"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Prober runs ffprobe through a CommandRunner.
type Prober struct {
	Binary string
	Runner services.CommandRunner
}

// New returns a Prober for binary using the process runner.
func New(binary string) *Prober {
	return &Prober{Binary: binary, Runner: services.ExecRunner{}}
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	binary := "ffprobe"
	var runner services.CommandRunner = services.ExecRunner{}
	if p != nil {
		if trimmed := strings.TrimSpace(p.Binary); trimmed != "" {
			binary = trimmed
		}
		if p.Runner != nil {
			runner = p.Runner
		}
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	out, err := runner.Run(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(out.Stdout), &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = []byte(out.Stdout)
	return result, nil
}

// Inspect is a convenience wrapper around Prober.Inspect using the process runner.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	return New(binary).Inspect(ctx, path)
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if stream.IsAudio() {
			count++
		}
	}
	return count
}

// IsAudio reports whether the stream carries audio.
func (s Stream) IsAudio() bool {
	return strings.EqualFold(s.CodecType, "audio")
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
// When the container omits a duration the longest audio stream duration is used.
func (r Result) DurationSeconds() float64 {
	duration := parseFloat(r.Format.Duration)
	if duration > 0 || math.IsNaN(duration) {
		return duration
	}
	for _, stream := range r.Streams {
		if !stream.IsAudio() {
			continue
		}
		if value := parseFloat(stream.Duration); value > duration {
			duration = value
		}
	}
	return duration
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// CheckDecodableAudio reports why the probe does not describe playable audio,
// or nil when at least one audio stream and a positive duration are present.
func (r Result) CheckDecodableAudio() error {
	if r.AudioStreamCount() == 0 {
		return errors.New("no audio stream")
	}
	duration := r.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return errors.New("no positive duration")
	}
	return nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || strings.EqualFold(cleaned, "N/A") {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
