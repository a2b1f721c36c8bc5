package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"audioscribe/internal/services"
)

// DefaultBytesPerSecond is what a 192 kbps MP3 encoder writes per second.
const DefaultBytesPerSecond = 192 * 1000 / 8

// DefaultContainerOverhead approximates the fixed bytes libmp3lame adds to
// every file (Xing/LAME info frame plus frame padding).
const DefaultContainerOverhead = 627

// MediaRunner is a services.CommandRunner that imitates ffmpeg and ffprobe.
// Encodes write a file whose size is proportional to the encoded duration;
// probes report one audio stream with the duration recorded for the path, or
// one derived from its size.
type MediaRunner struct {
	// BytesPerSecond controls the size of files the fake encoder writes.
	BytesPerSecond int64
	// Overhead is added to every encoded file on top of the audio payload.
	Overhead int64
	// FailEncode, when set, is consulted before every ffmpeg call and its
	// error becomes a non-zero exit.
	FailEncode func(args []string) error
	// SkipOutput makes ffmpeg exit 0 without writing the output file.
	SkipOutput bool

	mu        sync.Mutex
	durations map[string]float64
	invalid   map[string]bool
	calls     []services.CommandResult
}

// NewMediaRunner returns a MediaRunner writing 192 kbps worth of bytes per second.
func NewMediaRunner() *MediaRunner {
	return &MediaRunner{
		BytesPerSecond: DefaultBytesPerSecond,
		Overhead:       DefaultContainerOverhead,
		durations:      make(map[string]float64),
		invalid:        make(map[string]bool),
	}
}

// SetDuration records the duration probes report for path.
func (m *MediaRunner) SetDuration(path string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[path] = seconds
}

// MarkInvalid makes probes of path fail the way ffprobe fails on garbage input.
func (m *MediaRunner) MarkInvalid(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalid[path] = true
}

// Calls returns every recorded invocation.
func (m *MediaRunner) Calls() []services.CommandResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.CommandResult(nil), m.calls...)
}

// EncodeCalls returns the argument lists of recorded ffmpeg invocations.
func (m *MediaRunner) EncodeCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]string
	for _, call := range m.calls {
		if isTool(call.Command, "ffmpeg") {
			out = append(out, call.Args)
		}
	}
	return out
}

// Run dispatches on the binary name.
func (m *MediaRunner) Run(ctx context.Context, name string, args ...string) (services.CommandResult, error) {
	result := services.CommandResult{Command: name, Args: append([]string(nil), args...)}
	m.mu.Lock()
	m.calls = append(m.calls, result)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return m.fail(result, err.Error(), err)
	}
	switch {
	case isTool(name, "ffprobe"):
		return m.probe(result, args)
	case isTool(name, "ffmpeg"):
		return m.encode(result, args)
	default:
		return m.fail(result, "unknown command", fmt.Errorf("exec: %q: %w", name, exec.ErrNotFound))
	}
}

func isTool(name, tool string) bool {
	return strings.Contains(filepath.Base(name), tool)
}

func (m *MediaRunner) fail(result services.CommandResult, stderr string, err error) (services.CommandResult, error) {
	result.ExitCode = 1
	result.Stderr = stderr
	return result, &services.CommandError{Result: result, Err: err}
}

func (m *MediaRunner) probe(result services.CommandResult, args []string) (services.CommandResult, error) {
	if len(args) == 0 {
		return m.fail(result, "missing input", errors.New("exit status 1"))
	}
	path := args[len(args)-1]
	info, err := os.Stat(path)
	if err != nil {
		return m.fail(result, path+": No such file or directory", errors.New("exit status 1"))
	}
	m.mu.Lock()
	invalid := m.invalid[path]
	m.mu.Unlock()
	if invalid {
		return m.fail(result, path+": Invalid data found when processing input", errors.New("exit status 1"))
	}

	duration := m.durationOf(path, info.Size())
	payload := map[string]any{
		"streams": []map[string]any{{
			"index":       0,
			"codec_type":  "audio",
			"codec_name":  "mp3",
			"channels":    2,
			"sample_rate": "44100",
		}},
		"format": map[string]any{
			"filename":    path,
			"nb_streams":  1,
			"duration":    strconv.FormatFloat(duration, 'f', 3, 64),
			"size":        strconv.FormatInt(info.Size(), 10),
			"format_name": "mp3",
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return m.fail(result, err.Error(), err)
	}
	result.Stdout = string(data)
	return result, nil
}

func (m *MediaRunner) encode(result services.CommandResult, args []string) (services.CommandResult, error) {
	if m.FailEncode != nil {
		if err := m.FailEncode(args); err != nil {
			return m.fail(result, err.Error(), errors.New("exit status 1"))
		}
	}
	var input string
	var start, window float64
	window = -1
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-i":
			input = args[i+1]
		case "-ss":
			start, _ = strconv.ParseFloat(args[i+1], 64)
		case "-t":
			window, _ = strconv.ParseFloat(args[i+1], 64)
		}
	}
	if input == "" || len(args) == 0 {
		return m.fail(result, "missing input", errors.New("exit status 1"))
	}
	output := args[len(args)-1]
	info, err := os.Stat(input)
	if err != nil {
		return m.fail(result, input+": No such file or directory", errors.New("exit status 1"))
	}

	m.mu.Lock()
	invalid := m.invalid[input]
	m.mu.Unlock()
	if invalid {
		return m.fail(result, input+": Invalid data found when processing input", errors.New("exit status 1"))
	}
	if m.SkipOutput {
		return result, nil
	}

	remaining := m.durationOf(input, info.Size()) - start
	if remaining < 0 {
		remaining = 0
	}
	duration := remaining
	if window >= 0 && window < remaining {
		duration = window
	}
	size := int64(duration*float64(m.bytesPerSecond())) + max(m.Overhead, 0)
	if err := os.WriteFile(output, make([]byte, size), 0o644); err != nil {
		return m.fail(result, err.Error(), err)
	}
	m.SetDuration(output, duration)
	return result, nil
}

func (m *MediaRunner) durationOf(path string, size int64) float64 {
	m.mu.Lock()
	duration, ok := m.durations[path]
	m.mu.Unlock()
	if ok {
		return duration
	}
	return float64(size) / float64(m.bytesPerSecond())
}

func (m *MediaRunner) bytesPerSecond() int64 {
	if m.BytesPerSecond <= 0 {
		return DefaultBytesPerSecond
	}
	return m.BytesPerSecond
}
