package convert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"audioscribe/internal/convert"
	"audioscribe/internal/services"
	"audioscribe/internal/testsupport"
)

func newConverter(t *testing.T, runner services.CommandRunner) *convert.Converter {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return convert.New(cfg, runner, nil)
}

func TestConvertWritesMP3IntoOutputDir(t *testing.T) {
	runner := testsupport.NewMediaRunner()
	conv := newConverter(t, runner)

	dir := t.TempDir()
	input := filepath.Join(dir, "voice memo.flac")
	testsupport.WriteFile(t, input, 1024)
	runner.SetDuration(input, 30)
	outDir := filepath.Join(dir, "work")

	output, err := conv.Convert(context.Background(), input, outDir)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if output != filepath.Join(outDir, "voice memo.mp3") {
		t.Fatalf("unexpected output path %q", output)
	}
	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() != 30*testsupport.DefaultBytesPerSecond+testsupport.DefaultContainerOverhead {
		t.Fatalf("unexpected output size %d", info.Size())
	}
	if original, err := os.Stat(input); err != nil || original.Size() != 1024 {
		t.Fatalf("input must stay untouched: %v", err)
	}

	calls := runner.EncodeCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(calls))
	}
	args := calls[0]
	for _, want := range []string{"-i", input, "-vn", "libmp3lame", "192k", "44100"} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected %q in args %v", want, args)
		}
	}
	if slices.Contains(args, "-map") {
		t.Fatalf("single-stream input should not map streams: %v", args)
	}
	if args[len(args)-1] != output {
		t.Fatalf("expected output as final arg, got %v", args)
	}
}

func TestConvertReportsFFmpegFailure(t *testing.T) {
	runner := testsupport.NewMediaRunner()
	runner.FailEncode = func([]string) error { return errors.New("Invalid data found when processing input") }
	conv := newConverter(t, runner)

	dir := t.TempDir()
	input := filepath.Join(dir, "broken.ogg")
	testsupport.WriteFile(t, input, 10)

	_, err := conv.Convert(context.Background(), input, dir)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	var cmdErr *services.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected command error in chain, got %v", err)
	}
	if cmdErr.Result.ExitCode != 1 || !strings.Contains(cmdErr.Result.Stderr, "Invalid data") {
		t.Fatalf("expected captured exit code and stderr, got %+v", cmdErr.Result)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "broken.mp3")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}
}

func TestConvertRejectsSilentFailure(t *testing.T) {
	runner := testsupport.NewMediaRunner()
	runner.SkipOutput = true
	conv := newConverter(t, runner)

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.aac")
	testsupport.WriteFile(t, input, 10)

	if _, err := conv.Convert(context.Background(), input, dir); !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error when ffmpeg writes nothing, got %v", err)
	}
}

func TestConvertMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Media.FFmpegBinary = "audioscribe-test-missing-ffmpeg"
	cfg.Media.FFprobeBinary = "audioscribe-test-missing-ffprobe"
	conv := convert.New(cfg, services.ExecRunner{}, nil)

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.aac")
	testsupport.WriteFile(t, input, 10)

	_, err := conv.Convert(context.Background(), input, dir)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if !services.IsBinaryMissing(err) {
		t.Fatalf("expected missing binary cause, got %v", err)
	}
}

func TestConvertMissingInput(t *testing.T) {
	conv := newConverter(t, testsupport.NewMediaRunner())
	_, err := conv.Convert(context.Background(), filepath.Join(t.TempDir(), "nope.flac"), t.TempDir())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArgsForWindow(t *testing.T) {
	conv := &convert.Converter{BitrateKbps: 128, SampleRate: 48000}
	args := conv.Args(convert.Window{
		Input:       "in.mp3",
		Output:      "out.mp3",
		Start:       90 * time.Second,
		Length:      1500 * time.Millisecond,
		StreamIndex: 2,
	})
	joined := strings.Join(args, " ")
	want := "-hide_banner -nostdin -y -ss 90.000 -t 1.500 -i in.mp3 -map 0:2 -vn -c:a libmp3lame -b:a 128k -ar 48000 out.mp3"
	if joined != want {
		t.Fatalf("unexpected args\n got: %s\nwant: %s", joined, want)
	}
}
