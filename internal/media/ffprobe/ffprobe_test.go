package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"

	"audioscribe/internal/services"
)

type stubRunner struct {
	stdout string
	err    error
	name   string
	args   []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) (services.CommandResult, error) {
	s.name = name
	s.args = args
	return services.CommandResult{Command: name, Args: args, Stdout: s.stdout}, s.err
}

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
	if err := result.CheckDecodableAudio(); err != nil {
		t.Fatalf("expected decodable audio, got %v", err)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "61.5"}},
		Format:  Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 61.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func TestCheckDecodableAudio(t *testing.T) {
	noAudio := Result{Streams: []Stream{{CodecType: "video"}}, Format: Format{Duration: "10"}}
	if err := noAudio.CheckDecodableAudio(); err == nil {
		t.Fatal("expected error without audio stream")
	}
	zero := Result{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "0"}}
	if err := zero.CheckDecodableAudio(); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestProberInspectParsesRunnerOutput(t *testing.T) {
	runner := &stubRunner{stdout: `{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3","channels":2,"tags":{"language":"eng"}}],"format":{"duration":"12.5","size":"300000","format_name":"mp3"}}`}
	prober := &Prober{Binary: "/opt/ffprobe", Runner: runner}

	result, err := prober.Inspect(context.Background(), "/tmp/in.mp3")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if runner.name != "/opt/ffprobe" {
		t.Fatalf("unexpected binary %q", runner.name)
	}
	if last := runner.args[len(runner.args)-1]; last != "/tmp/in.mp3" {
		t.Fatalf("expected path as last arg, got %q", last)
	}
	if result.DurationSeconds() != 12.5 || result.SizeBytes() != 300000 {
		t.Fatalf("unexpected result %+v", result.Format)
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw json retained")
	}
}

func TestProberInspectErrors(t *testing.T) {
	if _, err := (&Prober{Runner: &stubRunner{}}).Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
	cause := errors.New("exit 1")
	if _, err := (&Prober{Runner: &stubRunner{err: cause}}).Inspect(context.Background(), "x"); !errors.Is(err, cause) {
		t.Fatalf("expected runner error to be wrapped, got %v", err)
	}
	if _, err := (&Prober{Runner: &stubRunner{stdout: "not json"}}).Inspect(context.Background(), "x"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPrimaryAudioStreamPrefersPinnedLanguage(t *testing.T) {
	result := Result{Streams: []Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio", Channels: 6, Tags: map[string]string{"language": "spa"}, Disposition: map[string]int{"default": 1}},
		{Index: 2, CodecType: "audio", Channels: 2, Tags: map[string]string{"language": "eng"}},
	}}
	stream, ok := result.PrimaryAudioStream("en")
	if !ok || stream.Index != 2 {
		t.Fatalf("expected english stream 2, got %+v ok=%v", stream, ok)
	}

	stream, ok = result.PrimaryAudioStream("de")
	if !ok || stream.Index != 1 {
		t.Fatalf("expected default stream 1 without language match, got %+v", stream)
	}

	if _, ok := (Result{Streams: []Stream{{CodecType: "video"}}}).PrimaryAudioStream("en"); ok {
		t.Fatal("expected no stream for video-only container")
	}
}
