package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"audioscribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConversion, "converting", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"converting", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", services.Wrap(services.ErrNotFound, "validating", "stat", "missing", nil), true},
		{"invalid audio", services.Wrap(services.ErrInvalidAudio, "splitting", "probe", "corrupt", nil), true},
		{"conversion", services.Wrap(services.ErrConversion, "converting", "ffmpeg", "exit 1", nil), true},
		{"transcription", services.Wrap(services.ErrTranscription, "transcribing", "unit 0", "rejected", nil), false},
		{"cleanup", services.Wrap(services.ErrCleanup, "cleaning_up", "remove", "busy", nil), false},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.want {
			t.Fatalf("%s: IsFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	transient := services.Wrap(services.ErrTranscription, "transcribing", "unit 0", "rate limited", services.ErrTransient)
	if !services.IsRetryable(transient) {
		t.Fatal("expected transient failure to be retryable")
	}
	timeout := services.Wrap(services.ErrTranscription, "transcribing", "unit 0", "deadline", services.ErrTimeout)
	if !services.IsRetryable(timeout) {
		t.Fatal("expected timeout to be retryable")
	}
	rejected := services.Wrap(services.ErrTranscription, "transcribing", "unit 0", "bad audio", nil)
	if services.IsRetryable(rejected) {
		t.Fatal("expected rejection to be final")
	}
	canceled := fmt.Errorf("%w: %w", services.ErrTimeout, context.Canceled)
	if services.IsRetryable(canceled) {
		t.Fatal("expected cancellation to never retry")
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := map[error]int{
		nil: services.ExitOK,
		services.Wrap(services.ErrNotFound, "validating", "", "", nil):         services.ExitNotFound,
		services.Wrap(services.ErrInvalidAudio, "splitting", "", "", nil):     services.ExitInvalidAudio,
		services.Wrap(services.ErrConversion, "converting", "", "", nil):      services.ExitConversion,
		services.Wrap(services.ErrTranscription, "transcribing", "", "", nil): services.ExitTranscription,
		services.Wrap(services.ErrConfiguration, "config", "", "", nil):       services.ExitConfiguration,
		errors.New("other"): services.ExitFailure,
	}
	for err, want := range cases {
		if got := services.ExitCode(err); got != want {
			t.Fatalf("ExitCode(%v) = %d, want %d", err, got, want)
		}
	}
}
