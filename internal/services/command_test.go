package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"audioscribe/internal/services"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	script := writeScript(t, `echo "out:$1"; echo "err" 1>&2; exit 0`)

	result, err := services.ExecRunner{}.Run(context.Background(), script, "arg")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "out:arg" {
		t.Fatalf("unexpected stdout %q", result.Stdout)
	}
	if strings.TrimSpace(result.Stderr) != "err" {
		t.Fatalf("unexpected stderr %q", result.Stderr)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	script := writeScript(t, `echo "bad input" 1>&2; exit 3`)

	result, err := services.ExecRunner{}.Run(context.Background(), script)
	if err == nil {
		t.Fatal("expected error")
	}
	var cmdErr *services.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", err)
	}
	if result.ExitCode != 3 || cmdErr.Result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
	if !strings.Contains(err.Error(), "bad input") {
		t.Fatalf("expected stderr in message, got %q", err.Error())
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := services.ExecRunner{}.Run(context.Background(), "clearly-not-present-binary")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsBinaryMissing(err) {
		t.Fatalf("expected missing binary classification, got %v", err)
	}
}

func TestExecRunnerMissingAbsoluteBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "ffmpeg")
	_, err := services.ExecRunner{}.Run(context.Background(), missing, "-version")
	if !services.IsBinaryMissing(err) {
		t.Fatalf("expected missing binary classification, got %v", err)
	}
}
