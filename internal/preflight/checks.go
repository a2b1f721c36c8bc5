package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sys/unix"

	"audioscribe/internal/config"
	"audioscribe/internal/deps"
	"audioscribe/internal/services"
)

// CheckTranscriptionAPI verifies that the transcription endpoint is reachable
// and the key is accepted. It makes a single model-listing request with a
// 30-second timeout and no retries.
func CheckTranscriptionAPI(ctx context.Context, cfg config.Transcription) Result {
	const name = "Transcription API"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	models, err := client.ListModels(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	if cfg.Model == "" {
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	}
	for _, model := range models.Models {
		if model.ID == cfg.Model {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s available)", cfg.Model)}
		}
	}
	// Compatible servers often omit the listing; reachability is what counts.
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s not listed)", cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Dependency names reported by CheckSystemDeps.
const (
	DepFFmpeg  = "FFmpeg"
	DepFFprobe = "FFprobe"
)

// CheckSystemDeps evaluates the external binaries for the given config. Both
// the transcribe path and the deps command use this so the requirements list
// lives in one place. The encoder probe is skipped when ffmpeg is missing.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, runner services.CommandRunner) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        DepFFmpeg,
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for conversion and chunking",
		},
		{
			Name:        DepFFprobe,
			Command:     cfg.Media.FFprobeBinary,
			Description: "Required for format probing",
		},
	}
	statuses := deps.CheckBinaries(requirements)
	if statuses[0].Available {
		encoder := deps.CheckFFmpegEncoder(ctx, runner, statuses[0].Path, deps.MP3Encoder)
		statuses = append(statuses, encoder)
	}
	return statuses
}

// summarizeAPIError produces a human-readable summary for API check failures.
func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		default:
			return fmt.Sprintf("API check failed (%d)", apiErr.HTTPStatusCode)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		default:
			return fmt.Sprintf("API check failed (%d)", reqErr.HTTPStatusCode)
		}
	}
	return err.Error()
}
