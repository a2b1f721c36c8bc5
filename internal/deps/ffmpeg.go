package deps

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"audioscribe/internal/services"
)

// MP3Encoder is the ffmpeg encoder the converter and splitter depend on.
const MP3Encoder = "libmp3lame"

// CheckFFmpegEncoder reports whether ffmpegBinary was built with encoder.
// Distribution builds without LAME support pass a plain PATH lookup but fail
// every conversion.
func CheckFFmpegEncoder(ctx context.Context, runner services.CommandRunner, ffmpegBinary, encoder string) Status {
	status := Status{
		Name:        "FFmpeg " + encoder,
		Command:     ffmpegBinary,
		Description: "MP3 encoder used for normalization and chunking",
	}
	if runner == nil {
		runner = services.ExecRunner{}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := runner.Run(checkCtx, ffmpegBinary, "-hide_banner", "-encoders")
	if err != nil {
		if services.IsBinaryMissing(err) {
			status.Detail = fmt.Sprintf("binary %q not found", ffmpegBinary)
		} else {
			status.Detail = fmt.Sprintf("encoder listing failed: %v", err)
		}
		return status
	}
	if hasEncoder(result.Stdout, encoder) {
		status.Available = true
		return status
	}
	status.Detail = fmt.Sprintf("ffmpeg built without %s", encoder)
	return status
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like
// " A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)".
func hasEncoder(listing, encoder string) bool {
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == encoder {
			return true
		}
	}
	return false
}
