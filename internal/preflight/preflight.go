package preflight

import (
	"context"

	"audioscribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the local preflight checks for the given config. The API
// reachability check is network-bound and only runs when checkAPI is set.
func RunAll(ctx context.Context, cfg *config.Config, checkAPI bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if cfg.Transcription.APIKey == "" {
		results = append(results, Result{Name: "API key", Detail: "missing (set transcription.api_key or OPENAI_API_KEY)"})
	} else {
		results = append(results, Result{Name: "API key", Passed: true, Detail: "configured"})
		if checkAPI {
			results = append(results, CheckTranscriptionAPI(ctx, cfg.Transcription))
		}
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
