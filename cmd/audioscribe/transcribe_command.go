package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"audioscribe/internal/config"
	"audioscribe/internal/deps"
	"audioscribe/internal/fileutil"
	"audioscribe/internal/language"
	"audioscribe/internal/logging"
	"audioscribe/internal/pipeline"
	"audioscribe/internal/preflight"
	"audioscribe/internal/services"
)

type transcribeOptions struct {
	language    string
	concurrency int
	details     bool
	jsonOutput  bool
	quiet       bool
	output      string
}

func bindTranscribeFlags(cmd *cobra.Command, opts *transcribeOptions) {
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Spoken language (ISO 639 code); defaults to transcription.language")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Units transcribed in parallel; defaults to transcription.concurrency")
	cmd.Flags().BoolVar(&opts.details, "details", false, "Print a per-unit results table to stderr")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Write the transcript and per-unit results as JSON to stdout")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress the summary line on stderr")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the transcript text to this file instead of stdout")
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	opts := &transcribeOptions{}
	cmd := &cobra.Command{
		Use:   "transcribe <path>",
		Short: "Transcribe one audio or video file",
		Long: `Transcribe one audio or video file.

Inputs in a format the API does not accept are converted to MP3 first. Files
larger than transcription.max_upload_bytes are split into chunks that are
transcribed separately and joined in order. Temporary files are always removed,
including when the run is interrupted.

A run where only some chunks fail still prints the text that succeeded and
exits 0; use --details or --json to see which chunks are missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, ctx, args[0], opts)
		},
	}
	bindTranscribeFlags(cmd, opts)
	return cmd
}

func runTranscribe(cmd *cobra.Command, ctx *commandContext, inputPath string, opts *transcribeOptions) error {
	loaded, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := applyTranscribeOverrides(loaded, opts)
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, false)); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "", describeFailedChecks(failed), nil)
	}

	p, err := pipelineFactory(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	job, err := pipeline.NewJobFromConfig(cfg, inputPath)
	if err != nil {
		return err
	}

	transcript, runErr := p.Run(cmd.Context(), job)

	switch {
	case opts.output != "" && transcript.Text != "":
		target, err := config.ExpandPath(opts.output)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		if err := fileutil.WriteFileAtomic(target, []byte(transcript.Text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	case opts.jsonOutput:
	case transcript.Text != "":
		fmt.Fprintln(cmd.OutOrStdout(), transcript.Text)
	}
	if opts.jsonOutput {
		if err := writeJSON(cmd, newTranscriptView(transcript, runErr)); err != nil {
			return err
		}
	}

	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(errOut)
	if opts.details && len(transcript.Results) > 0 {
		fmt.Fprint(errOut, renderResultsTable(transcript))
		fmt.Fprintln(errOut)
	}
	if !opts.quiet {
		fmt.Fprintln(errOut, renderSummary(transcript, runErr, colorize))
	}
	return runErr
}

// applyTranscribeOverrides returns a copy of cfg with flag overrides applied
// and revalidated.
func applyTranscribeOverrides(cfg *config.Config, opts *transcribeOptions) (*config.Config, error) {
	out := *cfg
	if code := strings.TrimSpace(opts.language); code != "" {
		normalized, err := language.Normalize(code)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "config", "language flag", "", err)
		}
		out.Transcription.Language = normalized
	}
	if opts.concurrency != 0 {
		out.Transcription.Concurrency = opts.concurrency
	}
	if err := out.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "flags", "", err)
	}
	return &out, nil
}

// newProductionPipeline refuses to start only when ffprobe is missing, since
// every run probes its input. A missing ffmpeg or MP3 encoder is logged and
// left to surface as a conversion error on inputs that need re-encoding.
func newProductionPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	statuses := preflight.CheckSystemDeps(ctx, cfg, services.ExecRunner{})
	if err := requireRunDeps(statuses, logger); err != nil {
		return nil, err
	}
	return pipeline.NewFromConfig(cfg, logger)
}

func requireRunDeps(statuses []deps.Status, logger *slog.Logger) error {
	var blocking []string
	for _, status := range deps.MissingRequired(statuses) {
		if status.Name == preflight.DepFFprobe {
			blocking = append(blocking, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
			continue
		}
		if logger != nil {
			logging.WarnWithContext(logger, "dependency unavailable; conversion and chunking will fail", "dependency_missing",
				logging.String("dependency", status.Name),
				logging.String("detail", status.Detail),
				logging.String(logging.FieldImpact, "only accepted formats under the size ceiling can be transcribed"),
				logging.String(logging.FieldErrorHint, "run `audioscribe deps` for details"),
			)
		}
	}
	if len(blocking) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "dependencies",
			"missing "+strings.Join(blocking, ", ")+"; run `audioscribe deps` for details", nil)
	}
	return nil
}

func describeFailedChecks(failed []preflight.Result) string {
	parts := make([]string, 0, len(failed))
	for _, check := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(check.Name), check.Detail))
	}
	return strings.Join(parts, "; ")
}
