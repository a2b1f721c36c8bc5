package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/config"
	"audioscribe/internal/convert"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/split"
	"audioscribe/internal/staging"
	"audioscribe/internal/textutil"
	"audioscribe/internal/whisper"
)

// Converter normalizes a rejected input format into the workspace.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Splitter cuts a file into size-bounded units.
type Splitter interface {
	Split(ctx context.Context, path string, maxBytes int64, outputDir string) ([]audio.Unit, error)
}

// Transcriber turns one unit into a result. Failures are reported in the result.
type Transcriber interface {
	Transcribe(ctx context.Context, unit audio.Unit) audio.Result
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, unit audio.Unit) audio.Result

// Transcribe calls f.
func (f TranscriberFunc) Transcribe(ctx context.Context, unit audio.Unit) audio.Result {
	return f(ctx, unit)
}

const defaultUnitTimeout = 5 * time.Minute

// Pipeline wires the components of a job together with its batch policy.
type Pipeline struct {
	Converter   Converter
	Splitter    Splitter
	Transcriber Transcriber
	Janitor     *staging.Janitor

	// WorkDir is the root under which each run creates its workspace.
	WorkDir string
	// UnitTimeout bounds each backend call.
	UnitTimeout time.Duration
	// Concurrency is the number of units transcribed at once (default 1).
	Concurrency int
	// MaxAttempts bounds calls per unit; only transient failures are retried.
	MaxAttempts int
	// RetryDelay is the base backoff between attempts; it doubles per retry.
	RetryDelay time.Duration
	// OnState, when set, observes every state transition.
	OnState func(StateChange)
	Logger  *slog.Logger
}

// New builds a Pipeline from configuration with the given components.
func New(cfg *config.Config, converter Converter, splitter Splitter, transcriber Transcriber, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		Converter:   converter,
		Splitter:    splitter,
		Transcriber: transcriber,
		Janitor:     staging.NewJanitor(logger),
		RetryDelay:  time.Second,
		Logger:      logging.NewComponentLogger(logger, "pipeline"),
	}
	if cfg != nil {
		p.WorkDir = cfg.Paths.WorkDir
		p.UnitTimeout = cfg.UnitTimeout()
		p.Concurrency = cfg.Transcription.Concurrency
		p.MaxAttempts = cfg.Transcription.MaxAttempts
	}
	return p
}

// NewFromConfig wires ffmpeg, ffprobe and the OpenAI client from cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	client, err := whisper.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	converter := convert.New(cfg, services.ExecRunner{}, logger)
	return New(cfg, converter, split.New(converter, logger), client, logger), nil
}

// run carries the mutable state of one Run call.
type run struct {
	p          *Pipeline
	job        Job
	logger     *slog.Logger
	state      State
	workspace  *staging.Workspace
	source     string
	artifacts  []audio.Unit
	units      []audio.Unit
	transcript Transcript
}

// Run executes job and returns its transcript. The returned error is nil on
// full or partial success. Fatal errors and the all-units-failed case return
// both the (possibly empty) transcript and an error. When ctx is cancelled the
// workspace is still cleaned before ctx's error is returned.
func (p *Pipeline) Run(ctx context.Context, job Job) (Transcript, error) {
	started := time.Now()
	ctx = services.WithRunID(ctx, job.RunID())
	r := &run{
		p:          p,
		job:        job,
		logger:     logging.WithContext(ctx, p.log()),
		state:      StateValidating,
		source:     job.InputPath(),
		transcript: Transcript{RunID: job.RunID()},
	}
	r.logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("input", job.InputPath()),
		logging.String("language", job.Language()),
		logging.Int64("max_bytes", job.MaxBytes()),
	)
	p.notify(StateChange{RunID: job.RunID(), To: StateValidating, At: time.Now()})

	var failure error
	for !r.state.Terminal() {
		var next State
		var err error
		switch r.state {
		case StateValidating:
			next, err = r.validate(ctx)
		case StateConverting:
			next, err = r.convert(ctx)
		case StateSplitting:
			next, err = r.split(ctx)
		case StateTranscribing:
			next, err = r.transcribe(ctx)
		case StateAggregating:
			next, err = r.aggregate()
		case StateCleaningUp:
			r.cleanup()
			next = StateDone
			if failure != nil {
				next = StateFailed
			}
		default:
			err = fmt.Errorf("pipeline: unknown state %q", r.state)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, services.ErrTranscription) {
				err = ctxErr
			}
			failure = err
			next = StateCleaningUp
			r.logFailure(err)
		}
		r.transition(next, err)
	}

	r.transcript.Elapsed = time.Since(started)
	r.logger.Info("job finished",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("outcome", string(r.state)),
		logging.Int("units", r.transcript.Total),
		logging.Int("failed_units", r.transcript.Failed),
		logging.Duration("elapsed", r.transcript.Elapsed),
	)
	return r.transcript, failure
}

func (r *run) transition(next State, cause error) {
	from := r.state
	if !canTransition(from, next) {
		// Programming error; fail closed through cleanup.
		r.logger.Error("invalid state transition",
			logging.String("from", string(from)),
			logging.String("to", string(next)),
		)
		if from != StateCleaningUp {
			next = StateCleaningUp
		} else {
			next = StateFailed
		}
	}
	r.state = next
	r.logger.Debug("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from", string(from)),
		logging.String("to", string(next)),
	)
	r.p.notify(StateChange{RunID: r.job.RunID(), From: from, To: next, Err: cause, At: time.Now()})
}

func (r *run) logFailure(err error) {
	logging.ErrorWithContext(r.logger, "stage failed", "stage_failure",
		logging.String(logging.FieldStage, string(r.state)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
}

func (r *run) validate(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(r.source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, string(StateValidating), "stat input", r.source, err)
		}
		return "", services.Wrap(services.ErrInvalidAudio, string(StateValidating), "stat input", r.source, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrInvalidAudio, string(StateValidating), "stat input", r.source+" is a directory", nil)
	}

	workspace, err := staging.Acquire(r.p.WorkDir, r.source, r.job.RunID())
	if err != nil {
		return "", err
	}
	r.workspace = workspace
	r.logger.Debug("workspace acquired", logging.String("workspace", workspace.Dir))

	if audio.IsAcceptedFormatIn(r.source, r.job.AcceptedFormats()) {
		return StateSplitting, nil
	}
	return StateConverting, nil
}

func (r *run) convert(ctx context.Context) (State, error) {
	if r.p.Converter == nil {
		return "", services.Wrap(services.ErrConversion, string(StateConverting), "convert", "no converter configured", nil)
	}
	stageCtx := services.WithStage(ctx, string(StateConverting))
	converted, err := r.p.Converter.Convert(stageCtx, r.source, r.workspace.Dir)
	if err != nil {
		return "", err
	}
	var size int64
	if info, statErr := os.Stat(converted); statErr == nil {
		size = info.Size()
	}
	r.artifacts = append(r.artifacts, audio.Unit{Path: converted, Size: size, Temporary: true})
	r.source = converted
	r.transcript.Converted = true
	return StateSplitting, nil
}

func (r *run) split(ctx context.Context) (State, error) {
	if r.p.Splitter == nil {
		return "", services.Wrap(services.ErrInvalidAudio, string(StateSplitting), "split", "no splitter configured", nil)
	}
	stageCtx := services.WithStage(ctx, string(StateSplitting))
	units, err := r.p.Splitter.Split(stageCtx, r.source, r.job.MaxBytes(), r.workspace.Dir)
	if err != nil {
		return "", err
	}
	if len(units) == 0 {
		return "", services.Wrap(services.ErrInvalidAudio, string(StateSplitting), "split", "no units produced", nil)
	}
	for i := range units {
		if units[i].Ordinal != i {
			return "", services.Wrap(services.ErrInvalidAudio, string(StateSplitting), "split",
				fmt.Sprintf("unit %d carries ordinal %d", i, units[i].Ordinal), nil)
		}
		// The converted intermediate is ours even when it is returned whole.
		if r.transcript.Converted && units[i].Path == r.source {
			units[i].Temporary = true
		}
	}
	r.units = units
	r.transcript.Units = append([]audio.Unit(nil), units...)
	r.transcript.Total = len(units)
	return StateTranscribing, nil
}

func (r *run) transcribe(ctx context.Context) (State, error) {
	if r.p.Transcriber == nil {
		return "", services.Wrap(services.ErrConfiguration, string(StateTranscribing), "transcribe", "no transcriber configured", nil)
	}
	stageCtx := services.WithStage(ctx, string(StateTranscribing))
	results := r.p.transcribeAll(stageCtx, r.units, r.logger)
	r.transcript.Results = results
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return StateAggregating, nil
}

func (r *run) aggregate() (State, error) {
	text, failed := Aggregate(r.transcript.Results)
	r.transcript.Text = text
	r.transcript.Failed = failed
	if r.transcript.Total > 0 && failed == r.transcript.Total {
		return "", services.Wrap(services.ErrTranscription, string(StateAggregating), "aggregate",
			fmt.Sprintf("all %d units failed", failed), firstError(r.transcript.Results))
	}
	if failed > 0 {
		logging.WarnWithContext(r.logger, "transcript is partial", "transcript_partial",
			logging.Int("failed_units", failed),
			logging.Int("units", r.transcript.Total),
			logging.String(logging.FieldErrorHint, "see per-unit errors with --details"),
			logging.String(logging.FieldImpact, "text from failed units is missing"),
		)
	}
	return StateCleaningUp, nil
}

// cleanup removes temporary artifacts and the workspace. It takes no context
// so an interrupted job still leaves nothing behind.
func (r *run) cleanup() {
	janitor := r.p.Janitor
	if janitor == nil {
		janitor = staging.NewJanitor(r.p.Logger)
	}
	report := janitor.Cleanup(dedupe(append(append([]audio.Unit(nil), r.artifacts...), r.units...)))
	if r.workspace != nil {
		if err := r.workspace.Release(); err != nil {
			report.Errors = append(report.Errors, staging.CleanupError{Path: r.workspace.Dir, Error: err})
			logging.WarnWithContext(r.logger, "failed to release workspace", "cleanup_failed",
				logging.String("workspace", r.workspace.Dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'audioscribe clean' to sweep leftovers"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}
	r.transcript.Cleanup = report
}

// Aggregate joins successful texts in ordinal order and counts failures.
// Results may arrive in any order.
func Aggregate(results []audio.Result) (string, int) {
	ordered := append([]audio.Result(nil), results...)
	slices.SortStableFunc(ordered, func(a, b audio.Result) int { return cmp.Compare(a.Ordinal, b.Ordinal) })
	segments := make([]string, 0, len(ordered))
	failed := 0
	for _, result := range ordered {
		if !result.OK {
			failed++
			continue
		}
		segments = append(segments, result.Text)
	}
	return textutil.JoinSegments(segments), failed
}

func (p *Pipeline) notify(change StateChange) {
	if p.OnState != nil {
		p.OnState(change)
	}
}

func (p *Pipeline) log() *slog.Logger {
	if p == nil || p.Logger == nil {
		return logging.NewNop()
	}
	return p.Logger
}

func dedupe(units []audio.Unit) []audio.Unit {
	seen := make(map[string]int, len(units))
	out := make([]audio.Unit, 0, len(units))
	for _, unit := range units {
		if idx, ok := seen[unit.Path]; ok {
			out[idx].Temporary = out[idx].Temporary || unit.Temporary
			continue
		}
		seen[unit.Path] = len(out)
		out = append(out, unit)
	}
	return out
}

func firstError(results []audio.Result) error {
	for _, result := range results {
		if result.Err != nil {
			return result.Err
		}
	}
	return nil
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return "check the input path"
	case errors.Is(err, services.ErrConversion):
		return "check that ffmpeg is installed and can decode the input"
	case errors.Is(err, services.ErrInvalidAudio):
		return "input is empty or not decodable audio"
	case errors.Is(err, services.ErrTranscription):
		return "check API credentials, network access and transcription.timeout_seconds"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "job was interrupted"
	default:
		return "check logs for details"
	}
}
