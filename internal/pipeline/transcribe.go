package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

// transcribeAll transcribes units with at most Concurrency calls in flight.
// Results are stored by ordinal, never by completion order. Units not yet
// started when ctx is cancelled are recorded as failed.
func (p *Pipeline) transcribeAll(ctx context.Context, units []audio.Unit, logger *slog.Logger) []audio.Result {
	results := make([]audio.Result, len(units))
	if len(units) == 0 {
		return results
	}
	workers := p.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(units) {
		workers = len(units)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				unit := units[idx]
				if err := ctx.Err(); err != nil {
					results[idx] = audio.Failed(unit.Ordinal, services.Wrap(services.ErrTranscription, string(StateTranscribing), "skip", "job cancelled", err))
					continue
				}
				results[idx] = p.transcribeUnit(ctx, unit, logger)
			}
		}()
	}
	for idx := range units {
		indexes <- idx
	}
	close(indexes)
	wg.Wait()
	return results
}

// transcribeUnit calls the transcriber under the per-unit timeout, retrying
// transient failures up to MaxAttempts with doubling backoff.
func (p *Pipeline) transcribeUnit(ctx context.Context, unit audio.Unit, logger *slog.Logger) audio.Result {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	timeout := p.UnitTimeout
	if timeout <= 0 {
		timeout = defaultUnitTimeout
	}
	unitCtx := services.WithOrdinal(ctx, unit.Ordinal)
	unitLogger := logging.WithContext(unitCtx, logger)

	var elapsed time.Duration
	delay := p.RetryDelay
	for attempt := 1; ; attempt++ {
		started := time.Now()
		callCtx, cancel := context.WithTimeout(unitCtx, timeout)
		result := p.Transcriber.Transcribe(callCtx, unit)
		cancel()
		elapsed += time.Since(started)

		result = normalizeResult(unit, result)
		result.Attempts = attempt
		result.Elapsed = elapsed

		if result.OK {
			unitLogger.Debug("unit transcribed",
				logging.String(logging.FieldEventType, "unit_complete"),
				logging.Int("attempts", attempt),
				logging.Duration("elapsed", elapsed),
			)
			return result
		}
		if attempt >= maxAttempts || !services.IsRetryable(result.Err) || ctx.Err() != nil {
			logging.WarnWithContext(unitLogger, "unit failed", "unit_failed",
				logging.Int("attempts", attempt),
				logging.Error(result.Err),
				logging.String(logging.FieldImpact, "unit text missing from transcript"),
			)
			return result
		}

		unitLogger.Info("retrying unit",
			logging.String(logging.FieldEventType, "unit_retry"),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(result.Err),
		)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result
			case <-timer.C:
			}
		}
		delay *= 2
	}
}

// normalizeResult enforces the result invariants regardless of transcriber:
// the unit's ordinal, Err set exactly when the call failed.
func normalizeResult(unit audio.Unit, result audio.Result) audio.Result {
	result.Ordinal = unit.Ordinal
	if result.OK {
		result.Err = nil
		return result
	}
	if result.Err == nil {
		return audio.Failed(unit.Ordinal, services.Wrap(services.ErrTranscription, string(StateTranscribing), "transcribe", "unit failed without detail", nil))
	}
	result.Text = ""
	return result
}
