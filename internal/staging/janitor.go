package staging

import (
	"errors"
	"log/slog"
	"os"

	"audioscribe/internal/audio"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanupReport summarizes one Janitor pass.
type CleanupReport struct {
	Removed []string
	// Kept counts non-temporary units that were left alone.
	Kept   int
	Errors []CleanupError
}

// OK reports whether every temporary unit was removed.
func (r CleanupReport) OK() bool {
	return len(r.Errors) == 0
}

// Janitor removes temporary units. It never fails a job.
type Janitor struct {
	logger *slog.Logger
}

// NewJanitor returns a Janitor that logs through logger.
func NewJanitor(logger *slog.Logger) *Janitor {
	return &Janitor{logger: logging.NewComponentLogger(logger, "janitor")}
}

// Cleanup deletes every unit marked Temporary and leaves the rest untouched.
// Files that are already gone count as removed.
func (j *Janitor) Cleanup(units []audio.Unit) CleanupReport {
	report := CleanupReport{}
	for _, unit := range units {
		if !unit.Temporary {
			report.Kept++
			continue
		}
		if err := os.Remove(unit.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			wrapped := services.Wrap(services.ErrCleanup, "cleaning_up", "remove", unit.Path, err)
			report.Errors = append(report.Errors, CleanupError{Path: unit.Path, Error: wrapped})
			logging.WarnWithContext(j.log(), "failed to remove temporary unit", "cleanup_failed",
				logging.String("path", unit.Path),
				logging.Int(logging.FieldOrdinal, unit.Ordinal),
				logging.Error(wrapped),
				logging.String(logging.FieldErrorHint, "check work_dir permissions; 'audioscribe clean' sweeps leftovers"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		report.Removed = append(report.Removed, unit.Path)
	}
	if len(report.Removed) > 0 {
		j.log().Debug("removed temporary units",
			logging.Int("removed", len(report.Removed)),
			logging.Int("kept", report.Kept),
			logging.String(logging.FieldEventType, "cleanup_complete"),
		)
	}
	return report
}

func (j *Janitor) log() *slog.Logger {
	if j == nil || j.logger == nil {
		return logging.NewNop()
	}
	return j.logger
}
