package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/pipeline"
)

type transcriptView struct {
	RunID     string        `json:"run_id"`
	Text      string        `json:"text"`
	Total     int           `json:"total_units"`
	Failed    int           `json:"failed_units"`
	Partial   bool          `json:"partial"`
	Converted bool          `json:"converted"`
	ElapsedMS int64         `json:"elapsed_ms"`
	Error     string        `json:"error,omitempty"`
	Units     []unitView    `json:"units"`
	Cleanup   cleanupResult `json:"cleanup"`
}

type unitView struct {
	Ordinal    int    `json:"ordinal"`
	OK         bool   `json:"ok"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	File       string `json:"file,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	StartMS    int64  `json:"start_ms"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

type cleanupResult struct {
	Removed []string `json:"removed"`
	Kept    int      `json:"kept"`
	Errors  []string `json:"errors,omitempty"`
}

func newTranscriptView(t pipeline.Transcript, runErr error) transcriptView {
	view := transcriptView{
		RunID:     t.RunID,
		Text:      t.Text,
		Total:     t.Total,
		Failed:    t.Failed,
		Partial:   t.Partial(),
		Converted: t.Converted,
		ElapsedMS: t.Elapsed.Milliseconds(),
		Units:     []unitView{},
		Cleanup: cleanupResult{
			Removed: append([]string{}, t.Cleanup.Removed...),
			Kept:    t.Cleanup.Kept,
		},
	}
	if runErr != nil {
		view.Error = runErr.Error()
	}
	for _, cleanupErr := range t.Cleanup.Errors {
		view.Cleanup.Errors = append(view.Cleanup.Errors, cleanupErr.Path+": "+cleanupErr.Error.Error())
	}

	units := unitsByOrdinal(t.Units)
	for _, result := range t.Results {
		entry := unitView{
			Ordinal:   result.Ordinal,
			OK:        result.OK,
			Text:      result.Text,
			Error:     result.ErrorMessage(),
			Attempts:  result.Attempts,
			ElapsedMS: result.Elapsed.Milliseconds(),
		}
		if unit, ok := units[result.Ordinal]; ok {
			entry.File = filepath.Base(unit.Path)
			entry.SizeBytes = unit.Size
			entry.StartMS = unit.Start.Milliseconds()
			entry.DurationMS = unit.Duration.Milliseconds()
		}
		view.Units = append(view.Units, entry)
	}
	return view
}

func unitsByOrdinal(units []audio.Unit) map[int]audio.Unit {
	out := make(map[int]audio.Unit, len(units))
	for _, unit := range units {
		out[unit.Ordinal] = unit
	}
	return out
}

func renderResultsTable(t pipeline.Transcript) string {
	units := unitsByOrdinal(t.Units)
	rows := make([][]string, 0, len(t.Results))
	for _, result := range t.Results {
		unit := units[result.Ordinal]
		status := "ok"
		detail := preview(result.Text, 48)
		if !result.OK {
			status = "failed"
			detail = preview(result.ErrorMessage(), 60)
		}
		rows = append(rows, []string{
			unit.Label(),
			formatOffset(unit.Start),
			formatBytes(unit.Size),
			status,
			strconv.Itoa(result.Attempts),
			result.Elapsed.Round(10 * time.Millisecond).String(),
			detail,
		})
	}
	return renderTable(
		[]string{"Unit", "Start", "Size", "Status", "Tries", "Time", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func renderSummary(t pipeline.Transcript, runErr error, colorize bool) string {
	elapsed := t.Elapsed.Round(100 * time.Millisecond)
	switch {
	case runErr != nil && t.Total > 0 && t.Failed == t.Total:
		return paint(fmt.Sprintf("All %d units failed after %s", t.Total, elapsed), statusError, colorize)
	case runErr != nil:
		return paint(fmt.Sprintf("Transcription failed after %s", elapsed), statusError, colorize)
	case t.Partial():
		return paint(fmt.Sprintf("Transcribed %d/%d units in %s; %d failed and are missing from the text",
			t.Succeeded(), t.Total, elapsed, t.Failed), statusWarn, colorize)
	default:
		unitWord := "units"
		if t.Total == 1 {
			unitWord = "unit"
		}
		return paint(fmt.Sprintf("Transcribed %d %s in %s", t.Total, unitWord, elapsed), statusOK, colorize)
	}
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func formatOffset(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
