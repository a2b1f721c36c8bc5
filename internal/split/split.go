package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/convert"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/textutil"
)

const stageName = "splitting"

const (
	// minWindow is the smallest window the splitter will shrink down to.
	minWindow = time.Second
	// containerAllowance covers the Xing/LAME info frame, ID3 tag and frame
	// rounding that every encoded chunk carries on top of its audio payload.
	containerAllowance = 4 * 1024
	// minTail folds a trailing remainder this short into the previous window.
	minTail = 100 * time.Millisecond
)

// Splitter produces size-bounded units from one audio file.
type Splitter struct {
	Encoder *convert.Converter
	Logger  *slog.Logger
}

// New returns a Splitter that encodes chunks with encoder.
func New(encoder *convert.Converter, logger *slog.Logger) *Splitter {
	return &Splitter{Encoder: encoder, Logger: logging.NewComponentLogger(logger, "split")}
}

// ChunkWindow returns the chunk duration for maxBytes at bitrateKbps:
// floor(maxBytes*8/kbps) milliseconds.
func ChunkWindow(maxBytes int64, bitrateKbps int) time.Duration {
	if maxBytes <= 0 || bitrateKbps <= 0 {
		return 0
	}
	return time.Duration(maxBytes*8/int64(bitrateKbps)) * time.Millisecond
}

// PlanBytes returns the payload budget chunks are planned against: maxBytes
// less 1% for bitrate drift and a fixed container allowance.
func PlanBytes(maxBytes int64) int64 {
	budget := maxBytes - maxBytes/100 - containerAllowance
	if budget < maxBytes/2 {
		budget = maxBytes / 2
	}
	return budget
}

// ChunkName returns the file name for chunk ordinal of source.
func ChunkName(source string, ordinal int) string {
	return fmt.Sprintf("%s_part%d.mp3", textutil.StemName(source), ordinal)
}

// Split returns the units covering path. Files within maxBytes come back as a
// single non-temporary unit; larger files are cut into temporary chunks in
// outputDir with contiguous ordinals starting at zero.
func (s *Splitter) Split(ctx context.Context, path string, maxBytes int64, outputDir string) ([]audio.Unit, error) {
	if maxBytes <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "validate", "max bytes must be positive", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, stageName, "stat", path, err)
		}
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "stat", path, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "stat", path+" is a directory", nil)
	}
	if info.Size() == 0 {
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "stat", path+" is empty", nil)
	}

	probe, err := s.Encoder.Probe(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "probe", path, err)
	}
	if err := probe.CheckDecodableAudio(); err != nil {
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "probe", path, err)
	}
	total := time.Duration(probe.DurationSeconds() * float64(time.Second))

	if info.Size() <= maxBytes {
		return []audio.Unit{{
			Path:     path,
			Size:     info.Size(),
			Ordinal:  0,
			Duration: total,
		}}, nil
	}

	window := ChunkWindow(PlanBytes(maxBytes), s.Encoder.Bitrate())
	if window < minWindow {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "plan", fmt.Sprintf("chunk window %s below %s", window, minWindow), nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "prepare output dir", outputDir, err)
	}

	logger := logging.WithContext(ctx, s.logger())
	logger.Info("splitting oversized audio",
		logging.String("input", path),
		logging.Int64("size_bytes", info.Size()),
		logging.Int64("max_bytes", maxBytes),
		logging.Duration("duration", total),
		logging.Duration("chunk_window", window),
		logging.Int("expected_chunks", int(math.Ceil(float64(total)/float64(window)))),
	)

	units := make([]audio.Unit, 0, int(total/window)+1)
	for start := time.Duration(0); start < total; {
		length := min(window, total-start)
		if total-(start+length) < minTail {
			length = total - start
		}
		unit, err := s.encodeChunk(ctx, path, outputDir, len(units), start, length, maxBytes)
		if err != nil {
			removeUnits(units)
			return nil, err
		}
		units = append(units, unit)
		start += unit.Duration
	}
	if len(units) == 0 {
		return nil, services.Wrap(services.ErrInvalidAudio, stageName, "split", "no chunks produced for "+path, nil)
	}

	logger.Info("split complete",
		logging.Int("chunks", len(units)),
		logging.Int64("total_bytes", audio.TotalSize(units)),
	)
	return units, nil
}

// encodeChunk encodes [start, start+length) and, when the result exceeds
// maxBytes, shrinks length in proportion to the overshoot until it fits. The
// returned unit's Duration is the window that was actually used.
func (s *Splitter) encodeChunk(ctx context.Context, source, outputDir string, ordinal int, start, length time.Duration, maxBytes int64) (audio.Unit, error) {
	output := filepath.Join(outputDir, ChunkName(source, ordinal))
	for {
		size, err := s.Encoder.EncodeWindow(ctx, convert.Window{
			Input:       source,
			Output:      output,
			Start:       start,
			Length:      length,
			StreamIndex: -1,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return audio.Unit{}, ctxErr
			}
			if services.IsBinaryMissing(err) {
				return audio.Unit{}, err
			}
			return audio.Unit{}, services.Wrap(services.ErrInvalidAudio, stageName, "encode chunk", fmt.Sprintf("chunk %d at %s", ordinal, start), err)
		}
		if size <= maxBytes {
			s.logger().Debug("chunk encoded",
				logging.Int(logging.FieldOrdinal, ordinal),
				logging.String(logging.FieldEventType, "chunk_encoded"),
				logging.Duration("start", start),
				logging.Duration("length", length),
				logging.Int64("size_bytes", size),
			)
			return audio.Unit{
				Path:      output,
				Size:      size,
				Ordinal:   ordinal,
				Temporary: true,
				Start:     start,
				Duration:  length,
			}, nil
		}

		_ = os.Remove(output)
		next := shrinkWindow(length, size, maxBytes)
		if next < minWindow {
			return audio.Unit{}, services.Wrap(services.ErrInvalidAudio, stageName, "encode chunk",
				fmt.Sprintf("chunk %d still %d bytes at %s window", ordinal, size, length), nil)
		}
		logging.WarnWithContext(s.logger(), "chunk exceeded size ceiling; shrinking window", "chunk_oversize",
			logging.Int(logging.FieldOrdinal, ordinal),
			logging.Int64("size_bytes", size),
			logging.Int64("max_bytes", maxBytes),
			logging.Duration("length", length),
			logging.Duration("next_length", next),
			logging.String(logging.FieldImpact, "more chunks than planned"),
		)
		length = next
	}
}

// shrinkWindow scales length by the planning budget over the observed size,
// always cutting at least 10% so a stubborn encoder still converges.
func shrinkWindow(length time.Duration, size, maxBytes int64) time.Duration {
	if size <= 0 {
		return length / 2
	}
	scaled := time.Duration(float64(length) * float64(PlanBytes(maxBytes)) / float64(size))
	return min(scaled, length*9/10).Truncate(time.Millisecond)
}

func removeUnits(units []audio.Unit) {
	for _, unit := range units {
		if unit.Temporary {
			_ = os.Remove(unit.Path)
		}
	}
}

func (s *Splitter) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}
