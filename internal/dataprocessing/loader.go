package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"avancofisico/pkg/contracts/domain"
)

// LoadResult is a prepared dataset together with what was read
type LoadResult struct {
	Records  []domain.Record
	Source   string
	Sheet    string
	Stats    PrepareStats
	Duration time.Duration
}

// LoadFile reads a source file and prepares its records
func LoadFile(ctx context.Context, path string, opts ReadOptions, today time.Time, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	table, err := ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, stats := NewPreparer(today, logger).Prepare(table)

	result := &LoadResult{
		Records:  records,
		Source:   table.Source,
		Sheet:    table.Sheet,
		Stats:    stats,
		Duration: time.Since(start),
	}

	logger.InfoContext(ctx, "spreadsheet prepared",
		slog.String("source", result.Source),
		slog.String("sheet", result.Sheet),
		slog.Int("rows", len(records)),
		slog.Int("unmatched_columns", len(stats.Unmatched)),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}
