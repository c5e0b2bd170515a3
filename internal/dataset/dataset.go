// Package dataset holds the prepared spreadsheet for the lifetime of the
// process. A Handle is built once at startup and never changes afterwards;
// every accessor hands out a copy so concurrent renders share nothing.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"avancofisico/internal/dataprocessing"
	"avancofisico/internal/infrastructure"
	"avancofisico/internal/validation"
	"avancofisico/pkg/contracts/domain"
)

// Handle is an immutable prepared dataset plus the outcome of loading it
type Handle struct {
	records []domain.Record
	status  domain.DatasetStatus
}

// Options controls Open
type Options struct {
	Path     string
	Sheet    string
	Encoding string
	// Today fixes the reference date for delay flags; zero means now
	Today time.Time
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Open loads and prepares the file at opts.Path. A missing or unreadable
// file yields an empty handle whose status explains why; Open never fails.
func Open(ctx context.Context, opts Options, logger *slog.Logger) *Handle {
	logger = infrastructure.WithComponent(logger, "dataset")

	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}

	if err := validation.NewFileValidator(logger).ValidateSource(opts.Path); err != nil {
		msg := fmt.Sprintf("❌ Arquivo não encontrado: %s", opts.Path)
		if !errors.Is(err, fs.ErrNotExist) {
			msg = fmt.Sprintf("❌ Falha ao ler a base: %v", err)
		}
		logger.WarnContext(ctx, "spreadsheet not available",
			slog.String("path", opts.Path),
			slog.String("error", err.Error()),
		)
		return Empty(opts.Path, msg)
	}

	result, err := dataprocessing.LoadFile(ctx, opts.Path, dataprocessing.ReadOptions{
		Sheet:    opts.Sheet,
		Encoding: opts.Encoding,
	}, today, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load spreadsheet",
			slog.String("path", opts.Path),
			slog.String("error", err.Error()),
		)
		return Empty(opts.Path, fmt.Sprintf("❌ Falha ao ler a base: %v", err))
	}

	return New(result.Records, opts.Path)
}

// New wraps already prepared records, for snapshots and tests
func New(records []domain.Record, source string) *Handle {
	return &Handle{
		records: domain.CloneRecords(records),
		status: domain.DatasetStatus{
			Loaded:   true,
			Rows:     len(records),
			Source:   source,
			Message:  LoadedMessage(filepath.Base(source), len(records)),
			LoadedAt: time.Now().UTC(),
		},
	}
}

// Empty returns a handle with no records and the given status message
func Empty(source, message string) *Handle {
	return &Handle{
		status: domain.DatasetStatus{
			Loaded:   false,
			Source:   source,
			Message:  message,
			LoadedAt: time.Now().UTC(),
		},
	}
}

// LoadedMessage formats the success status line
func LoadedMessage(file string, rows int) string {
	return printer.Sprintf("✅ Base carregada: %s — %d linhas", file, rows)
}

// Records returns a copy of the prepared records
func (h *Handle) Records() []domain.Record {
	return domain.CloneRecords(h.records)
}

// Status returns the load outcome
func (h *Handle) Status() domain.DatasetStatus {
	return h.status
}

// Loaded reports whether a file was read
func (h *Handle) Loaded() bool {
	return h.status.Loaded
}

// Len returns the number of records
func (h *Handle) Len() int {
	return len(h.records)
}

// Snapshot serializes the records
func (h *Handle) Snapshot() ([]byte, error) {
	return dataprocessing.Serialize(h.records)
}

// FromSnapshot rebuilds a handle from a serialized snapshot
func FromSnapshot(blob []byte, source string) (*Handle, error) {
	records, err := dataprocessing.Deserialize(blob)
	if err != nil {
		return nil, err
	}
	return New(records, source), nil
}
