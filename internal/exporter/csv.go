package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"avancofisico/internal/analytics"
	apperrors "avancofisico/internal/errors"
	"avancofisico/pkg/contracts/domain"
)

// Format is an export file format
type Format string

// Supported export formats
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFormat accepts "csv" or "xlsx", case-insensitive, with or without a
// leading dot
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", apperrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", s)).
			WithContext("format", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download name for an export made at now
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("avanco_fisico_%s.%s", now.Format("20060102_150405"), f)
}

// Write encodes records in the given format
func Write(w io.Writer, format Format, records []domain.Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
}

// WriteCSV writes a BOM, the column header and one line per record
func WriteCSV(w io.Writer, records []domain.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return apperrors.NewExportError("failed to write BOM", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(analytics.TableColumns); err != nil {
		return apperrors.NewExportError("failed to write headers", err)
	}
	for i, r := range records {
		if err := writer.Write(analytics.FormatCells(r)); err != nil {
			return apperrors.NewExportError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewExportError("failed to flush csv", err)
	}
	return nil
}

// WriteFile exports records to path, creating parent directories. The
// format follows the file extension.
func WriteFile(path string, records []domain.Record) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}

	slog.Info("Writing export file",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", len(records)))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewExportError("failed to create directory", err).WithContext("path", dir)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewExportError("failed to create file", err).WithContext("path", path)
	}

	if err := Write(file, format, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return apperrors.NewExportError("failed to close file", err).WithContext("path", path)
	}
	return nil
}
