package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"avancofisico/internal/infrastructure"
)

// SourceExtensions are the file types the loader reads
var SourceExtensions = []string{".xlsx", ".xlsm", ".csv", ".txt"}

// ErrUnsupportedSource is returned for a source with an unknown extension
var ErrUnsupportedSource = errors.New("unsupported source file type")

// FileValidator provides file checks shared by the server and the CLI
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{logger: infrastructure.WithComponent(logger, "file_validator")}
}

// ValidateFile checks that path exists, is a regular file and can be opened.
// A missing file yields an error wrapping fs.ErrNotExist.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Debug("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist: %w", path, fs.ErrNotExist)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSource checks a spreadsheet source: a readable workbook or CSV
// export that is not an Excel lock file
func (v *FileValidator) ValidateSource(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SourceExtensions, ext) {
		v.logger.Warn("Source is not a spreadsheet",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %s (extension %q)", ErrUnsupportedSource, path, ext)
	}

	// Excel keeps "~$name.xlsx" lock files next to open workbooks
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("%w: %s is an Excel lock file", ErrUnsupportedSource, path)
	}

	return nil
}

// ValidateOutputDirectory ensures dir exists, creating it when needed, and
// that a file can be created in it
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	return nil
}
