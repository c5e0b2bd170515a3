package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the directories a relative path may be resolved against
type Paths struct {
	WorkingDir    string
	ExecutableDir string
}

// GetPaths returns the working directory and the directory of the running
// executable, with symlinks resolved
func GetPaths() (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return &Paths{WorkingDir: wd, ExecutableDir: filepath.Dir(exe)}, nil
}

// Resolve returns an absolute path for name. Absolute paths are returned as
// is. A relative path is looked up in the working directory, then next to the
// executable; when neither exists the working directory candidate is returned
// so the caller reports the path the user most likely meant.
func (p *Paths) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	candidates := []string{
		filepath.Join(p.WorkingDir, name),
		filepath.Join(p.ExecutableDir, name),
	}
	for _, c := range candidates {
		if FileExists(c) {
			slog.Debug("resolved data path",
				slog.String("name", name),
				slog.String("path", c))
			return c
		}
	}
	return candidates[0]
}

// ResolveDataFile resolves the configured data file
func (c *Config) ResolveDataFile() string {
	paths, err := GetPaths()
	if err != nil {
		return c.Data.File
	}
	return paths.Resolve(c.Data.File)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
