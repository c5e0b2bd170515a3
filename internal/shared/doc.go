// Package shared groups helpers used across packages. Its testutil
// subpackage captures slog output in tests and writes spreadsheet fixtures.
package shared
