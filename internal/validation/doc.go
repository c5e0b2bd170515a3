// Package validation checks spreadsheet sources and export destinations
// before they are opened.
package validation
