// Package exporter writes the filtered drill-down table as a file.
//
// Both formats carry every row of the view, not just the capped table shown
// on screen, with the same columns and formatting as the table projection in
// package analytics.
//
// CSV output starts with a UTF-8 BOM so spreadsheet programs detect the
// encoding. XLSX output keeps weights, lead times and the delay flag as
// native cell types.
//
// Example usage:
//
//	format, err := exporter.ParseFormat("xlsx")
//	if err != nil {
//		return err
//	}
//	w.Header().Set("Content-Type", format.ContentType())
//	err = exporter.Write(w, format, records)
package exporter
