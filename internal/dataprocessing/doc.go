// Package dataprocessing reads the consolidated production-progress
// spreadsheet and prepares its rows for the dashboard.
//
// # Pipeline
//
//	Excel/CSV file → ReadFile → RawTable → Preparer → []domain.Record
//
// Headers are normalized (trimmed, whitespace collapsed) and resolved through
// an alias table, so "PESO TOTAL ( KG)" and "PESO TOTAL (KG)" both land in
// peso_total_kg. Columns the table does not know are kept in the RawTable and
// otherwise ignored; known columns the sheet lacks read as empty.
//
// # Coercion
//
// Cells never fail a load:
//
//	- dates accept Excel serial numbers, ISO dates and day-first dates;
//	  anything else is missing
//	- weights accept plain and pt-BR decimals; anything else is 0
//	- text cells are trimmed and never missing
//
// # Derived fields
//
// Derive computes produced weight (the largest stage weight), the current
// stage, both balances (clamped at zero), lead time in whole days and the
// delay flag. The current stage comes from an ordered rule list where the
// first matching rule wins, Expedido first.
//
// # Snapshots
//
// Serialize and Deserialize move prepared records across a process boundary
// as a split-layout JSON document (columns, index, data). The round trip
// keeps missing dates missing and zero weights zero.
package dataprocessing
