package exporter

import (
	"io"

	"github.com/xuri/excelize/v2"

	"avancofisico/internal/analytics"
	apperrors "avancofisico/internal/errors"
	"avancofisico/pkg/contracts/domain"
)

// SheetName is the worksheet written by WriteXLSX
const SheetName = "Avanco Fisico"

// WriteXLSX writes a workbook with a bold, frozen header row and one row
// per record
func WriteXLSX(w io.Writer, records []domain.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetName)

	header := make([]any, len(analytics.TableColumns))
	for i, col := range analytics.TableColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return apperrors.NewExportError("failed to write headers", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return apperrors.NewExportError("failed to create header style", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
		return apperrors.NewExportError("failed to style headers", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewExportError("failed to address row", err)
		}
		values := xlsxValues(r)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return apperrors.NewExportError("failed to write record", err).WithContext("row", i)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(analytics.TableColumns))
	if err != nil {
		return apperrors.NewExportError("failed to address columns", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return apperrors.NewExportError("failed to set column width", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return apperrors.NewExportError("failed to freeze header", err)
	}

	if err := f.Write(w); err != nil {
		return apperrors.NewExportError("failed to write workbook", err)
	}
	return nil
}

// xlsxValues is the table projection with native cell types: whole
// kilograms as numbers, lead time as a number or blank, the delay flag as a
// boolean
func xlsxValues(r domain.Record) []any {
	row := analytics.FormatRow(r)
	values := make([]any, len(analytics.TableColumns))
	for i, col := range analytics.TableColumns {
		values[i] = row[col]
	}

	kg := map[string]float64{
		"peso_total_kg":       r.PesoTotalKg,
		"produzido_kg":        r.ProduzidoKg,
		"peso_exped_kg":       r.PesoExpedKg,
		"saldo_a_produzir_kg": r.SaldoAProduzirKg,
		"saldo_a_expedir_kg":  r.SaldoAExpedirKg,
	}
	for i, col := range analytics.TableColumns {
		if v, ok := kg[col]; ok {
			values[i] = analytics.RoundKg(v)
		}
	}
	return values
}
