package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ProgressHeaders is a header row in the layout of the consolidated
// progress spreadsheet, including the historical PITADOS spelling
var ProgressHeaders = []string{
	"CLIENTE",
	"OS_CLIENTE",
	"TAG",
	"SITUAÇÃO DO DESENHO",
	"N° DESENHO PAI",
	"DESCRIÇÃO DO DESENHO",
	"DATA RECEBIMENTO DA GUIA",
	"DATA DE ENTREGA",
	"DATA EXPEDIÇÃO",
	"PESO TOTAL ( KG)",
	"DESENHOS PREPARADOS (KG)",
	"DESENHOS MONTADOS (KG)",
	"DESENHOS SOLDADOS (KG)",
	"DESENHOS ACABADOS (KG)",
	"DESENHOS PITADOS (KG)",
	"PESO EXPEDIDO (KG)",
}

// WriteWorkbook saves a single-sheet workbook with a header row followed by
// the given rows and returns its path inside t.TempDir()
func WriteWorkbook(t *testing.T, name, sheet string, headers []string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	} else {
		sheet = f.GetSheetName(0)
	}

	writeRow(t, f, sheet, 1, toInterfaces(headers))
	for i, row := range rows {
		writeRow(t, f, sheet, i+2, row)
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// AddSheet appends a sheet with the given content to an existing workbook
func AddSheet(t *testing.T, path, sheet string, headers []string, rows [][]interface{}) {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.NewSheet(sheet)
	require.NoError(t, err)

	writeRow(t, f, sheet, 1, toInterfaces(headers))
	for i, row := range rows {
		writeRow(t, f, sheet, i+2, row)
	}
	require.NoError(t, f.Save())
}

func writeRow(t *testing.T, f *excelize.File, sheet string, rowNum int, values []interface{}) {
	t.Helper()

	for colIdx, val := range values {
		if val == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, val))
	}
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
