package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "avancofisico/internal/errors"
)

// DefaultSheet is the consolidated sheet read when present
const DefaultSheet = "CONSOLIDADO"

// CSV encodings accepted by ReadCSV
const (
	EncodingAuto   = "auto"
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

// RawTable is a sheet read as text: one header row and the data rows below it
type RawTable struct {
	Source  string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// ReadOptions controls how a source file is read
type ReadOptions struct {
	// Sheet is the preferred workbook sheet; the first sheet is used when it
	// does not exist
	Sheet string
	// Encoding applies to CSV sources only
	Encoding string
}

// ReadFile reads a workbook or a CSV export depending on the file extension
func ReadFile(path string, opts ReadOptions) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewLoadError("failed to open csv", err).WithContext("path", path)
		}
		defer f.Close()

		table, err := ReadCSV(f, opts.Encoding)
		if err != nil {
			return nil, err
		}
		table.Source = path
		return table, nil
	default:
		return ReadWorkbook(path, opts.Sheet)
	}
}

// ReadWorkbook reads the preferred sheet of an .xlsx file, falling back to
// the first sheet. Cells are read raw so date cells arrive as serial numbers.
func ReadWorkbook(path, preferredSheet string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewLoadError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewLoadError("workbook has no sheets", nil).WithContext("path", path)
	}

	if preferredSheet == "" {
		preferredSheet = DefaultSheet
	}
	sheet := sheets[0]
	if slices.Contains(sheets, preferredSheet) {
		sheet = preferredSheet
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewLoadError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}

	table := newRawTable(rows)
	table.Source = path
	table.Sheet = sheet
	return table, nil
}

// ReadCSV reads a CSV export. The delimiter is detected from the header line
// (';' or ','). Latin-1 input is decoded when encoding is latin-1, or when it
// is auto and the content is not valid UTF-8.
func ReadCSV(r io.Reader, encoding string) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewLoadError("failed to read csv", err)
	}

	var src io.Reader
	switch strings.ToLower(encoding) {
	case EncodingLatin1, "iso-8859-1":
		src = transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
	case EncodingUTF8:
		src = bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))
	case "", EncodingAuto:
		if utf8.Valid(data) {
			src = bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))
		} else {
			src = transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
		}
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unsupported csv encoding %q", encoding))
	}

	decoded, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to decode csv", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = detectDelimiter(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse csv", err)
	}

	return newRawTable(rows), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// newRawTable splits the header row off and drops rows with no content
func newRawTable(rows [][]string) *RawTable {
	table := &RawTable{}
	if len(rows) == 0 {
		return table
	}

	table.Headers = rows[0]
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
