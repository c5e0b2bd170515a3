package dataprocessing

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// columnAliases maps normalized spreadsheet headers to canonical fields.
// Several spellings of the same column occur across workbook revisions.
var columnAliases = map[string]string{
	"DATA RECEBIMENTO DA GUIA": FieldDtReceb,
	"DATA DE ENTREGA":          FieldDtEntrega,
	"DATA EXPEDIÇÃO":           FieldDtExped,

	"PESO TOTAL ( KG)":   FieldPesoTotalKg,
	"PESO TOTAL ( KG )":  FieldPesoTotalKg,
	"PESO TOTAL (KG)":    FieldPesoTotalKg,
	"PESO EXPEDIDO (KG)": FieldPesoExpedKg,

	"CLIENTE":              FieldCliente,
	"OS_CLIENTE":           FieldOSCliente,
	"TAG":                  FieldTag,
	"SITUAÇÃO DO DESENHO":  FieldSituacaoDesenho,
	"N° DESENHO PAI":       FieldDesenhoPai,
	"DESCRIÇÃO DO DESENHO": FieldDescricao,

	"DESENHOS PREPARADOS (KG)": FieldPrepKg,
	"DESENHOS MONTADOS (KG)":   FieldMontKg,
	"DESENHOS SOLDADOS (KG)":   FieldSoldKg,
	"DESENHOS ACABADOS (KG)":   FieldAcabKg,
	"DESENHOS PITADOS (KG)":    FieldPintKg,
	"DESENHOS PINTADOS (KG)":   FieldPintKg,
}

// NormalizeHeader trims a raw header and collapses every run of whitespace,
// line breaks included, to a single space
func NormalizeHeader(h string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(h), " ")
}

// CanonicalField returns the canonical field for a raw header
func CanonicalField(header string) (string, bool) {
	field, ok := columnAliases[NormalizeHeader(header)]
	return field, ok
}

// ColumnMapping locates canonical fields in a header row
type ColumnMapping struct {
	// Fields maps a canonical field to its column index
	Fields map[string]int
	// Headers holds every normalized header in sheet order; unmatched
	// headers are kept as they are
	Headers []string
	// Unmatched lists normalized headers with no canonical field
	Unmatched []string
	// Missing lists required fields with no column
	Missing []string
}

// MapColumns normalizes a header row and resolves aliases. When two headers
// resolve to the same field the leftmost column wins.
func MapColumns(headers []string) ColumnMapping {
	m := ColumnMapping{
		Fields:  make(map[string]int, len(RequiredFields)),
		Headers: make([]string, len(headers)),
	}

	for i, raw := range headers {
		h := NormalizeHeader(raw)
		m.Headers[i] = h

		field, ok := columnAliases[h]
		if !ok {
			if h != "" {
				m.Unmatched = append(m.Unmatched, h)
			}
			continue
		}
		if _, taken := m.Fields[field]; !taken {
			m.Fields[field] = i
		}
	}

	for _, field := range RequiredFields {
		if _, ok := m.Fields[field]; !ok {
			m.Missing = append(m.Missing, field)
		}
	}

	return m
}

// Value returns the cell of a canonical field in row, or "" when the field
// has no column or the row is shorter than the header
func (m ColumnMapping) Value(row []string, field string) string {
	idx, ok := m.Fields[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
