package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already clean", raw: "CLIENTE", want: "CLIENTE"},
		{name: "surrounding spaces", raw: "  TAG  ", want: "TAG"},
		{name: "embedded newline", raw: "DATA RECEBIMENTO\nDA GUIA", want: "DATA RECEBIMENTO DA GUIA"},
		{name: "crlf and tabs", raw: "PESO\r\n\tEXPEDIDO (KG)", want: "PESO EXPEDIDO (KG)"},
		{name: "repeated spaces", raw: "PESO   TOTAL  ( KG)", want: "PESO TOTAL ( KG)"},
		{name: "non breaking space", raw: "DATA DE ENTREGA", want: "DATA DE ENTREGA"},
		{name: "empty", raw: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.raw))
		})
	}
}

func TestCanonicalField_AliasSpellings(t *testing.T) {
	tests := []struct {
		name   string
		header string
		field  string
	}{
		{name: "peso total compact", header: "PESO TOTAL (KG)", field: FieldPesoTotalKg},
		{name: "peso total left space", header: "PESO TOTAL ( KG)", field: FieldPesoTotalKg},
		{name: "peso total both spaces", header: "PESO TOTAL ( KG )", field: FieldPesoTotalKg},
		{name: "peso total with newline", header: "PESO TOTAL\n( KG )", field: FieldPesoTotalKg},
		{name: "pintura historical typo", header: "DESENHOS PITADOS (KG)", field: FieldPintKg},
		{name: "pintura corrected", header: "DESENHOS PINTADOS (KG)", field: FieldPintKg},
		{name: "desenho pai", header: "N° DESENHO PAI", field: FieldDesenhoPai},
		{name: "expedicao date", header: " DATA EXPEDIÇÃO ", field: FieldDtExped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := CanonicalField(tt.header)
			assert.True(t, ok)
			assert.Equal(t, tt.field, field)
		})
	}

	_, ok := CanonicalField("OBSERVAÇÕES")
	assert.False(t, ok)
}

func TestMapColumns(t *testing.T) {
	t.Run("unmatched headers pass through", func(t *testing.T) {
		m := MapColumns([]string{"CLIENTE", "OBSERVAÇÕES  GERAIS", "TAG"})

		assert.Equal(t, 0, m.Fields[FieldCliente])
		assert.Equal(t, 2, m.Fields[FieldTag])
		assert.Equal(t, []string{"CLIENTE", "OBSERVAÇÕES GERAIS", "TAG"}, m.Headers)
		assert.Equal(t, []string{"OBSERVAÇÕES GERAIS"}, m.Unmatched)
	})

	t.Run("missing required fields are reported", func(t *testing.T) {
		m := MapColumns([]string{"CLIENTE"})

		assert.Contains(t, m.Missing, FieldPesoTotalKg)
		assert.Contains(t, m.Missing, FieldDtReceb)
		assert.NotContains(t, m.Missing, FieldCliente)
		assert.Len(t, m.Missing, len(RequiredFields)-1)
	})

	t.Run("leftmost duplicate wins", func(t *testing.T) {
		m := MapColumns([]string{"DESENHOS PINTADOS (KG)", "DESENHOS PITADOS (KG)"})

		assert.Equal(t, 0, m.Fields[FieldPintKg])
	})

	t.Run("value of short row", func(t *testing.T) {
		m := MapColumns([]string{"CLIENTE", "TAG"})

		assert.Equal(t, "ACME", m.Value([]string{"ACME"}, FieldCliente))
		assert.Equal(t, "", m.Value([]string{"ACME"}, FieldTag))
		assert.Equal(t, "", m.Value([]string{"ACME", "T1"}, FieldOSCliente))
	})
}
