package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the calendar-date layout used for table cells and date filters
const DateLayout = "2006-01-02"

// NullDate is a calendar date that may be missing
type NullDate struct {
	Time  time.Time
	Valid bool
}

// NewDate creates a present date
func NewDate(t time.Time) NullDate {
	return NullDate{Time: t, Valid: true}
}

// Date creates a present date at UTC midnight
func Date(year int, month time.Month, day int) NullDate {
	return NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// String formats the date as YYYY-MM-DD, or "" when missing
func (d NullDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// Before reports whether both dates are present and d is strictly before o
func (d NullDate) Before(o NullDate) bool {
	return d.Valid && o.Valid && d.Time.Before(o.Time)
}

// MarshalJSON encodes the date as RFC 3339 in UTC, or null when missing
func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts null, RFC 3339 or YYYY-MM-DD
func (d *NullDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = NullDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = NullDate{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(DateLayout, s)
		if err != nil {
			return err
		}
	}
	*d = NewDate(t.UTC())
	return nil
}

// NullInt is an integer that may be missing
type NullInt struct {
	Int   int
	Valid bool
}

// NewInt creates a present integer
func NewInt(v int) NullInt {
	return NullInt{Int: v, Valid: true}
}

// String formats the value, or "" when missing
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Int)
}

// MarshalJSON encodes the value, or null when missing
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Int)), nil
}

// UnmarshalJSON accepts null or a JSON number without fraction
func (n *NullInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullInt{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NewInt(v)
	return nil
}

// Record is one prepared spreadsheet row: canonical inputs plus derived fields.
// Weights are kilograms and never negative.
type Record struct {
	// Dates
	DtReceb   NullDate `json:"dt_receb"`
	DtEntrega NullDate `json:"dt_entrega"`
	DtExped   NullDate `json:"dt_exped"`

	// Weights
	PesoTotalKg float64 `json:"peso_total_kg"`
	PesoExpedKg float64 `json:"peso_exped_kg"`
	PrepKg      float64 `json:"prep_kg"`
	MontKg      float64 `json:"mont_kg"`
	SoldKg      float64 `json:"sold_kg"`
	AcabKg      float64 `json:"acab_kg"`
	PintKg      float64 `json:"pint_kg"`

	// Text
	Cliente         string `json:"cliente"`
	OSCliente       string `json:"os_cliente"`
	Tag             string `json:"tag"`
	SituacaoDesenho string `json:"situacao_desenho"`
	DesenhoPai      string `json:"desenho_pai"`
	Descricao       string `json:"descricao"`

	// Derived
	ProduzidoKg      float64 `json:"produzido_kg"`
	EtapaAtual       Stage   `json:"etapa_atual"`
	SaldoAProduzirKg float64 `json:"saldo_a_produzir_kg"`
	SaldoAExpedirKg  float64 `json:"saldo_a_expedir_kg"`
	LeadtimeDias     NullInt `json:"leadtime_dias"`
	Atrasado         bool    `json:"atrasado"`
}

// StageWeight returns the weight that reached the given production stage.
// Expedido maps to the shipped weight; other labels return 0.
func (r Record) StageWeight(s Stage) float64 {
	switch s {
	case StagePreparacao:
		return r.PrepKg
	case StageMontagem:
		return r.MontKg
	case StageSolda:
		return r.SoldKg
	case StageAcabamento:
		return r.AcabKg
	case StagePintura:
		return r.PintKg
	case StageExpedido:
		return r.PesoExpedKg
	default:
		return 0
	}
}

// CloneRecords returns an independent copy of the slice
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
