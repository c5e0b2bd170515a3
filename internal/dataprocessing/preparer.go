package dataprocessing

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"avancofisico/internal/infrastructure"
	"avancofisico/pkg/contracts/domain"
)

// stageRule assigns a label when its predicate holds
type stageRule struct {
	matches func(r domain.Record) bool
	stage   domain.Stage
}

// stageRules is evaluated top to bottom; the first match wins
var stageRules = []stageRule{
	{func(r domain.Record) bool { return r.PesoExpedKg > 0 }, domain.StageExpedido},
	{func(r domain.Record) bool { return r.PintKg > 0 }, domain.StagePintura},
	{func(r domain.Record) bool { return r.AcabKg > 0 }, domain.StageAcabamento},
	{func(r domain.Record) bool { return r.SoldKg > 0 }, domain.StageSolda},
	{func(r domain.Record) bool { return r.MontKg > 0 }, domain.StageMontagem},
	{func(r domain.Record) bool { return r.PrepKg > 0 }, domain.StagePreparacao},
}

// ClassifyStage returns the current production stage of a record
func ClassifyStage(r domain.Record) domain.Stage {
	for _, rule := range stageRules {
		if rule.matches(r) {
			return rule.stage
		}
	}
	return domain.StageNaoIniciado
}

// Preparer turns raw rows into records with derived fields
type Preparer struct {
	today  time.Time
	logger *slog.Logger
}

// NewPreparer creates a preparer that evaluates delays against today.
// Only the calendar date of today is used.
func NewPreparer(today time.Time, logger *slog.Logger) *Preparer {
	return &Preparer{
		today:  time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
		logger: infrastructure.WithComponent(logger, "preparer"),
	}
}

// PrepareStats counts cells that could not be coerced
type PrepareStats struct {
	Rows          int
	InvalidDates  int
	InvalidWeight int
	Missing       []string
	Unmatched     []string
}

// Prepare maps headers, coerces every row and computes derived fields.
// Bad cells become missing dates or zero weights; Prepare never fails.
func (p *Preparer) Prepare(table *RawTable) ([]domain.Record, PrepareStats) {
	mapping := MapColumns(table.Headers)
	stats := PrepareStats{
		Rows:      len(table.Rows),
		Missing:   mapping.Missing,
		Unmatched: mapping.Unmatched,
	}

	records := make([]domain.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := domain.Record{
			Cliente:         cleanText(mapping.Value(row, FieldCliente)),
			OSCliente:       cleanText(mapping.Value(row, FieldOSCliente)),
			Tag:             cleanText(mapping.Value(row, FieldTag)),
			SituacaoDesenho: cleanText(mapping.Value(row, FieldSituacaoDesenho)),
			DesenhoPai:      cleanText(mapping.Value(row, FieldDesenhoPai)),
			Descricao:       cleanText(mapping.Value(row, FieldDescricao)),
		}

		dates := map[string]*domain.NullDate{
			FieldDtReceb:   &rec.DtReceb,
			FieldDtEntrega: &rec.DtEntrega,
			FieldDtExped:   &rec.DtExped,
		}
		for _, field := range dateFields {
			raw := mapping.Value(row, field)
			d := ParseDate(raw)
			if !d.Valid && strings.TrimSpace(raw) != "" {
				stats.InvalidDates++
			}
			*dates[field] = d
		}

		weights := map[string]*float64{
			FieldPesoTotalKg: &rec.PesoTotalKg,
			FieldPesoExpedKg: &rec.PesoExpedKg,
			FieldPrepKg:      &rec.PrepKg,
			FieldMontKg:      &rec.MontKg,
			FieldSoldKg:      &rec.SoldKg,
			FieldAcabKg:      &rec.AcabKg,
			FieldPintKg:      &rec.PintKg,
		}
		for _, field := range weightFields {
			raw := mapping.Value(row, field)
			w, ok := parseWeight(raw)
			if !ok && strings.TrimSpace(raw) != "" {
				stats.InvalidWeight++
			}
			*weights[field] = w
		}

		Derive(&rec, p.today)
		records = append(records, rec)
	}

	if stats.InvalidDates > 0 || stats.InvalidWeight > 0 {
		p.logger.Warn("coerced unreadable cells",
			slog.Int("invalid_dates", stats.InvalidDates),
			slog.Int("invalid_weights", stats.InvalidWeight),
		)
	}
	if len(stats.Missing) > 0 {
		p.logger.Warn("required columns not found", slog.Any("fields", stats.Missing))
	}

	return records, stats
}

// Derive computes the derived fields of a record from its inputs
func Derive(r *domain.Record, today time.Time) {
	r.ProduzidoKg = max(r.PintKg, r.AcabKg, r.SoldKg, r.MontKg, r.PrepKg)
	r.EtapaAtual = ClassifyStage(*r)
	r.SaldoAProduzirKg = math.Max(0, r.PesoTotalKg-r.ProduzidoKg)
	r.SaldoAExpedirKg = math.Max(0, r.ProduzidoKg-r.PesoExpedKg)

	r.LeadtimeDias = domain.NullInt{}
	if r.DtReceb.Valid && r.DtExped.Valid {
		days := math.Floor(r.DtExped.Time.Sub(r.DtReceb.Time).Hours() / 24)
		r.LeadtimeDias = domain.NewInt(int(days))
	}

	r.Atrasado = r.DtEntrega.Valid && r.DtEntrega.Time.Before(today) && r.PesoExpedKg <= 0
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
	"02.01.2006",
}

// ParseDate reads a date cell. Excel serial numbers, ISO dates and day-first
// dates are accepted; anything else is missing. Text such as "03/04/2024" is
// always day first (3 April), the pt-BR convention of the workbook.
func ParseDate(raw string) domain.NullDate {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.NullDate{}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 0 {
			return domain.NullDate{}
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return domain.NullDate{}
		}
		return domain.NewDate(t.UTC())
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NewDate(t.UTC())
		}
	}
	return domain.NullDate{}
}

// ParseWeight reads a weight cell. Plain decimals and pt-BR formatted numbers
// ("1.234,5") are accepted; anything else, and negatives, read as 0.
func ParseWeight(raw string) float64 {
	w, _ := parseWeight(raw)
	return w
}

func parseWeight(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "kg"))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil && strings.Contains(s, ",") {
		v, err = strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), 64)
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	return v, true
}

// cleanText trims a text cell; an absent cell reads as ""
func cleanText(raw string) string {
	return strings.TrimSpace(raw)
}
