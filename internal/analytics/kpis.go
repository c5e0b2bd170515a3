package analytics

import (
	"math"

	"github.com/samber/lo"

	"avancofisico/pkg/contracts/domain"
)

// Totals are the sums every KPI, insight and chart is built from
type Totals struct {
	PesoTotalKg      float64
	ProduzidoKg      float64
	ExpedidoKg       float64
	SaldoAProduzirKg float64
	SaldoAExpedirKg  float64
}

// ComputeTotals sums the view. Balances are taken from the sums and clamped
// at zero.
func ComputeTotals(records []domain.Record) Totals {
	total := lo.SumBy(records, func(r domain.Record) float64 { return r.PesoTotalKg })
	produced := lo.SumBy(records, func(r domain.Record) float64 { return r.ProduzidoKg })
	shipped := lo.SumBy(records, func(r domain.Record) float64 { return r.PesoExpedKg })

	return Totals{
		PesoTotalKg:      total,
		ProduzidoKg:      produced,
		ExpedidoKg:       shipped,
		SaldoAProduzirKg: math.Max(0, total-produced),
		SaldoAExpedirKg:  math.Max(0, produced-shipped),
	}
}

// MeanLeadTime averages the non-negative lead times; ok is false when no
// record has one
func MeanLeadTime(records []domain.Record) (mean float64, ok bool) {
	samples := lo.FilterMap(records, func(r domain.Record, _ int) (int, bool) {
		return r.LeadtimeDias.Int, r.LeadtimeDias.Valid && r.LeadtimeDias.Int >= 0
	})
	if len(samples) == 0 {
		return 0, false
	}
	return float64(lo.Sum(samples)) / float64(len(samples)), true
}

type cardSpec struct {
	id       string
	title    string
	subtitle string
}

var cardSpecs = []cardSpec{
	{"peso_total", "Peso Total", "∑ Peso total do escopo (kg)"},
	{"peso_produzido", "Peso Produzido", "∑ Última etapa atingida (kg)"},
	{"peso_expedido", "Peso Expedido", "∑ Expedição (kg)"},
	{"saldo_a_produzir", "Saldo a Produzir", "Total − Produzido (kg)"},
	{"saldo_a_expedir", "Saldo a Expedir (WIP)", "Produzido − Expedido (kg)"},
	{"avanco_fisico", "% Avanço Físico", "Produzido ÷ Total"},
	{"expedicao", "% Expedição", "Expedido ÷ Total"},
	{"lead_time_medio", "Lead Time Médio", "Expedição − Recebimento (dias)"},
}

// ComputeKPIs builds the KPI summary and its eight cards. An empty view
// shows "-" on every card.
func ComputeKPIs(records []domain.Record) domain.KPISummary {
	t := ComputeTotals(records)
	summary := domain.KPISummary{
		Rows:             len(records),
		PesoTotalKg:      t.PesoTotalKg,
		PesoProduzidoKg:  t.ProduzidoKg,
		PesoExpedidoKg:   t.ExpedidoKg,
		SaldoAProduzirKg: t.SaldoAProduzirKg,
		SaldoAExpedirKg:  t.SaldoAExpedirKg,
		AvancoPct:        SafeRatio(t.ProduzidoKg, t.PesoTotalKg) * 100,
		ExpedicaoPct:     SafeRatio(t.ExpedidoKg, t.PesoTotalKg) * 100,
	}
	if mean, ok := MeanLeadTime(records); ok {
		summary.LeadTimeMedioDias = &mean
	}

	values := []*float64{
		ptr(summary.PesoTotalKg),
		ptr(summary.PesoProduzidoKg),
		ptr(summary.PesoExpedidoKg),
		ptr(summary.SaldoAProduzirKg),
		ptr(summary.SaldoAExpedirKg),
		ptr(summary.AvancoPct),
		ptr(summary.ExpedicaoPct),
		summary.LeadTimeMedioDias,
	}
	displays := []string{
		FormatKg(summary.PesoTotalKg),
		FormatKg(summary.PesoProduzidoKg),
		FormatKg(summary.PesoExpedidoKg),
		FormatKg(summary.SaldoAProduzirKg),
		FormatKg(summary.SaldoAExpedirKg),
		FormatPercent(summary.AvancoPct / 100),
		FormatPercent(summary.ExpedicaoPct / 100),
		Placeholder,
	}
	if summary.LeadTimeMedioDias != nil {
		displays[7] = FormatDays(*summary.LeadTimeMedioDias)
	}

	summary.Cards = make([]domain.KPICard, len(cardSpecs))
	for i, spec := range cardSpecs {
		card := domain.KPICard{
			ID:       spec.id,
			Title:    spec.title,
			Value:    values[i],
			Display:  displays[i],
			Subtitle: spec.subtitle,
		}
		if len(records) == 0 {
			card.Display = Placeholder
		}
		summary.Cards[i] = card
	}

	return summary
}

func ptr(v float64) *float64 {
	return &v
}
