package analytics

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"avancofisico/pkg/contracts/domain"
)

// NoDataInsight is the single insight line of an empty view
const NoDataInsight = "Sem dados suficientes."

// Bottleneck returns the unshipped stage holding the most total weight.
// Ties go to the earliest stage in domain.BottleneckOrder. With nothing
// unshipped the stage is "-" and the weight 0.
func Bottleneck(records []domain.Record) domain.StageWeight {
	pending := lo.Filter(records, func(r domain.Record, _ int) bool {
		return r.EtapaAtual != domain.StageExpedido
	})
	if len(pending) == 0 {
		return domain.StageWeight{Stage: Placeholder, WeightKg: 0}
	}

	byStage := make(map[domain.Stage]float64)
	for _, r := range pending {
		byStage[r.EtapaAtual] += r.PesoTotalKg
	}

	groups := lo.MapToSlice(byStage, func(stage domain.Stage, kg float64) domain.StageWeight {
		return domain.StageWeight{Stage: stage, WeightKg: kg}
	})
	slices.SortFunc(groups, func(a, b domain.StageWeight) int {
		if c := cmp.Compare(b.WeightKg, a.WeightKg); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Stage.Rank(), b.Stage.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.Stage, b.Stage)
	})
	return groups[0]
}

// TopWIPOS returns the OS with the largest summed balance to ship. Ties go to
// the smallest OS string. An empty view yields "-" and 0.
func TopWIPOS(records []domain.Record) domain.OSWeight {
	if len(records) == 0 {
		return domain.OSWeight{OS: Placeholder}
	}

	byOS := make(map[string]float64)
	for _, r := range records {
		byOS[r.OSCliente] += r.SaldoAExpedirKg
	}

	groups := lo.MapToSlice(byOS, func(os string, kg float64) domain.OSWeight {
		return domain.OSWeight{OS: os, WeightKg: kg}
	})
	slices.SortFunc(groups, func(a, b domain.OSWeight) int {
		if c := cmp.Compare(b.WeightKg, a.WeightKg); c != 0 {
			return c
		}
		return cmp.Compare(a.OS, b.OS)
	})
	return groups[0]
}

// BuildInsights summarizes the view in five lines
func BuildInsights(records []domain.Record) domain.Insights {
	if len(records) == 0 {
		return domain.Insights{
			Empty:      true,
			Bottleneck: domain.StageWeight{Stage: Placeholder},
			TopWIPOS:   domain.OSWeight{OS: Placeholder},
			Lines:      []string{NoDataInsight},
		}
	}

	t := ComputeTotals(records)
	late := lo.SumBy(records, func(r domain.Record) float64 {
		if r.Atrasado {
			return r.PesoTotalKg
		}
		return 0
	})
	bottleneck := Bottleneck(records)
	topOS := TopWIPOS(records)

	return domain.Insights{
		Bottleneck: bottleneck,
		WIPKg:      t.SaldoAExpedirKg,
		BacklogKg:  t.SaldoAProduzirKg,
		AtrasadoKg: late,
		TopWIPOS:   topOS,
		Lines: []string{
			"Gargalo atual: " + string(bottleneck.Stage) + " (" + FormatKg(bottleneck.WeightKg) + ")",
			"WIP total: " + FormatKg(t.SaldoAExpedirKg),
			"Backlog de produção: " + FormatKg(t.SaldoAProduzirKg),
			"Peso em atraso (pela data de entrega): " + FormatKg(late),
			"OS com maior WIP: " + topOS.OS + " (" + FormatKg(topOS.WeightKg) + ")",
		},
	}
}
