package charts

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"avancofisico/internal/analytics"
	"avancofisico/pkg/contracts/domain"
)

const (
	// TopOSLimit is the number of bars in the top OS chart
	TopOSLimit = 10
	// LeadTimeMaxDays bounds the lead-time histogram
	LeadTimeMaxDays = 3650
	// LeadTimeBins is the number of equal-width histogram bins
	LeadTimeBins = 30
)

type reachStep struct {
	label   string
	reached func(r domain.Record) bool
}

var funnelSteps = []reachStep{
	{"Total (escopo)", func(domain.Record) bool { return true }},
	{"Preparação atingida", func(r domain.Record) bool { return r.PrepKg > 0 }},
	{"Montagem atingida", func(r domain.Record) bool { return r.MontKg > 0 }},
	{"Solda atingida", func(r domain.Record) bool { return r.SoldKg > 0 }},
	{"Acabamento atingido", func(r domain.Record) bool { return r.AcabKg > 0 }},
	{"Pintura atingida", func(r domain.Record) bool { return r.PintKg > 0 }},
	{"Expedido", func(r domain.Record) bool { return r.PesoExpedKg > 0 }},
}

// reachedWeights sums the total weight of the records that reached each
// funnel step. The first step is the whole scope.
func reachedWeights(records []domain.Record) []float64 {
	return lo.Map(funnelSteps, func(s reachStep, _ int) float64 {
		return lo.SumBy(records, func(r domain.Record) float64 {
			if s.reached(r) {
				return r.PesoTotalKg
			}
			return 0
		})
	})
}

// Funnel sums the total weight of the records that reached each stage, with
// the percentage of the first step
func Funnel(records []domain.Record) []domain.FunnelStep {
	reached := reachedWeights(records)
	steps := make([]domain.FunnelStep, len(funnelSteps))
	for i, s := range funnelSteps {
		steps[i] = domain.FunnelStep{
			Label:          s.label,
			WeightKg:       reached[i],
			PercentInitial: analytics.SafeRatio(reached[i], reached[0]) * 100,
		}
	}
	return steps
}

// WIPByStage sums the total weight per current stage, ascending by weight.
// Equal weights keep stage order.
func WIPByStage(records []domain.Record) []domain.StageWeight {
	byStage := make(map[domain.Stage]float64)
	for _, r := range records {
		byStage[r.EtapaAtual] += r.PesoTotalKg
	}

	out := lo.MapToSlice(byStage, func(stage domain.Stage, kg float64) domain.StageWeight {
		return domain.StageWeight{Stage: stage, WeightKg: kg}
	})
	slices.SortFunc(out, func(a, b domain.StageWeight) int {
		if c := cmp.Compare(a.WeightKg, b.WeightKg); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Stage.Rank(), b.Stage.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.Stage, b.Stage)
	})
	return out
}

// WeekStart returns the Monday of the week holding t
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func weekly(records []domain.Record, date func(domain.Record) domain.NullDate, weight func(domain.Record) float64) []domain.WeeklyPoint {
	byWeek := make(map[time.Time]float64)
	for _, r := range records {
		d := date(r)
		if !d.Valid {
			continue
		}
		byWeek[WeekStart(d.Time)] += weight(r)
	}

	weeks := lo.Keys(byWeek)
	slices.SortFunc(weeks, func(a, b time.Time) int { return a.Compare(b) })
	return lo.Map(weeks, func(w time.Time, _ int) domain.WeeklyPoint {
		return domain.WeeklyPoint{WeekStart: w.Format(domain.DateLayout), WeightKg: byWeek[w]}
	})
}

// Weekly buckets total weight by reception week and shipped weight by
// shipping week. Records without the date are left out of that series.
func Weekly(records []domain.Record) domain.TimeSeries {
	return domain.TimeSeries{
		Received: weekly(records,
			func(r domain.Record) domain.NullDate { return r.DtReceb },
			func(r domain.Record) float64 { return r.PesoTotalKg }),
		Shipped: weekly(records,
			func(r domain.Record) domain.NullDate { return r.DtExped },
			func(r domain.Record) float64 { return r.PesoExpedKg }),
	}
}

// TopOSByBacklog returns the OS with the largest balance to produce, at most
// TopOSLimit of them. Records without an OS are skipped.
func TopOSByBacklog(records []domain.Record) []domain.TopOS {
	byOS := make(map[string]*domain.TopOS)
	for _, r := range records {
		if r.OSCliente == "" {
			continue
		}
		agg, ok := byOS[r.OSCliente]
		if !ok {
			agg = &domain.TopOS{OS: r.OSCliente}
			byOS[r.OSCliente] = agg
		}
		agg.SaldoAProduzirKg += r.SaldoAProduzirKg
		agg.TotalKg += r.PesoTotalKg
	}

	out := lo.MapToSlice(byOS, func(_ string, agg *domain.TopOS) domain.TopOS { return *agg })
	slices.SortFunc(out, func(a, b domain.TopOS) int {
		if c := cmp.Compare(b.SaldoAProduzirKg, a.SaldoAProduzirKg); c != 0 {
			return c
		}
		return cmp.Compare(a.OS, b.OS)
	})
	if len(out) > TopOSLimit {
		out = out[:TopOSLimit]
	}
	return out
}

// LeadTimeHistogram counts lead times between 0 and LeadTimeMaxDays days in
// LeadTimeBins equal-width bins. The last bin includes its upper edge.
func LeadTimeHistogram(records []domain.Record) []domain.HistogramBin {
	width := float64(LeadTimeMaxDays) / LeadTimeBins
	bins := make([]domain.HistogramBin, LeadTimeBins)
	for i := range bins {
		bins[i].Lower = float64(i) * width
		bins[i].Upper = float64(i+1) * width
	}

	for _, r := range records {
		if !r.LeadtimeDias.Valid {
			continue
		}
		days := r.LeadtimeDias.Int
		if days < 0 || days > LeadTimeMaxDays {
			continue
		}
		idx := min(int(float64(days)/width), LeadTimeBins-1)
		bins[idx].Count++
	}
	return bins
}

var conversionLabels = []string{
	"Total→Prep", "Prep→Mont", "Mont→Sold", "Sold→Acab", "Acab→Pint", "Pint→Exped",
}

// Conversion is the share of reached weight carried from each funnel step to
// the next, in percent. It agrees with Funnel on the same view.
func Conversion(records []domain.Record) []domain.ConversionStep {
	chain := reachedWeights(records)

	steps := make([]domain.ConversionStep, len(conversionLabels))
	for i, label := range conversionLabels {
		steps[i] = domain.ConversionStep{
			Label:   label,
			Percent: analytics.SafeRatio(chain[i+1], chain[i]) * 100,
		}
	}
	return steps
}

// BuildAll computes every series concurrently. The records are only read.
func BuildAll(ctx context.Context, records []domain.Record) (domain.Charts, error) {
	var charts domain.Charts
	g, ctx := errgroup.WithContext(ctx)

	build := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}
	build(func() { charts.Funnel = Funnel(records) })
	build(func() { charts.WIPByStage = WIPByStage(records) })
	build(func() { charts.Weekly = Weekly(records) })
	build(func() { charts.TopOS = TopOSByBacklog(records) })
	build(func() { charts.LeadTime = LeadTimeHistogram(records) })
	build(func() { charts.Conversion = Conversion(records) })

	if err := g.Wait(); err != nil {
		return domain.Charts{}, err
	}
	return charts, nil
}
