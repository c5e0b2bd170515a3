package charts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avancofisico/internal/dataprocessing"
	"avancofisico/pkg/contracts/domain"
)

func derived(records ...domain.Record) []domain.Record {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := range records {
		dataprocessing.Derive(&records[i], today)
	}
	return records
}

func sample() []domain.Record {
	return derived(
		domain.Record{OSCliente: "OS-A", PesoTotalKg: 100, PrepKg: 100, MontKg: 100, SoldKg: 100, AcabKg: 100, PintKg: 100, PesoExpedKg: 100,
			DtReceb: domain.Date(2026, 1, 7), DtExped: domain.Date(2026, 1, 17)},
		domain.Record{OSCliente: "OS-B", PesoTotalKg: 50, PrepKg: 50,
			DtReceb: domain.Date(2026, 1, 5)},
		domain.Record{OSCliente: "OS-C", PesoTotalKg: 200,
			DtReceb: domain.Date(2026, 1, 12)},
		domain.Record{OSCliente: "", PesoTotalKg: 999},
	)
}

func TestFunnel(t *testing.T) {
	steps := Funnel(sample())

	require.Len(t, steps, 7)
	assert.Equal(t, "Total (escopo)", steps[0].Label)
	assert.Equal(t, 1349.0, steps[0].WeightKg)
	assert.Equal(t, 100.0, steps[0].PercentInitial)
	assert.Equal(t, "Preparação atingida", steps[1].Label)
	assert.Equal(t, 150.0, steps[1].WeightKg)
	assert.Equal(t, "Expedido", steps[6].Label)
	assert.Equal(t, 100.0, steps[6].WeightKg)
	assert.InDelta(t, 7.413, steps[6].PercentInitial, 0.001)

	empty := Funnel(nil)
	require.Len(t, empty, 7)
	for _, s := range empty {
		assert.Zero(t, s.WeightKg)
		assert.Zero(t, s.PercentInitial)
	}
}

func TestWIPByStage(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.Record
		want    []domain.StageWeight
	}{
		{
			name: "sums total weight per stage ascending",
			records: derived(
				domain.Record{PesoTotalKg: 100, SoldKg: 80},
				domain.Record{PesoTotalKg: 100, MontKg: 30},
				domain.Record{PesoTotalKg: 50, MontKg: 10},
				domain.Record{PesoTotalKg: 20, MontKg: 10, PesoExpedKg: 5},
			),
			want: []domain.StageWeight{
				{Stage: domain.StageExpedido, WeightKg: 20},
				{Stage: domain.StageSolda, WeightKg: 100},
				{Stage: domain.StageMontagem, WeightKg: 150},
			},
		},
		{
			name: "unstarted scope outweighs partial stage",
			records: derived(
				domain.Record{PesoTotalKg: 200, PrepKg: 100, MontKg: 50, SoldKg: 50, AcabKg: 25},
				domain.Record{PesoTotalKg: 300},
			),
			want: []domain.StageWeight{
				{Stage: domain.StageAcabamento, WeightKg: 200},
				{Stage: domain.StageNaoIniciado, WeightKg: 300},
			},
		},
		{
			name: "equal weights keep stage order",
			records: derived(
				domain.Record{PesoTotalKg: 40},
				domain.Record{PesoTotalKg: 40, PrepKg: 1},
			),
			want: []domain.StageWeight{
				{Stage: domain.StagePreparacao, WeightKg: 40},
				{Stage: domain.StageNaoIniciado, WeightKg: 40},
			},
		},
		{name: "empty", records: nil, want: []domain.StageWeight{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WIPByStage(tt.records)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "2026-01-05"},
		{time.Date(2026, 1, 7, 13, 0, 0, 0, time.UTC), "2026-01-05"},
		{time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), "2026-01-05"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2025-12-29"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in).Format(domain.DateLayout), tt.in.String())
	}
}

func TestWeekly(t *testing.T) {
	got := Weekly(sample())

	assert.Equal(t, []domain.WeeklyPoint{
		{WeekStart: "2026-01-05", WeightKg: 150},
		{WeekStart: "2026-01-12", WeightKg: 200},
	}, got.Received)
	assert.Equal(t, []domain.WeeklyPoint{
		{WeekStart: "2026-01-12", WeightKg: 100},
	}, got.Shipped)
}

func TestTopOSByBacklog(t *testing.T) {
	got := TopOSByBacklog(sample())

	require.Len(t, got, 3)
	assert.Equal(t, "OS-C", got[0].OS)
	assert.Equal(t, 200.0, got[0].SaldoAProduzirKg)
	assert.Equal(t, 200.0, got[0].TotalKg)
	assert.Equal(t, "OS-A", got[1].OS, "zero backlog ties sort by OS")
	assert.Equal(t, "OS-B", got[2].OS)

	var many []domain.Record
	for i := 0; i < 15; i++ {
		many = append(many, domain.Record{OSCliente: string(rune('a' + i)), SaldoAProduzirKg: 1})
	}
	top := TopOSByBacklog(many)
	require.Len(t, top, TopOSLimit)
	assert.Equal(t, "a", top[0].OS)
	assert.Equal(t, "j", top[9].OS)
}

func TestLeadTimeHistogram(t *testing.T) {
	records := []domain.Record{
		{LeadtimeDias: domain.NewInt(0)},
		{LeadtimeDias: domain.NewInt(10)},
		{LeadtimeDias: domain.NewInt(200)},
		{LeadtimeDias: domain.NewInt(3650)},
		{LeadtimeDias: domain.NewInt(3651)},
		{LeadtimeDias: domain.NewInt(-1)},
		{},
	}
	bins := LeadTimeHistogram(records)

	require.Len(t, bins, LeadTimeBins)
	assert.Zero(t, bins[0].Lower)
	assert.InDelta(t, 3650.0, bins[LeadTimeBins-1].Upper, 1e-9)
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 1, bins[LeadTimeBins-1].Count)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 4, total)
}

func TestConversion(t *testing.T) {
	labels := []string{"Total→Prep", "Prep→Mont", "Mont→Sold", "Sold→Acab", "Acab→Pint", "Pint→Exped"}

	tests := []struct {
		name    string
		records []domain.Record
		want    []float64
	}{
		{
			name: "reached weight over previous step",
			records: []domain.Record{
				{PesoTotalKg: 200, PrepKg: 100, MontKg: 50, SoldKg: 50, AcabKg: 25},
				{PesoTotalKg: 300},
			},
			want: []float64{40, 100, 100, 100, 0, 0},
		},
		{
			name: "partial reach at each step",
			records: []domain.Record{
				{PesoTotalKg: 100, PrepKg: 100, MontKg: 100, SoldKg: 100, AcabKg: 100, PintKg: 100, PesoExpedKg: 100},
				{PesoTotalKg: 100, PrepKg: 10, MontKg: 10},
				{PesoTotalKg: 200, PrepKg: 5},
			},
			want: []float64{100, 50, 50, 100, 100, 100},
		},
		{
			name:    "empty view",
			records: nil,
			want:    []float64{0, 0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Conversion(tt.records)
			require.Len(t, got, len(labels))
			for i, step := range got {
				assert.Equal(t, labels[i], step.Label)
				assert.InDelta(t, tt.want[i], step.Percent, 1e-9, step.Label)
			}
		})
	}
}

func TestConversionMatchesFunnel(t *testing.T) {
	records := sample()
	funnel := Funnel(records)
	conversion := Conversion(records)

	for i, step := range conversion {
		want := 0.0
		if funnel[i].WeightKg > 0 {
			want = funnel[i+1].WeightKg / funnel[i].WeightKg * 100
		}
		assert.InDelta(t, want, step.Percent, 1e-9, step.Label)
	}
}

func TestBuildAll(t *testing.T) {
	records := sample()
	charts, err := BuildAll(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, Funnel(records), charts.Funnel)
	assert.Equal(t, WIPByStage(records), charts.WIPByStage)
	assert.Equal(t, Weekly(records), charts.Weekly)
	assert.Equal(t, TopOSByBacklog(records), charts.TopOS)
	assert.Equal(t, LeadTimeHistogram(records), charts.LeadTime)
	assert.Equal(t, Conversion(records), charts.Conversion)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildAll(ctx, records)
	assert.ErrorIs(t, err, context.Canceled)
}
