package domain

import "time"

// KPICard is one headline indicator with its pt-BR display string
type KPICard struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Value    *float64 `json:"value"`
	Display  string   `json:"display"`
	Subtitle string   `json:"subtitle"`
}

// KPISummary holds the headline totals of a filtered view
type KPISummary struct {
	Rows              int       `json:"rows"`
	PesoTotalKg       float64   `json:"peso_total_kg"`
	PesoProduzidoKg   float64   `json:"peso_produzido_kg"`
	PesoExpedidoKg    float64   `json:"peso_expedido_kg"`
	SaldoAProduzirKg  float64   `json:"saldo_a_produzir_kg"`
	SaldoAExpedirKg   float64   `json:"saldo_a_expedir_kg"`
	AvancoPct         float64   `json:"avanco_pct"`
	ExpedicaoPct      float64   `json:"expedicao_pct"`
	LeadTimeMedioDias *float64  `json:"lead_time_medio_dias"`
	Cards             []KPICard `json:"cards"`
}

// StageWeight pairs a stage label with a weight
type StageWeight struct {
	Stage    Stage   `json:"stage"`
	WeightKg float64 `json:"weight_kg"`
}

// OSWeight pairs an OS with a weight
type OSWeight struct {
	OS       string  `json:"os"`
	WeightKg float64 `json:"weight_kg"`
}

// Insights is the automatic commentary on a filtered view
type Insights struct {
	Empty      bool        `json:"empty"`
	Bottleneck StageWeight `json:"bottleneck"`
	WIPKg      float64     `json:"wip_kg"`
	BacklogKg  float64     `json:"backlog_kg"`
	AtrasadoKg float64     `json:"atrasado_kg"`
	TopWIPOS   OSWeight    `json:"top_wip_os"`
	Lines      []string    `json:"lines"`
}

// TableColumn is the column metadata of the drill-down table
type TableColumn struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TableRow is one formatted table row keyed by column id
type TableRow map[string]any

// TablePayload is the capped drill-down table
type TablePayload struct {
	Columns   []TableColumn `json:"columns"`
	Rows      []TableRow    `json:"rows"`
	TotalRows int           `json:"total_rows"`
	Truncated bool          `json:"truncated"`
}

// FunnelStep is one step of the stage reach funnel
type FunnelStep struct {
	Label          string  `json:"label"`
	WeightKg       float64 `json:"weight_kg"`
	PercentInitial float64 `json:"percent_initial"`
}

// WeeklyPoint is the weight summed over one Monday-starting week
type WeeklyPoint struct {
	WeekStart string  `json:"week_start"`
	WeightKg  float64 `json:"weight_kg"`
}

// TimeSeries holds the received and shipped weekly series
type TimeSeries struct {
	Received []WeeklyPoint `json:"received"`
	Shipped  []WeeklyPoint `json:"shipped"`
}

// TopOS is one bar of the top OS chart
type TopOS struct {
	OS               string  `json:"os"`
	SaldoAProduzirKg float64 `json:"saldo_a_produzir_kg"`
	TotalKg          float64 `json:"total_kg"`
}

// HistogramBin is one lead-time histogram bucket, [Lower, Upper)
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// ConversionStep is the share of weight advancing from one stage to the next
type ConversionStep struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// Charts groups the chart-ready series
type Charts struct {
	Funnel     []FunnelStep     `json:"funnel"`
	WIPByStage []StageWeight    `json:"wip_by_stage"`
	Weekly     TimeSeries       `json:"weekly"`
	TopOS      []TopOS          `json:"top_os"`
	LeadTime   []HistogramBin   `json:"lead_time"`
	Conversion []ConversionStep `json:"conversion"`
}

// DatasetStatus describes the outcome of the startup load
type DatasetStatus struct {
	Loaded   bool      `json:"loaded"`
	Rows     int       `json:"rows"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Dashboard is everything produced by one render cycle
type Dashboard struct {
	Status      DatasetStatus `json:"status"`
	Filters     FilterSpec    `json:"filters"`
	KPIs        KPISummary    `json:"kpis"`
	Charts      Charts        `json:"charts"`
	Insights    Insights      `json:"insights"`
	Table       TablePayload  `json:"table"`
	GeneratedAt time.Time     `json:"generated_at"`
}
