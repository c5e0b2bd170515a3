package domain

// Stage is the production stage label assigned to a record
type Stage string

const (
	StageExpedido    Stage = "Expedido"
	StagePintura     Stage = "Pintura (pronto p/ expedir)"
	StageAcabamento  Stage = "Acabamento"
	StageSolda       Stage = "Solda"
	StageMontagem    Stage = "Montagem"
	StagePreparacao  Stage = "Preparação"
	StageNaoIniciado Stage = "Não iniciado"
)

// ProductionStages lists the five weighed stages in process order
var ProductionStages = []Stage{
	StagePreparacao,
	StageMontagem,
	StageSolda,
	StageAcabamento,
	StagePintura,
}

// BottleneckOrder is the tie-break order for the bottleneck insight
var BottleneckOrder = []Stage{
	StagePreparacao,
	StageMontagem,
	StageSolda,
	StageAcabamento,
	StagePintura,
	StageNaoIniciado,
}

// String returns the display label
func (s Stage) String() string {
	return string(s)
}

// Rank returns the position of s in BottleneckOrder, or len(BottleneckOrder)
// for labels outside it
func (s Stage) Rank() int {
	for i, st := range BottleneckOrder {
		if st == s {
			return i
		}
	}
	return len(BottleneckOrder)
}
