package dataprocessing

// Canonical field names
const (
	FieldDtReceb         = "dt_receb"
	FieldDtEntrega       = "dt_entrega"
	FieldDtExped         = "dt_exped"
	FieldPesoTotalKg     = "peso_total_kg"
	FieldPesoExpedKg     = "peso_exped_kg"
	FieldPrepKg          = "prep_kg"
	FieldMontKg          = "mont_kg"
	FieldSoldKg          = "sold_kg"
	FieldAcabKg          = "acab_kg"
	FieldPintKg          = "pint_kg"
	FieldCliente         = "cliente"
	FieldOSCliente       = "os_cliente"
	FieldTag             = "tag"
	FieldSituacaoDesenho = "situacao_desenho"
	FieldDesenhoPai      = "desenho_pai"
	FieldDescricao       = "descricao"

	FieldProduzidoKg      = "produzido_kg"
	FieldEtapaAtual       = "etapa_atual"
	FieldSaldoAProduzirKg = "saldo_a_produzir_kg"
	FieldSaldoAExpedirKg  = "saldo_a_expedir_kg"
	FieldLeadtimeDias     = "leadtime_dias"
	FieldAtrasado         = "atrasado"
)

// RequiredFields are the canonical inputs every prepared record carries.
// A field absent from the sheet is read as an all-missing column.
var RequiredFields = []string{
	FieldDtReceb, FieldDtEntrega, FieldDtExped,
	FieldPesoTotalKg, FieldPesoExpedKg,
	FieldPrepKg, FieldMontKg, FieldSoldKg, FieldAcabKg, FieldPintKg,
	FieldCliente, FieldOSCliente, FieldTag, FieldSituacaoDesenho,
	FieldDesenhoPai, FieldDescricao,
}

// DerivedFields are computed by the preparer
var DerivedFields = []string{
	FieldProduzidoKg,
	FieldEtapaAtual,
	FieldSaldoAProduzirKg,
	FieldSaldoAExpedirKg,
	FieldLeadtimeDias,
	FieldAtrasado,
}

var (
	dateFields   = []string{FieldDtReceb, FieldDtEntrega, FieldDtExped}
	weightFields = []string{FieldPesoTotalKg, FieldPesoExpedKg, FieldPrepKg, FieldMontKg, FieldSoldKg, FieldAcabKg, FieldPintKg}
)
