package analytics

import (
	"strconv"

	"avancofisico/pkg/contracts/domain"
)

// DefaultTableLimit caps the rows of the drill-down table
const DefaultTableLimit = 300

// TableColumns lists the drill-down columns in display order
var TableColumns = []string{
	"cliente", "os_cliente", "tag", "situacao_desenho",
	"desenho_pai",
	"peso_total_kg", "produzido_kg", "peso_exped_kg",
	"saldo_a_produzir_kg", "saldo_a_expedir_kg",
	"etapa_atual",
	"dt_receb", "dt_entrega", "dt_exped",
	"leadtime_dias", "atrasado",
}

// FormatRow projects a record onto the table columns. Weights are whole
// kilograms as plain digits, dates are YYYY-MM-DD or "".
func FormatRow(r domain.Record) domain.TableRow {
	var leadtime any
	if r.LeadtimeDias.Valid {
		leadtime = r.LeadtimeDias.Int
	}

	return domain.TableRow{
		"cliente":             r.Cliente,
		"os_cliente":          r.OSCliente,
		"tag":                 r.Tag,
		"situacao_desenho":    r.SituacaoDesenho,
		"desenho_pai":         r.DesenhoPai,
		"peso_total_kg":       plainKg(r.PesoTotalKg),
		"produzido_kg":        plainKg(r.ProduzidoKg),
		"peso_exped_kg":       plainKg(r.PesoExpedKg),
		"saldo_a_produzir_kg": plainKg(r.SaldoAProduzirKg),
		"saldo_a_expedir_kg":  plainKg(r.SaldoAExpedirKg),
		"etapa_atual":         string(r.EtapaAtual),
		"dt_receb":            r.DtReceb.String(),
		"dt_entrega":          r.DtEntrega.String(),
		"dt_exped":            r.DtExped.String(),
		"leadtime_dias":       leadtime,
		"atrasado":            r.Atrasado,
	}
}

// FormatCells renders a row as strings in column order, for file exports
func FormatCells(r domain.Record) []string {
	row := FormatRow(r)
	cells := make([]string, len(TableColumns))
	for i, col := range TableColumns {
		switch v := row[col].(type) {
		case string:
			cells[i] = v
		case int:
			cells[i] = strconv.Itoa(v)
		case bool:
			cells[i] = strconv.FormatBool(v)
		}
	}
	return cells
}

// BuildTable projects the first limit records of the view. A non-positive
// limit means DefaultTableLimit.
func BuildTable(records []domain.Record, limit int) domain.TablePayload {
	if limit <= 0 {
		limit = DefaultTableLimit
	}

	columns := make([]domain.TableColumn, len(TableColumns))
	for i, c := range TableColumns {
		columns[i] = domain.TableColumn{Name: c, ID: c}
	}

	n := min(limit, len(records))
	rows := make([]domain.TableRow, n)
	for i := 0; i < n; i++ {
		rows[i] = FormatRow(records[i])
	}

	return domain.TablePayload{
		Columns:   columns,
		Rows:      rows,
		TotalRows: len(records),
		Truncated: len(records) > n,
	}
}

func plainKg(v float64) string {
	return strconv.FormatInt(RoundKg(v), 10)
}
