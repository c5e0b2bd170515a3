package dataprocessing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	apperrors "avancofisico/internal/errors"
	"avancofisico/pkg/contracts/domain"
)

// SnapshotColumns is the column order of a serialized snapshot
var SnapshotColumns = append(append([]string{}, RequiredFields...), DerivedFields...)

// snapshot is the "split" layout: column names, a row index and row arrays
type snapshot struct {
	Columns []string            `json:"columns"`
	Index   []int               `json:"index"`
	Data    [][]json.RawMessage `json:"data"`
}

// Serialize encodes records as a split-layout JSON document. Dates are
// RFC 3339 in UTC or null; a missing lead time is null.
func Serialize(records []domain.Record) ([]byte, error) {
	doc := struct {
		Columns []string `json:"columns"`
		Index   []int    `json:"index"`
		Data    [][]any  `json:"data"`
	}{
		Columns: SnapshotColumns,
		Index:   make([]int, len(records)),
		Data:    make([][]any, len(records)),
	}

	for i, r := range records {
		doc.Index[i] = i
		doc.Data[i] = []any{
			r.DtReceb, r.DtEntrega, r.DtExped,
			r.PesoTotalKg, r.PesoExpedKg,
			r.PrepKg, r.MontKg, r.SoldKg, r.AcabKg, r.PintKg,
			r.Cliente, r.OSCliente, r.Tag, r.SituacaoDesenho,
			r.DesenhoPai, r.Descricao,
			r.ProduzidoKg, string(r.EtapaAtual),
			r.SaldoAProduzirKg, r.SaldoAExpedirKg,
			r.LeadtimeDias, r.Atrasado,
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to encode snapshot", err)
	}
	return data, nil
}

// Deserialize decodes a split-layout document produced by Serialize.
// Columns are matched by name; unknown columns are ignored and absent ones
// keep their zero value. Rows are returned in index order as stored.
func Deserialize(blob []byte) ([]domain.Record, error) {
	var doc snapshot
	dec := json.NewDecoder(bytes.NewReader(blob))
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.NewParsingError("malformed snapshot", err)
	}

	position := make(map[string]int, len(doc.Columns))
	for i, col := range doc.Columns {
		position[col] = i
	}

	records := make([]domain.Record, 0, len(doc.Data))
	for rowNum, row := range doc.Data {
		if len(row) != len(doc.Columns) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d has %d values for %d columns", rowNum, len(row), len(doc.Columns)), nil)
		}

		var rec domain.Record
		targets := snapshotTargets(&rec)
		for _, col := range SnapshotColumns {
			idx, ok := position[col]
			if !ok {
				continue
			}
			if err := decodeCell(row[idx], targets[col]); err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("row %d column %s", rowNum, col), err)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func snapshotTargets(r *domain.Record) map[string]any {
	return map[string]any{
		FieldDtReceb:          &r.DtReceb,
		FieldDtEntrega:        &r.DtEntrega,
		FieldDtExped:          &r.DtExped,
		FieldPesoTotalKg:      &r.PesoTotalKg,
		FieldPesoExpedKg:      &r.PesoExpedKg,
		FieldPrepKg:           &r.PrepKg,
		FieldMontKg:           &r.MontKg,
		FieldSoldKg:           &r.SoldKg,
		FieldAcabKg:           &r.AcabKg,
		FieldPintKg:           &r.PintKg,
		FieldCliente:          &r.Cliente,
		FieldOSCliente:        &r.OSCliente,
		FieldTag:              &r.Tag,
		FieldSituacaoDesenho:  &r.SituacaoDesenho,
		FieldDesenhoPai:       &r.DesenhoPai,
		FieldDescricao:        &r.Descricao,
		FieldProduzidoKg:      &r.ProduzidoKg,
		FieldEtapaAtual:       &r.EtapaAtual,
		FieldSaldoAProduzirKg: &r.SaldoAProduzirKg,
		FieldSaldoAExpedirKg:  &r.SaldoAExpedirKg,
		FieldLeadtimeDias:     &r.LeadtimeDias,
		FieldAtrasado:         &r.Atrasado,
	}
}

// decodeCell unmarshals one value; null leaves numbers at zero, text empty
// and dates missing
func decodeCell(raw json.RawMessage, target any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		switch t := target.(type) {
		case *domain.NullDate:
			*t = domain.NullDate{}
		case *domain.NullInt:
			*t = domain.NullInt{}
		}
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return err
	}
	if d, ok := target.(*domain.NullDate); ok && d.Valid {
		d.Time = d.Time.In(time.UTC)
	}
	return nil
}
