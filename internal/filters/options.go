package filters

import (
	"slices"

	"github.com/samber/lo"

	"avancofisico/pkg/contracts/domain"
)

// BuildOptions lists the sorted distinct non-empty values of each categorical
// field and the date bounds of the received and shipped dates
func BuildOptions(records []domain.Record) domain.FilterOptions {
	return domain.FilterOptions{
		Clientes:    distinctOptions(records, func(r domain.Record) string { return r.Cliente }),
		OS:          distinctOptions(records, func(r domain.Record) string { return r.OSCliente }),
		Tags:        distinctOptions(records, func(r domain.Record) string { return r.Tag }),
		Situacoes:   distinctOptions(records, func(r domain.Record) string { return r.SituacaoDesenho }),
		RecebBounds: bounds(records, func(r domain.Record) domain.NullDate { return r.DtReceb }),
		ExpedBounds: bounds(records, func(r domain.Record) domain.NullDate { return r.DtExped }),
	}
}

func distinctOptions(records []domain.Record, field func(r domain.Record) string) []domain.FilterOption {
	values := lo.Uniq(lo.FilterMap(records, func(r domain.Record, _ int) (string, bool) {
		v := field(r)
		return v, v != ""
	}))
	slices.Sort(values)

	return lo.Map(values, func(v string, _ int) domain.FilterOption {
		return domain.FilterOption{Label: v, Value: v}
	})
}

func bounds(records []domain.Record, field func(r domain.Record) domain.NullDate) domain.DateBounds {
	var earliest, latest domain.NullDate
	for _, r := range records {
		d := field(r)
		if !d.Valid {
			continue
		}
		if !earliest.Valid || d.Time.Before(earliest.Time) {
			earliest = d
		}
		if !latest.Valid || d.Time.After(latest.Time) {
			latest = d
		}
	}

	var b domain.DateBounds
	if earliest.Valid {
		minDay, maxDay := earliest.String(), latest.String()
		b.Min, b.Max = &minDay, &maxDay
	}
	return b
}
