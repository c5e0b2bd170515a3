package filters

import (
	"slices"
	"strings"
	"time"

	"avancofisico/pkg/contracts/domain"
)

// predicate reports whether a record passes one active filter
type predicate func(r *domain.Record) bool

// Apply returns the records matching every active predicate of spec, in
// their original order
func Apply(records []domain.Record, spec domain.FilterSpec) []domain.Record {
	preds := compile(spec)

	out := make([]domain.Record, 0, len(records))
	for i := range records {
		if matchesAll(&records[i], preds) {
			out = append(out, records[i])
		}
	}
	return out
}

// Count returns how many records match spec without copying them
func Count(records []domain.Record, spec domain.FilterSpec) int {
	preds := compile(spec)

	n := 0
	for i := range records {
		if matchesAll(&records[i], preds) {
			n++
		}
	}
	return n
}

func matchesAll(r *domain.Record, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// compile builds the active predicates of spec
func compile(spec domain.FilterSpec) []predicate {
	var preds []predicate

	if p := membership(spec.Clientes, func(r *domain.Record) string { return r.Cliente }); p != nil {
		preds = append(preds, p)
	}
	if p := membership(spec.OS, func(r *domain.Record) string { return r.OSCliente }); p != nil {
		preds = append(preds, p)
	}
	if p := membership(spec.Tags, func(r *domain.Record) string { return r.Tag }); p != nil {
		preds = append(preds, p)
	}
	if p := membership(spec.Situacoes, func(r *domain.Record) string { return r.SituacaoDesenho }); p != nil {
		preds = append(preds, p)
	}

	preds = append(preds, dateBounds(spec.Receb, func(r *domain.Record) domain.NullDate { return r.DtReceb })...)
	preds = append(preds, dateBounds(spec.Exped, func(r *domain.Record) domain.NullDate { return r.DtExped })...)

	if needle := strings.ToLower(strings.TrimSpace(spec.DesenhoPai)); needle != "" {
		preds = append(preds, func(r *domain.Record) bool {
			return strings.Contains(strings.ToLower(r.DesenhoPai), needle)
		})
	}

	return preds
}

func membership(values []string, field func(r *domain.Record) string) predicate {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(r *domain.Record) bool {
		_, ok := set[field(r)]
		return ok
	}
}

// dateBounds compiles the active sides of a range. A record without the date
// fails every active side.
func dateBounds(rng domain.DateRange, field func(r *domain.Record) domain.NullDate) []predicate {
	var preds []predicate
	if rng.Start.Valid {
		start := rng.Start.Time
		preds = append(preds, func(r *domain.Record) bool {
			d := field(r)
			return d.Valid && !d.Time.Before(start)
		})
	}
	if rng.End.Valid {
		end := rng.End.Time
		preds = append(preds, func(r *domain.Record) bool {
			d := field(r)
			return d.Valid && !d.Time.After(end)
		})
	}
	return preds
}

// Normalize returns spec with duplicate list entries removed and the text
// trimmed. It selects the same rows as spec.
func Normalize(spec domain.FilterSpec) domain.FilterSpec {
	clean := func(values []string) []string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			if slices.Contains(out, v) {
				continue
			}
			out = append(out, v)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	spec.Clientes = clean(spec.Clientes)
	spec.OS = clean(spec.OS)
	spec.Tags = clean(spec.Tags)
	spec.Situacoes = clean(spec.Situacoes)
	spec.DesenhoPai = strings.TrimSpace(spec.DesenhoPai)
	return spec
}

// ParseDay parses a YYYY-MM-DD filter bound; "" is an unset bound
func ParseDay(s string) (domain.NullDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.NullDate{}, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return domain.NullDate{}, err
	}
	return domain.NewDate(t), nil
}
