package domain

import (
	"sort"
	"strings"
)

// DateRange bounds a date field. A missing side is inactive.
type DateRange struct {
	Start NullDate `json:"start"`
	End   NullDate `json:"end"`
}

// Active reports whether either side is set
func (r DateRange) Active() bool {
	return r.Start.Valid || r.End.Valid
}

// FilterSpec is the user's current selection. The zero value selects everything.
type FilterSpec struct {
	Clientes   []string  `json:"clientes,omitempty"`
	OS         []string  `json:"os,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Situacoes  []string  `json:"situacoes,omitempty"`
	Receb      DateRange `json:"receb"`
	Exped      DateRange `json:"exped"`
	DesenhoPai string    `json:"desenho_pai,omitempty"`
}

// IsEmpty reports whether no predicate is active
func (f FilterSpec) IsEmpty() bool {
	return len(f.Clientes) == 0 &&
		len(f.OS) == 0 &&
		len(f.Tags) == 0 &&
		len(f.Situacoes) == 0 &&
		!f.Receb.Active() &&
		!f.Exped.Active() &&
		strings.TrimSpace(f.DesenhoPai) == ""
}

// Key returns a canonical string for the spec. Specs selecting the same rows
// share a key regardless of list order or duplicates.
func (f FilterSpec) Key() string {
	var b strings.Builder
	writeList := func(name string, values []string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(canonicalList(values), "\x1f"))
		b.WriteByte('\x1e')
	}
	writeList("cliente", f.Clientes)
	writeList("os", f.OS)
	writeList("tag", f.Tags)
	writeList("situacao", f.Situacoes)
	b.WriteString("receb=" + f.Receb.Start.String() + ".." + f.Receb.End.String() + "\x1e")
	b.WriteString("exped=" + f.Exped.Start.String() + ".." + f.Exped.End.String() + "\x1e")
	b.WriteString("desenho=" + strings.ToLower(strings.TrimSpace(f.DesenhoPai)))
	return b.String()
}

func canonicalList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterOption is one selectable value
type FilterOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DateBounds is the min/max of a date field, nil sides when no dates exist
type DateBounds struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// FilterOptions lists the selectable values and date bounds of a dataset
type FilterOptions struct {
	Clientes    []FilterOption `json:"clientes"`
	OS          []FilterOption `json:"os"`
	Tags        []FilterOption `json:"tags"`
	Situacoes   []FilterOption `json:"situacoes"`
	RecebBounds DateBounds     `json:"receb_bounds"`
	ExpedBounds DateBounds     `json:"exped_bounds"`
}
