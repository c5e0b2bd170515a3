// Package api contains the HTTP and websocket request contracts, version v1.
package api

import (
	"net/url"
	"strings"
	"time"

	"avancofisico/pkg/contracts/domain"
)

// DateRangeRequest is an inclusive date range; empty bounds are open
type DateRangeRequest struct {
	From string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// FilterRequest is the wire form of a filter specification
type FilterRequest struct {
	Clientes   []string         `json:"clientes,omitempty" validate:"max=1000,dive,max=200"`
	OS         []string         `json:"os,omitempty" validate:"max=1000,dive,max=200"`
	Tags       []string         `json:"tags,omitempty" validate:"max=1000,dive,max=200"`
	Situacoes  []string         `json:"situacoes,omitempty" validate:"max=1000,dive,max=200"`
	Receb      DateRangeRequest `json:"receb"`
	Exped      DateRangeRequest `json:"exped"`
	DesenhoPai string           `json:"desenho_pai,omitempty" validate:"max=200"`
}

// ToSpec converts a validated request into a filter specification. Dates
// that do not parse are treated as unset.
func (r FilterRequest) ToSpec() domain.FilterSpec {
	return domain.FilterSpec{
		Clientes:   r.Clientes,
		OS:         r.OS,
		Tags:       r.Tags,
		Situacoes:  r.Situacoes,
		Receb:      r.Receb.toRange(),
		Exped:      r.Exped.toRange(),
		DesenhoPai: r.DesenhoPai,
	}
}

func (d DateRangeRequest) toRange() domain.DateRange {
	return domain.DateRange{Start: parseDay(d.From), End: parseDay(d.To)}
}

func parseDay(s string) domain.NullDate {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return domain.NullDate{}
	}
	return domain.NewDate(t)
}

// FromSpec is the inverse of ToSpec
func FromSpec(spec domain.FilterSpec) FilterRequest {
	return FilterRequest{
		Clientes:   spec.Clientes,
		OS:         spec.OS,
		Tags:       spec.Tags,
		Situacoes:  spec.Situacoes,
		Receb:      DateRangeRequest{From: spec.Receb.Start.String(), To: spec.Receb.End.String()},
		Exped:      DateRangeRequest{From: spec.Exped.Start.String(), To: spec.Exped.End.String()},
		DesenhoPai: spec.DesenhoPai,
	}
}

// Query parameters of GET /api/dashboard and the export endpoints. The list
// parameters may repeat.
const (
	QueryCliente    = "cliente"
	QueryOS         = "os"
	QueryTag        = "tag"
	QuerySituacao   = "situacao"
	QueryRecebStart = "receb_start"
	QueryRecebEnd   = "receb_end"
	QueryExpedStart = "exped_start"
	QueryExpedEnd   = "exped_end"
	QueryDesenho    = "desenho"
)

// FilterRequestFromQuery reads a filter request from URL query parameters.
// Empty list values are dropped.
func FilterRequestFromQuery(q url.Values) FilterRequest {
	list := func(key string) []string {
		var out []string
		for _, v := range q[key] {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	return FilterRequest{
		Clientes:   list(QueryCliente),
		OS:         list(QueryOS),
		Tags:       list(QueryTag),
		Situacoes:  list(QuerySituacao),
		Receb:      DateRangeRequest{From: q.Get(QueryRecebStart), To: q.Get(QueryRecebEnd)},
		Exped:      DateRangeRequest{From: q.Get(QueryExpedStart), To: q.Get(QueryExpedEnd)},
		DesenhoPai: q.Get(QueryDesenho),
	}
}

// Export formats
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)
