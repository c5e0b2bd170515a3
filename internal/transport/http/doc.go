// Package http implements the HTTP request handlers of the dashboard
// service. Handlers are thin: they parse and validate the request, call the
// service layer and render the result or an RFC 7807 problem.
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/dataset/status
//	GET  /api/dataset/snapshot
//	GET  /api/filters/options
//	GET  /api/filters/defaults
//	GET  /api/dashboard            filters from query parameters
//	POST /api/dashboard            filters from a JSON FilterRequest
//	GET  /api/dashboard/export.csv
//	GET  /api/dashboard/export.xlsx
//
// Filter query parameters are cliente, os, tag and situacao (repeatable),
// receb_start, receb_end, exped_start, exped_end (YYYY-MM-DD) and desenho.
//
// # Degraded mode
//
// Without a loaded spreadsheet the dashboard endpoints still answer 200 with
// zero KPIs, empty series and the load status message. Only the snapshot
// answers 503.
package http
