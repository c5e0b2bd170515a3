// Package services implements the business logic layer of the dashboard.
// It sits between the transports (HTTP handlers, the websocket hub, the
// report CLI) and the pure computation packages, so every surface renders
// the same numbers for the same filter.
//
// # Render cycle
//
// DashboardService.Render runs one cycle over the immutable dataset:
//
//	filters.Apply -> analytics (KPIs, insights, table) -> charts.BuildAll
//
// Renders are idempotent, so identical concurrent requests are coalesced
// with singleflight on the canonical filter key. Each cycle is traced and
// counted on the DashboardMetrics instruments.
//
// # Degraded mode
//
// When the spreadsheet could not be read the service still renders: the
// dashboard carries the load status message with zero KPIs and empty
// series. Only the snapshot needs data and returns ErrDatasetNotLoaded.
//
// # Health
//
// HealthService answers health, readiness and liveness probes. Readiness
// reports "degraded" rather than failing when no data is loaded, since the
// process keeps serving the status message.
package services
