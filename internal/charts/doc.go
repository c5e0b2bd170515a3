// Package charts turns a filtered view into the six chart series of the
// dashboard: stage reach funnel, WIP by stage, weekly received and shipped
// weight, top OS by backlog, lead-time histogram and stage conversion.
//
// Builders are pure functions of their input and never fail; an empty view
// yields zero-valued or empty series.
package charts
