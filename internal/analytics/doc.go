// Package analytics computes the headline numbers of a filtered view: KPI
// cards, automatic insights and the capped drill-down table.
//
// All totals come from the same sums so cards, insights and charts agree.
// Percentages go through SafeRatio, which is 0 when the denominator is not
// positive. Display strings use pt-BR number formatting ("1.234 kg",
// "12,3%"); weights are shown as whole kilograms rounded half to even.
package analytics
