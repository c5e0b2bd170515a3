// Package filters narrows a prepared dataset to the rows matching a
// domain.FilterSpec and lists the values a user can pick from.
//
// Every predicate is optional. An empty list, an unset date bound or blank
// text leaves the predicate inactive; active predicates are ANDed. Apply is
// pure: it returns a new slice in the input order and never modifies records.
package filters
