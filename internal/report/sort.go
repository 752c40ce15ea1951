// Package report orders probe results and renders the CSV and Markdown reports.
package report

import (
	"cmp"
	"slices"

	"github.com/JakeFAU/aka-exporter/internal/links"
)

// Sort orders rows by descending status code, then ascending AKA link.
func Sort(rows []links.ReportRow) {
	slices.SortStableFunc(rows, func(a, b links.ReportRow) int {
		if c := cmp.Compare(b.StatusCode, a.StatusCode); c != 0 {
			return c
		}
		return cmp.Compare(a.AkaLink, b.AkaLink)
	})
}
