package report

import (
	"fmt"

	"github.com/JakeFAU/aka-exporter/internal/links"
)

// Summary counts rows per status class.
type Summary struct {
	Success  int `json:"success"`
	Redirect int `json:"redirect"`
	Error    int `json:"error"`
	// NotFound counts rows without a usable status, including codes below 200.
	NotFound int `json:"not_found"`
}

// Summarize tallies rows by class. The four counts always sum to len(rows).
func Summarize(rows []links.ReportRow) Summary {
	var s Summary
	for _, row := range rows {
		switch row.Class() {
		case links.ClassSuccess:
			s.Success++
		case links.ClassRedirect:
			s.Redirect++
		case links.ClassError:
			s.Error++
		default:
			s.NotFound++
		}
	}
	return s
}

// Total returns the number of rows summarized.
func (s Summary) Total() int {
	return s.Success + s.Redirect + s.Error + s.NotFound
}

func (s Summary) String() string {
	return fmt.Sprintf("%d Oks, %d Errors, %d NotFound, %d Redirects", s.Success, s.Error, s.NotFound, s.Redirect)
}
