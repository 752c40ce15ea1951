// Package links defines core types shared across the export pipeline.
package links

// StatusClass buckets an HTTP status code for summaries and badges.
type StatusClass string

// Status classes used by the summary line and the Markdown badges.
const (
	ClassSuccess  StatusClass = "success"
	ClassRedirect StatusClass = "redirect"
	ClassError    StatusClass = "error"
	ClassUnknown  StatusClass = "unknown"
)

// NoResponse is the status code recorded when no HTTP response was obtained.
const NoResponse = 0

// Record is one non-archived row read from the table store.
type Record struct {
	RowKey  string
	AkaLink string
	URL     string
	Clicks  int
	Title   string
}

// ProbeResult is the outcome of checking a Record's destination URL.
type ProbeResult struct {
	StatusCode int
	StatusLine string
}

// ReportRow joins a Record with its ProbeResult.
type ReportRow struct {
	Record
	ProbeResult
}

// ClassOf maps a status code onto its StatusClass.
func ClassOf(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return ClassSuccess
	case code >= 300 && code < 400:
		return ClassRedirect
	case code >= 400:
		return ClassError
	default:
		return ClassUnknown
	}
}

// Class returns the StatusClass of the row's probe result.
func (r ReportRow) Class() StatusClass {
	return ClassOf(r.StatusCode)
}
