// Command aka-exporter exports the AKA short-link table with a live HTTP status
// for every destination URL.
//
// Pipeline:
//   - Source: non-archived rows are streamed from Azure Tables (or a Postgres
//     mirror) and mapped to records carrying the full short link.
//   - Probes: a bounded worker pool checks each destination with GET, retrying
//     transient failures with exponential backoff inside a per-probe watchdog.
//   - Reports: rows are sorted by status and written as CSV and Markdown next to
//     the output path; EXPORT_SUMMARY=<counts> is the final stdout line.
//   - Optional: reports are mirrored to GCS, a completion event is published to
//     Pub/Sub, and /metrics and /healthz are served while the run is active.
//
// Configuration comes from AKA_* environment variables, an optional .env file
// and an optional --config file. AKA_TABLE_CONNECTION_STRING is required.
package main

import (
	"os"

	"github.com/JakeFAU/aka-exporter/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
