package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JakeFAU/aka-exporter/internal/links"
)

const csvHeader = `"AKA Link","Destination URL","Clicks","Title","HTTP Result","HTTP"`

// WriteCSV renders rows in order. Text fields are always quoted with embedded quotes doubled;
// numeric fields are written bare.
func WriteCSV(w io.Writer, rows []links.ReportRow) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(csvHeader + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		line := strings.Join([]string{
			quoteCSV(row.AkaLink),
			quoteCSV(row.URL),
			strconv.Itoa(row.Clicks),
			quoteCSV(row.Title),
			strconv.Itoa(row.StatusCode),
			quoteCSV(row.StatusLine),
		}, ",")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.AkaLink, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
