package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/aka-exporter/internal/links"
)

const (
	markdownHeader    = "| AKA Link | Title | HTTP Result | HTTP Status Line |"
	markdownSeparator = "| --- | --- | --- | --- |"
)

var markdownEscaper = strings.NewReplacer(
	`|`, `\|`,
	`\`, `\\`,
	`<`, `&lt;`,
	`>`, `&gt;`,
	`&`, `&amp;`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
)

var badgeColors = map[links.StatusClass]string{
	links.ClassSuccess:  "green",
	links.ClassRedirect: "yellow",
	links.ClassError:    "red",
	links.ClassUnknown:  "gray",
}

// EscapeMarkdown escapes characters that would break a Markdown table cell.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Badge returns the shields.io image for a status code.
func Badge(code int) string {
	class := links.ClassOf(code)
	return fmt.Sprintf("![](https://img.shields.io/badge/%d-%s-%s)", code, class, badgeColors[class])
}

// WriteMarkdown renders rows as a Markdown table. The destination URL is emitted unescaped.
func WriteMarkdown(w io.Writer, rows []links.ReportRow) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%s\n", markdownHeader, markdownSeparator); err != nil {
		return fmt.Errorf("write markdown header: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(bw, "| [%s](%s) | %s | %s | %s |\n",
			EscapeMarkdown(row.AkaLink),
			row.URL,
			EscapeMarkdown(row.Title),
			Badge(row.StatusCode),
			EscapeMarkdown(row.StatusLine),
		); err != nil {
			return fmt.Errorf("write markdown row %s: %w", row.AkaLink, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush markdown: %w", err)
	}
	return nil
}
