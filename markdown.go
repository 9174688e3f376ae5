package pdfregion

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ivanvanderbyl/markdown"
)

// ResultsToMarkdown renders extraction results as markdown: one section per
// page in result order, followed by a summary table.
func ResultsToMarkdown(results []ExtractedResult) string {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("Extracted Regions").LF()

	if len(results) == 0 {
		md.PlainText("No text found inside the selected regions.")
	}

	lastPage := 0
	for i, result := range results {
		if result.PageNumber != lastPage {
			if i > 0 {
				md.HorizontalRule().LF()
			}
			md.H2(fmt.Sprintf("Page %d", result.PageNumber)).LF()
			lastPage = result.PageNumber
		}
		md.H3(result.SourcePolygonID)
		md.PlainText(escapeMarkdown(result.Text)).LF()
	}

	if len(results) > 0 {
		rows := make([][]string, 0, len(results))
		for _, result := range results {
			rows = append(rows, []string{
				strconv.Itoa(result.PageNumber),
				result.SourcePolygonID,
				strconv.Itoa(len(strings.Fields(result.Text))),
			})
		}
		md.HorizontalRule().LF()
		md.H2("Summary")
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Region", "Words"},
			Rows:   rows,
		})
	}

	if err := md.Build(); err != nil {
		return ""
	}

	return buf.String()
}

// escapeMarkdown neutralises characters that would otherwise turn extracted
// text into markup.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"#", `\#`,
	)
	return replacer.Replace(text)
}
