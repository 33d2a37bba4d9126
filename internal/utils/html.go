package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText extracts readable text from an HTML body, used as the plain-body
// fallback and for reply quoting. Returns the input unchanged if it does not
// parse as HTML.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script,style,head").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
