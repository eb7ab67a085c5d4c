package docparse

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "blockquote": true, "table": true, "ul": true, "ol": true,
	"section": true, "article": true, "header": true, "footer": true, "title": true,
}

// extractHTML returns the visible text of an HTML document with one line per
// block element. Blank lines are dropped and each line is trimmed.
func extractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var raw strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		raw.WriteString(title)
		raw.WriteByte('\n')
	}
	writeVisibleText(doc.Find("body"), &raw)

	var b strings.Builder
	for _, line := range strings.Split(raw.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func writeVisibleText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
			return
		case strings.HasPrefix(name, "#"), skippedElements[name]:
			return
		}

		writeVisibleText(c, b)
		if blockElements[name] {
			b.WriteByte('\n')
		}
	})
}
