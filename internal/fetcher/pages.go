package fetcher

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"earnings-watch/internal/earnings"
)

func parseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// firstText returns the trimmed text of the first node matching selector, or ""
// when nothing matches.
func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// ownText returns the first non-blank text node directly under sel, ignoring
// text nested in child elements.
func ownText(sel *goquery.Selection) string {
	var text string
	sel.Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != "#text" {
			return true
		}
		text = strings.TrimSpace(s.Text())
		return text == ""
	})
	return text
}

func parseDate(layout, text string) (earnings.Date, error) {
	t, err := time.Parse(layout, strings.TrimSpace(text))
	if err != nil {
		return earnings.Date{}, fmt.Errorf("parsing date %q: %w", text, err)
	}
	return earnings.DateOf(t), nil
}
