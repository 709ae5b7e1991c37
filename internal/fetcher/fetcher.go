package fetcher

import (
	"context"
	"net/url"
	"strings"

	"earnings-watch/internal/earnings"
)

// Extractor pulls an announcement date out of a fetched page. A nil DateTime with
// a nil error means the page carried no date.
type Extractor interface {
	Extract(body []byte) (*earnings.DateTime, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(body []byte) (*earnings.DateTime, error)

// Extract calls f.
func (f ExtractorFunc) Extract(body []byte) (*earnings.DateTime, error) {
	return f(body)
}

// Source is one registered earnings-date provider.
type Source struct {
	Name        string
	URLTemplate string
	Extractor   Extractor
}

// URL substitutes the symbol into the template's "{}" placeholder.
func (s Source) URL(symbol string) string {
	sym := url.PathEscape(strings.ToUpper(strings.TrimSpace(symbol)))
	return strings.ReplaceAll(s.URLTemplate, "{}", sym)
}

// Transport performs a GET and returns the status code and body.
type Transport interface {
	Get(ctx context.Context, url string) (int, []byte, error)
}

// ObservationGatherer collects one observation per source for a symbol.
type ObservationGatherer interface {
	Gather(ctx context.Context, symbol string) []earnings.SourcedDateTime
}
