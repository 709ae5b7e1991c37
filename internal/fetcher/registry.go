package fetcher

import (
	"fmt"
	"strings"
	"time"
)

// Source names as used in configuration and logs.
const (
	SourceBloomberg = "Bloomberg"
	SourceFinViz    = "FinViz"
	SourceNasdaq    = "NASDAQ"
	SourceYahoo     = "Yahoo"
	SourceZacks     = "Zacks"
)

// DefaultEnabled lists the sources queried when configuration does not say
// otherwise. NASDAQ rejects scripted clients and mirrors Zacks anyway.
var DefaultEnabled = []string{SourceBloomberg, SourceFinViz, SourceYahoo, SourceZacks}

// AllSources returns every known source. now drives year inference for pages that
// omit the year.
func AllSources(now func() time.Time) []Source {
	if now == nil {
		now = time.Now
	}
	return []Source{
		{Name: SourceBloomberg, URLTemplate: "https://www.bloomberg.com/quote/{}:US", Extractor: ExtractorFunc(ExtractBloomberg)},
		{Name: SourceFinViz, URLTemplate: "https://finviz.com/quote.ashx?t={}", Extractor: &FinViz{Now: now}},
		{Name: SourceNasdaq, URLTemplate: "http://www.nasdaq.com/earnings/report/{}", Extractor: ExtractorFunc(ExtractNasdaq)},
		{Name: SourceYahoo, URLTemplate: "https://finance.yahoo.com/quote/{}", Extractor: ExtractorFunc(ExtractYahoo)},
		{Name: SourceZacks, URLTemplate: "https://www.zacks.com/stock/quote/{}", Extractor: ExtractorFunc(ExtractZacks)},
	}
}

// SelectSources picks the named sources out of AllSources. Names match
// case-insensitively; an empty list selects DefaultEnabled.
func SelectSources(names []string, now func() time.Time) ([]Source, error) {
	if len(names) == 0 {
		names = DefaultEnabled
	}

	all := AllSources(now)
	byName := make(map[string]Source, len(all))
	for _, s := range all {
		byName[strings.ToLower(s.Name)] = s
	}

	selected := make([]Source, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		src, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("unknown earnings source %q", name)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		selected = append(selected, src)
	}
	return selected, nil
}
