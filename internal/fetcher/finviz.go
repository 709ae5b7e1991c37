package fetcher

import (
	"fmt"
	"regexp"
	"time"

	"earnings-watch/internal/earnings"
)

const finvizSelector = `table.snapshot-table2 tr:nth-child(11) > td:nth-child(6) > b`

var finvizDateRE = regexp.MustCompile(`(\S+ \d{1,2})\s*(AMC|BMO)?`)

// recentGrace is how far in the past a year-less date may be before it is
// assumed to belong to next year.
const recentGrace = 30

// FinViz extracts the "Earnings" cell of the FinViz snapshot table.
type FinViz struct {
	Now func() time.Time
}

// Extract implements Extractor.
func (f *FinViz) Extract(body []byte) (*earnings.DateTime, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	m := finvizDateRE.FindStringSubmatch(firstText(doc, finvizSelector))
	if m == nil {
		return nil, nil
	}

	// The cell omits the year, e.g. "Mar 07 AMC".
	parsed, err := time.Parse("Jan 2", m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", m[1], err)
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	today := earnings.DateOf(now())

	d := earnings.NewDate(today.Year, parsed.Month(), parsed.Day())
	if d.Before(today.AddDays(-recentGrace)) {
		d = earnings.NewDate(today.Year+1, parsed.Month(), parsed.Day())
	}

	return &earnings.DateTime{Date: d, Time: earnings.ParseAnnounceTime(m[2])}, nil
}

var _ Extractor = (*FinViz)(nil)
