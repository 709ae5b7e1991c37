package fetcher

import (
	"fmt"
	"strings"

	"earnings-watch/internal/earnings"
)

const zacksSelector = `#stock_key_earnings > table > tbody > tr:nth-child(5) > td:nth-child(2)`

// ExtractZacks reads the "Next Report Date" cell of the Zacks key-earnings table.
// The session hint lives in a <sup> such as "*AMC".
func ExtractZacks(body []byte) (*earnings.DateTime, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	cell := doc.Find(zacksSelector).First()
	if cell.Length() == 0 {
		return nil, fmt.Errorf("zacks next report date: %w", ErrSelectorNotFound)
	}

	timing := earnings.Unknown
	switch strings.TrimSpace(cell.Find("sup").First().Text()) {
	case "*AMC":
		timing = earnings.AfterMarket
	case "*BMO":
		timing = earnings.BeforeMarket
	}

	dateText := ownText(cell)
	if dateText == "" {
		return nil, nil
	}

	d, err := parseDate("1/2/06", dateText)
	if err != nil {
		return nil, err
	}
	return &earnings.DateTime{Date: d, Time: timing}, nil
}
