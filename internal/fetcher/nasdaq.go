package fetcher

import (
	"regexp"

	"earnings-watch/internal/earnings"
)

const nasdaqSelector = `#two_column_main_content_reportdata`

var nasdaqRE = regexp.MustCompile(`earnings on\s*(\d{1,2}/\d{1,2}/\d{4})\s*(after market close|before market open)?.`)

// ExtractNasdaq parses the sentence in NASDAQ's earnings report summary.
func ExtractNasdaq(body []byte) (*earnings.DateTime, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	m := nasdaqRE.FindStringSubmatch(firstText(doc, nasdaqSelector))
	if m == nil {
		return nil, nil
	}

	d, err := parseDate("1/2/2006", m[1])
	if err != nil {
		return nil, err
	}

	timing := earnings.Unknown
	switch m[2] {
	case "after market close":
		timing = earnings.AfterMarket
	case "before market open":
		timing = earnings.BeforeMarket
	}
	return &earnings.DateTime{Date: d, Time: timing}, nil
}
