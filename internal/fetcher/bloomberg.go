package fetcher

import (
	"earnings-watch/internal/earnings"
)

const bloombergSelector = `span[class^="nextAnnouncementDate"]`

// ExtractBloomberg reads the "next announcement" badge on a Bloomberg quote page.
// Bloomberg never says whether the release is before or after the session.
func ExtractBloomberg(body []byte) (*earnings.DateTime, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	// The badge may nest labels after the date, e.g. "3/7/2024<b>Est.</b>".
	text := ownText(doc.Find(bloombergSelector).First())
	if text == "" {
		return nil, nil
	}

	d, err := parseDate("1/2/2006", text)
	if err != nil {
		return nil, err
	}
	return &earnings.DateTime{Date: d, Time: earnings.Unknown}, nil
}
