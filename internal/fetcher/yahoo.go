package fetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"earnings-watch/internal/earnings"
)

const yahooBootstrapPrefix = "root.App.main = "

type yahooBootstrap struct {
	Context struct {
		Dispatcher struct {
			Stores struct {
				QuoteSummaryStore struct {
					CalendarEvents struct {
						Earnings struct {
							EarningsDate []struct {
								Raw *int64 `json:"raw"`
							} `json:"earningsDate"`
						} `json:"earnings"`
					} `json:"calendarEvents"`
				} `json:"QuoteSummaryStore"`
			} `json:"stores"`
		} `json:"dispatcher"`
	} `json:"context"`
}

// ExtractYahoo reads the earnings date from the JSON state Yahoo embeds in its
// quote page. The timestamp carries no session information.
func ExtractYahoo(body []byte) (*earnings.DateTime, error) {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, yahooBootstrapPrefix) {
			continue
		}

		payload := strings.TrimSuffix(strings.TrimPrefix(line, yahooBootstrapPrefix), ";")
		var boot yahooBootstrap
		if err := json.Unmarshal([]byte(payload), &boot); err != nil {
			return nil, fmt.Errorf("decode bootstrap payload: %w", err)
		}

		dates := boot.Context.Dispatcher.Stores.QuoteSummaryStore.CalendarEvents.Earnings.EarningsDate
		if len(dates) == 0 || dates[0].Raw == nil {
			return nil, nil
		}

		d := earnings.DateOf(time.Unix(*dates[0].Raw, 0).UTC())
		return &earnings.DateTime{Date: d, Time: earnings.Unknown}, nil
	}
	return nil, errors.New("could not locate JSON bootstrap payload")
}
