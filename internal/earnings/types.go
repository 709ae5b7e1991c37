package earnings

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AnnounceTime is when, relative to the trading session, earnings are released.
type AnnounceTime int

const (
	Unknown AnnounceTime = iota
	BeforeMarket
	AfterMarket
)

// String renders "BMO", "AMC" or an empty string for Unknown.
func (a AnnounceTime) String() string {
	switch a {
	case BeforeMarket:
		return "BMO"
	case AfterMarket:
		return "AMC"
	default:
		return ""
	}
}

// ParseAnnounceTime maps "BMO"/"AMC" to their values; anything else is Unknown.
func ParseAnnounceTime(s string) AnnounceTime {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BMO":
		return BeforeMarket
	case "AMC":
		return AfterMarket
	default:
		return Unknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a AnnounceTime) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AnnounceTime) UnmarshalText(text []byte) error {
	*a = ParseAnnounceTime(string(text))
	return nil
}

// DateTime is a single source's claim about the announcement.
type DateTime struct {
	Date Date         `json:"date"`
	Time AnnounceTime `json:"time"`
}

// LastSession returns the last trading session before the announcement and whether
// that session is fuzzy because the timing is unknown.
func (dt DateTime) LastSession() (Date, bool) {
	switch dt.Time {
	case BeforeMarket:
		return dt.Date.PrevTradingDay(), false
	case AfterMarket:
		return dt.Date, false
	default:
		return dt.Date, true
	}
}

func (dt DateTime) String() string {
	return fmt.Sprintf("%s %s", dt.Date, dt.Time)
}

// SourcedDateTime is a DateTime tagged with the source that reported it.
type SourcedDateTime struct {
	DateTime DateTime `json:"datetime"`
	Source   string   `json:"source"`
}

// Guess is the reconciled estimate.
type Guess struct {
	LastSession        Date              `json:"last_session"`
	Concurrences       []SourcedDateTime `json:"concurrences"`
	CloseDisagreements []SourcedDateTime `json:"close_disagreements"`
	FarDisagreements   []SourcedDateTime `json:"far_disagreements"`
}

// Sources counts the sources placed in any bucket.
func (g Guess) Sources() int {
	return len(g.Concurrences) + len(g.CloseDisagreements) + len(g.FarDisagreements)
}

// Agreement 返回认同最佳交易日的来源占比（百分比，两位小数）。
func (g Guess) Agreement() decimal.Decimal {
	total := g.Sources()
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(len(g.Concurrences))).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
