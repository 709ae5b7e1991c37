package earnings

import "time"

// Trading-day arithmetic only knows about weekends; exchange holidays are not modelled.

// ClosestTradingDay steps a weekend date back to the preceding Friday.
func (d Date) ClosestTradingDay() Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(-1)
	case time.Sunday:
		return d.AddDays(-2)
	default:
		return d
	}
}

// NextTradingDay returns the first weekday after d.
func (d Date) NextTradingDay() Date {
	switch d.Weekday() {
	case time.Friday:
		return d.AddDays(3)
	case time.Saturday:
		return d.AddDays(2)
	default:
		return d.AddDays(1)
	}
}

// PrevTradingDay returns the last weekday before d.
func (d Date) PrevTradingDay() Date {
	switch d.Weekday() {
	case time.Monday:
		return d.AddDays(-3)
	case time.Sunday:
		return d.AddDays(-2)
	default:
		return d.AddDays(-1)
	}
}

// IsTradingDay reports whether d falls on a weekday.
func (d Date) IsTradingDay() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
