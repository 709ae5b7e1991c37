package alerting

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the log. It stands in when alerting is
// enabled without any delivery channel.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier builds a notifier on top of logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify logs the notification at warn level.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	event := n.logger.Warn().
		Str("symbol", note.Symbol).
		Str("last_session", note.Guess.LastSession.String()).
		Str("agreement_pct", note.Guess.Agreement().StringFixed(2)).
		Int("sources", note.Guess.Sources())
	if note.Previous != nil {
		event = event.Str("previous_session", note.Previous.String())
	}
	if timing := note.Timing.String(); timing != "" {
		event = event.Str("timing", timing)
	}
	event.Msg("best earnings session changed")
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
