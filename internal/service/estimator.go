package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"earnings-watch/internal/earnings"
	"earnings-watch/internal/fetcher"
)

var (
	// ErrInsufficientData means no source produced an observation.
	ErrInsufficientData = fmt.Errorf("insufficient data: %w", earnings.ErrNoObservations)
	// ErrInvalidSymbol rejects blank or malformed symbols.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Estimate is the full result of one symbol lookup.
type Estimate struct {
	Symbol       string                     `json:"symbol"`
	Today        earnings.Date              `json:"today"`
	Observations []earnings.SourcedDateTime `json:"observations"`
	Guess        earnings.Guess             `json:"guess"`
	Tally        []earnings.SessionTally    `json:"tally"`
}

// Timing returns the announce time all concurring sources agree on, or Unknown.
func (e Estimate) Timing() earnings.AnnounceTime {
	timing := earnings.Unknown
	for i, obs := range e.Guess.Concurrences {
		if i == 0 {
			timing = obs.DateTime.Time
			continue
		}
		if obs.DateTime.Time != timing {
			return earnings.Unknown
		}
	}
	return timing
}

// EstimateProvider is satisfied by Estimator.
type EstimateProvider interface {
	Estimate(ctx context.Context, symbol string) (Estimate, error)
}

// EstimateRecorder receives estimate level metrics.
type EstimateRecorder interface {
	ObserveAgreement(symbol string, percent float64)
	ObserveEstimateError(reason string)
}

// EstimatorOptions tune an Estimator.
type EstimatorOptions struct {
	// Location decides the calendar day treated as today. Defaults to UTC.
	Location *time.Location
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Estimator gathers observations for a symbol and reconciles them.
type Estimator struct {
	gatherer fetcher.ObservationGatherer
	recorder EstimateRecorder
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewEstimator wires a gatherer into an Estimator. recorder may be nil.
func NewEstimator(gatherer fetcher.ObservationGatherer, recorder EstimateRecorder, opts EstimatorOptions, logger zerolog.Logger) *Estimator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Estimator{
		gatherer: gatherer,
		recorder: recorder,
		loc:      opts.Location,
		now:      opts.Now,
		logger:   logger.With().Str("component", "estimator").Logger(),
	}
}

// Today returns the current calendar date in the market timezone.
func (e *Estimator) Today() earnings.Date {
	return earnings.DateOf(e.now().In(e.loc))
}

// Estimate reconciles the sources' view of symbol against today.
func (e *Estimator) Estimate(ctx context.Context, symbol string) (Estimate, error) {
	return e.EstimateAt(ctx, symbol, e.Today())
}

// EstimateAt is Estimate with an explicit reference date.
func (e *Estimator) EstimateAt(ctx context.Context, symbol string, today earnings.Date) (Estimate, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return Estimate{}, err
	}

	observations := e.gatherer.Gather(ctx, symbol)
	est := Estimate{Symbol: symbol, Today: today, Observations: observations}
	if len(observations) == 0 {
		e.observeError("insufficient_data")
		return est, ErrInsufficientData
	}

	est.Tally = earnings.Tally(observations, today)
	guess, err := earnings.BestGuess(observations, today)
	if err != nil {
		if errors.Is(err, earnings.ErrNoCandidate) {
			e.observeError("no_candidate")
		} else {
			e.observeError("reconcile")
		}
		return est, err
	}
	est.Guess = guess

	agreement, _ := guess.Agreement().Float64()
	if e.recorder != nil {
		e.recorder.ObserveAgreement(symbol, agreement)
	}
	e.logger.Info().Str("symbol", symbol).
		Str("today", today.String()).
		Str("last_session", guess.LastSession.String()).
		Int("sources", guess.Sources()).
		Str("agreement_pct", guess.Agreement().StringFixed(2)).
		Msg("estimate ready")
	return est, nil
}

func (e *Estimator) observeError(reason string) {
	if e.recorder != nil {
		e.recorder.ObserveEstimateError(reason)
	}
}

// NormalizeSymbol upper-cases a ticker and rejects anything outside [A-Z0-9.-].
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || len(symbol) > 16 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
		}
	}
	return symbol, nil
}

var _ EstimateProvider = (*Estimator)(nil)
