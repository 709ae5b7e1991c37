package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"earnings-watch/internal/earnings"
)

// Outcome labels reported to the OutcomeRecorder.
const (
	OutcomeFound  = "found"
	OutcomeNoData = "no_data"
	OutcomeFailed = "failed"
)

// OutcomeRecorder receives one report per source per Gather call.
type OutcomeRecorder interface {
	ObserveSource(source, outcome string, elapsed time.Duration)
}

// Gatherer fans a symbol out to every registered source.
type Gatherer struct {
	sources   []Source
	transport Transport
	recorder  OutcomeRecorder
	logger    zerolog.Logger
}

// NewGatherer wires the fixed source table to a transport. recorder may be nil.
func NewGatherer(sources []Source, transport Transport, recorder OutcomeRecorder, logger zerolog.Logger) *Gatherer {
	return &Gatherer{
		sources:   sources,
		transport: transport,
		recorder:  recorder,
		logger:    logger.With().Str("component", "gatherer").Logger(),
	}
}

type outcome struct {
	source  string
	url     string
	kind    string
	found   earnings.DateTime
	err     error
	elapsed time.Duration
}

// Gather queries every source concurrently and returns the observations of the
// sources that produced one. It blocks until every source has finished; a failing
// source is logged and skipped.
func (g *Gatherer) Gather(ctx context.Context, symbol string) []earnings.SourcedDateTime {
	logger := g.logger.With().
		Str("symbol", symbol).
		Str("run_id", uuid.NewString()).
		Logger()

	p := pool.NewWithResults[outcome]()
	for _, src := range g.sources {
		src := src
		p.Go(func() outcome {
			return g.query(ctx, src, symbol)
		})
	}
	outcomes := p.Wait()

	observations := make([]earnings.SourcedDateTime, 0, len(outcomes))
	for _, out := range outcomes {
		if g.recorder != nil {
			g.recorder.ObserveSource(out.source, out.kind, out.elapsed)
		}

		switch out.kind {
		case OutcomeFailed:
			logger.Error().Str("source", out.source).
				Str("causes", causeChain(out.err)).
				Msgf("URL %s failed", out.url)
		case OutcomeNoData:
			logger.Warn().Str("source", out.source).
				Msgf("URL %s had no earnings date", out.url)
		default:
			logger.Debug().Str("source", out.source).
				Str("datetime", out.found.String()).
				Msg("earnings date found")
			observations = append(observations, earnings.SourcedDateTime{DateTime: out.found, Source: out.source})
		}
	}

	logger.Info().Int("sources", len(g.sources)).
		Int("observations", len(observations)).
		Msg("gather complete")
	return observations
}

func (g *Gatherer) query(ctx context.Context, src Source, symbol string) (out outcome) {
	out = outcome{source: src.Name, url: src.URL(symbol)}
	start := time.Now()
	defer func() { out.elapsed = time.Since(start) }()

	var (
		found *earnings.DateTime
		err   error
	)
	if rec := panics.Try(func() { found, err = g.fetch(ctx, src, out.url) }); rec != nil {
		err = fmt.Errorf("%s panicked: %w", src.Name, rec.AsError())
	}

	switch {
	case err != nil:
		out.kind, out.err = OutcomeFailed, err
	case found == nil:
		out.kind = OutcomeNoData
	default:
		out.kind, out.found = OutcomeFound, *found
	}
	return out
}

func (g *Gatherer) fetch(ctx context.Context, src Source, url string) (*earnings.DateTime, error) {
	status, body, err := g.transport.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("URL %s: %w", url, err)
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{URL: url, StatusCode: status}
	}

	found, err := src.Extractor.Extract(body)
	if err != nil {
		return nil, &ExtractionError{Source: src.Name, URL: url, Err: err}
	}
	return found, nil
}

var _ ObservationGatherer = (*Gatherer)(nil)
