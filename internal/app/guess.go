package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"earnings-watch/internal/earnings"
	"earnings-watch/internal/service"
)

// Guess estimates each symbol and prints the result.
func (a *App) Guess(ctx context.Context, opts GuessOptions) error {
	if len(opts.Symbols) == 0 {
		return errors.New("at least one symbol is required")
	}

	estimator, err := a.newEstimator()
	if err != nil {
		return err
	}
	today := opts.Today
	if today.IsZero() {
		today = estimator.Today()
	}

	var failed []error
	results := make([]service.Estimate, 0, len(opts.Symbols))
	for _, symbol := range opts.Symbols {
		est, err := estimator.EstimateAt(ctx, symbol, today)
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", symbol, err))
			if !opts.JSON {
				fmt.Fprintf(a.Out, "%s: %s\n\n", strings.ToUpper(symbol), sanitizeInline(err.Error()))
			}
			continue
		}
		results = append(results, est)
		if !opts.JSON {
			if err := renderEstimate(a.Out, est); err != nil {
				return err
			}
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	}
	return errors.Join(failed...)
}

func renderEstimate(w io.Writer, est service.Estimate) error {
	g := est.Guess
	fmt.Fprintf(w, "%s: last session before earnings %s (%s%% agreement, %d sources, today %s)\n",
		est.Symbol, g.LastSession, g.Agreement().StringFixed(2), g.Sources(), est.Today)
	if timing := est.Timing().String(); timing != "" {
		fmt.Fprintf(w, "announce timing %s\n", timing)
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Bucket\tSource\tDate\tTime\tSession")
	writeRows(writer, "agree", g.Concurrences)
	writeRows(writer, "close", g.CloseDisagreements)
	writeRows(writer, "far", g.FarDisagreements)
	if err := writer.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeRows(w io.Writer, bucket string, list []earnings.SourcedDateTime) {
	for _, obs := range list {
		session, fuzzy := obs.DateTime.LastSession()
		label := session.String()
		if fuzzy {
			label += "?"
		}
		timing := obs.DateTime.Time.String()
		if timing == "" {
			timing = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", bucket, obs.Source, obs.DateTime.Date, timing, label)
	}
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
