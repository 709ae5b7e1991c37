package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"earnings-watch/internal/earnings"
	"earnings-watch/internal/service"
)

// Export renders one estimate as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	estimator, err := a.newEstimator()
	if err != nil {
		return err
	}
	today := opts.Today
	if today.IsZero() {
		today = estimator.Today()
	}

	est, err := estimator.EstimateAt(ctx, opts.Symbol, today)
	if err != nil {
		return err
	}
	a.Logger.Info().Str("symbol", est.Symbol).
		Int("observations", len(est.Observations)).
		Int("sessions", len(est.Tally)).
		Msg("exporting estimate")

	if opts.CSVPath != "" {
		if err := writeEstimateCSV(opts.CSVPath, est); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeTallyPNG(opts.PNGPath, est); err != nil {
			return err
		}
	}

	return nil
}

// bucketOf names the guess bucket a source landed in.
func bucketOf(g earnings.Guess, source string) string {
	for _, b := range []struct {
		name string
		list []earnings.SourcedDateTime
	}{
		{"agree", g.Concurrences},
		{"close", g.CloseDisagreements},
		{"far", g.FarDisagreements},
	} {
		for _, obs := range b.list {
			if obs.Source == source {
				return b.name
			}
		}
	}
	return ""
}

func writeEstimateCSV(path string, est service.Estimate) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"symbol", "today", "source", "date", "time", "session", "fuzzy", "bucket", "best_session", "agreement_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	agreement := est.Guess.Agreement().StringFixed(2)
	for _, obs := range est.Observations {
		session, fuzzy := obs.DateTime.LastSession()
		record := []string{
			est.Symbol,
			est.Today.String(),
			obs.Source,
			obs.DateTime.Date.String(),
			obs.DateTime.Time.String(),
			session.String(),
			strconv.FormatBool(fuzzy),
			bucketOf(est.Guess, obs.Source),
			est.Guess.LastSession.String(),
			agreement,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeTallyPNG(path string, est service.Estimate) error {
	if len(est.Tally) == 0 {
		return errors.New("no sessions to chart")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(est.Tally))
	maxVotes := 0
	for _, t := range est.Tally {
		label := t.Session.String()
		if t.Session == est.Guess.LastSession {
			label += " *"
		}
		style := chart.Style{}
		if !t.Eligible {
			style = chart.Style{FillColor: chart.ColorAlternateGray, StrokeColor: chart.ColorAlternateGray}
		}
		bars = append(bars, chart.Value{Value: float64(t.Votes), Label: label, Style: style})
		if t.Votes > maxVotes {
			maxVotes = t.Votes
		}
	}

	graph := chart.BarChart{
		Title:    est.Symbol + " votes per session",
		Width:    1280,
		Height:   720,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Name:  "Votes",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxVotes + 1)},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
