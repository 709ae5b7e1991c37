package app

import (
	"context"
	"errors"
	"time"

	"earnings-watch/internal/config"
	"earnings-watch/internal/earnings"
	"earnings-watch/internal/service"
)

// SimulateOptions describe a fabricated change of best session.
type SimulateOptions struct {
	Symbol   string
	Previous earnings.Date
	Next     earnings.Date
}

// SimulateAlert 通过两次固定的估算结果模拟一次交易日变化并触发告警。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	symbol, err := service.NormalizeSymbol(opts.Symbol)
	if err != nil {
		return err
	}
	if opts.Previous == opts.Next {
		return errors.New("previous 与 next 不能相同")
	}

	cfg := *a.Config
	cfg.Watch = config.WatchConfig{Symbols: []string{symbol}}
	cfg.Scheduler.AdvisoryLockKey = 0

	est := &staticEstimator{sessions: []earnings.Date{opts.Previous, opts.Next}}
	svc := service.New(&cfg, nil, est, nil, notifier, a.Logger)

	bucket := time.Now().UTC().Truncate(a.Config.Scheduler.Interval)
	for range est.sessions {
		if err := svc.ProcessBucket(ctx, bucket); err != nil {
			return err
		}
	}
	return nil
}

type staticEstimator struct {
	sessions []earnings.Date
	calls    int
}

func (s *staticEstimator) Estimate(ctx context.Context, symbol string) (service.Estimate, error) {
	session := s.sessions[min(s.calls, len(s.sessions)-1)]
	s.calls++
	obs := earnings.SourcedDateTime{
		Source:   "simulated",
		DateTime: earnings.DateTime{Date: session, Time: earnings.AfterMarket},
	}
	return service.Estimate{
		Symbol:       symbol,
		Observations: []earnings.SourcedDateTime{obs},
		Guess: earnings.Guess{
			LastSession:        session,
			Concurrences:       []earnings.SourcedDateTime{obs},
			CloseDisagreements: []earnings.SourcedDateTime{},
			FarDisagreements:   []earnings.SourcedDateTime{},
		},
	}, nil
}

var _ service.EstimateProvider = (*staticEstimator)(nil)
