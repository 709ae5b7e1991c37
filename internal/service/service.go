package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"earnings-watch/internal/alerting"
	"earnings-watch/internal/config"
	"earnings-watch/internal/earnings"
	"earnings-watch/internal/scheduler"
	"earnings-watch/internal/storage"
)

// Watcher re-estimates the watched symbols on every scheduler tick and alerts
// when a symbol's best session moves.
type Watcher struct {
	scheduler *scheduler.Scheduler
	estimator EstimateProvider
	watchlist storage.WatchlistStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	symbols       []string
	alertsOn      bool
	notifyOnFirst bool
	locker        storage.AdvisoryLocker
	lockKey       int64

	mu   sync.Mutex
	last map[string]earnings.Date
}

// New constructs the watcher. watchlist and notifier may be nil.
func New(cfg *config.Config, sched *scheduler.Scheduler, estimator EstimateProvider, watchlist storage.WatchlistStore, notifier alerting.Notifier, logger zerolog.Logger) *Watcher {
	var locker storage.AdvisoryLocker
	if l, ok := watchlist.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Watcher{
		scheduler:     sched,
		estimator:     estimator,
		watchlist:     watchlist,
		notifier:      notifier,
		logger:        logger.With().Str("component", "watcher").Logger(),
		symbols:       cfg.WatchSymbols(),
		alertsOn:      cfg.Alerting.Enabled,
		notifyOnFirst: cfg.Watch.NotifyOnFirst,
		locker:        locker,
		lockKey:       cfg.Scheduler.AdvisoryLockKey,
		last:          make(map[string]earnings.Date),
	}
}

// Run begins the scheduled watch loop.
func (s *Watcher) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBucket)
}

// ProcessBucket 执行单个时间桶的估算逻辑。
func (s *Watcher) ProcessBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeBucket(ctx, bucket)
}

func (s *Watcher) executeBucket(ctx context.Context, bucket time.Time) error {
	symbols := s.Symbols(ctx)
	if len(symbols) == 0 {
		s.logger.Warn().Time("bucket", bucket).Msg("no symbols to watch")
		return nil
	}

	var changed int
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		est, err := s.estimator.Estimate(ctx, symbol)
		if err != nil {
			event := s.logger.Error()
			if errors.Is(err, ErrInsufficientData) || errors.Is(err, earnings.ErrNoCandidate) {
				event = s.logger.Warn()
			}
			event.Err(err).Str("symbol", symbol).Time("bucket", bucket).Msg("estimate failed")
			continue
		}

		session := est.Guess.LastSession
		previous, seen := s.lastSession(symbol)
		if seen && previous == session {
			continue
		}
		if !seen && !s.notifyOnFirst {
			s.remember(symbol, session)
			continue
		}
		changed++

		s.logger.Info().Str("symbol", symbol).
			Time("bucket", bucket).
			Bool("first", !seen).
			Str("last_session", session.String()).
			Msg("best session changed")

		if !s.alertsOn || s.notifier == nil {
			s.remember(symbol, session)
			continue
		}
		note := alerting.Notification{
			Bucket: bucket,
			Symbol: symbol,
			Guess:  est.Guess,
			Timing: est.Timing(),
		}
		if seen {
			note.Previous = &previous
		}
		// An undelivered change stays pending until a later tick delivers it.
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Time("bucket", bucket).Msg("failed to dispatch alert")
			continue
		}
		s.remember(symbol, session)
	}

	s.logger.Info().Time("bucket", bucket).
		Int("symbols", len(symbols)).
		Int("changed", changed).
		Msg("watch tick complete")
	return nil
}

// Symbols merges the configured symbols with the stored watchlist.
func (s *Watcher) Symbols(ctx context.Context) []string {
	set := make(map[string]struct{}, len(s.symbols))
	for _, symbol := range s.symbols {
		if normalized, err := NormalizeSymbol(symbol); err == nil {
			set[normalized] = struct{}{}
		}
	}
	if s.watchlist != nil {
		stored, err := s.watchlist.ListWatchlist(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to load watchlist, using configured symbols")
		}
		for _, w := range stored {
			if normalized, err := NormalizeSymbol(w.Symbol); err == nil {
				set[normalized] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for symbol := range set {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

func (s *Watcher) lastSession(symbol string) (earnings.Date, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, seen := s.last[symbol]
	return previous, seen
}

func (s *Watcher) remember(symbol string, session earnings.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[symbol] = session
}

func (s *Watcher) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
