package storage

import "time"

// WatchedSymbol is a ticker tracked by the watcher. Estimates themselves are never
// stored; only the list of symbols to estimate.
type WatchedSymbol struct {
	Symbol  string
	Note    string
	AddedAt time.Time
}
