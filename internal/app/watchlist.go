package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"earnings-watch/internal/storage"
)

var errNoDatabase = errors.New("database not configured; watchlist requires database.dsn")

func (a *App) withStore(ctx context.Context, fn func(*storage.Store) error) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errNoDatabase
	}
	defer closeStore()
	return fn(store)
}

// WatchlistList prints the stored symbols.
func (a *App) WatchlistList(ctx context.Context) error {
	return a.withStore(ctx, func(store *storage.Store) error {
		items, err := store.ListWatchlist(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(a.Out, "watchlist is empty")
			return nil
		}

		writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Symbol\tAdded (UTC)\tNote")
		for _, item := range items {
			fmt.Fprintf(writer, "%s\t%s\t%s\n", item.Symbol, item.AddedAt.UTC().Format(time.RFC3339), sanitizeInline(item.Note))
		}
		return writer.Flush()
	})
}

// WatchlistAdd stores a symbol, replacing its note if present.
func (a *App) WatchlistAdd(ctx context.Context, symbol, note string) error {
	return a.withStore(ctx, func(store *storage.Store) error {
		item, err := store.AddToWatchlist(ctx, symbol, note)
		if err != nil {
			return err
		}
		a.Logger.Info().Str("symbol", item.Symbol).Msg("symbol added to watchlist")
		fmt.Fprintf(a.Out, "watching %s\n", item.Symbol)
		return nil
	})
}

// WatchlistRemove deletes a symbol.
func (a *App) WatchlistRemove(ctx context.Context, symbol string) error {
	return a.withStore(ctx, func(store *storage.Store) error {
		if err := store.RemoveFromWatchlist(ctx, symbol); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "removed %s\n", symbol)
		return nil
	})
}
