package cli

import (
	"github.com/spf13/cobra"
)

var watchlistNote string

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the stored watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched symbols",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().WatchlistList(cmd.Context())
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add SYMBOL",
	Short: "Add a symbol to the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().WatchlistAdd(cmd.Context(), args[0], watchlistNote)
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove SYMBOL",
	Short: "Remove a symbol from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().WatchlistRemove(cmd.Context(), args[0])
	},
}

func init() {
	watchlistAddCmd.Flags().StringVar(&watchlistNote, "note", "", "Free-form note stored with the symbol")
	watchlistCmd.AddCommand(watchlistListCmd, watchlistAddCmd, watchlistRemoveCmd)
}
