package cli

import (
	"github.com/spf13/cobra"

	"earnings-watch/internal/app"
)

var (
	guessToday string
	guessJSON  bool
)

var guessCmd = &cobra.Command{
	Use:   "guess SYMBOL...",
	Short: "Estimate the last trading session before each symbol's earnings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		today, err := parseDateFlag("today", guessToday)
		if err != nil {
			return err
		}
		return getApp().Guess(cmd.Context(), app.GuessOptions{
			Symbols: args,
			Today:   today,
			JSON:    guessJSON,
		})
	},
}

func init() {
	guessCmd.Flags().StringVar(&guessToday, "today", "", "Reference date (YYYY-MM-DD, defaults to the market date)")
	guessCmd.Flags().BoolVar(&guessJSON, "json", false, "Print estimates as JSON")
}
