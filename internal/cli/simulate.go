package cli

import (
	"github.com/spf13/cobra"

	"earnings-watch/internal/app"
)

var (
	simulatePrevious string
	simulateNext     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert SYMBOL",
	Short: "模拟一次最佳交易日变化并触发告警",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		previous, err := parseDateFlag("previous", simulatePrevious)
		if err != nil {
			return err
		}
		next, err := parseDateFlag("next", simulateNext)
		if err != nil {
			return err
		}
		return getApp().SimulateAlert(cmd.Context(), app.SimulateOptions{
			Symbol:   args[0],
			Previous: previous,
			Next:     next,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePrevious, "previous", "", "之前的交易日 (YYYY-MM-DD)")
	simulateCmd.Flags().StringVar(&simulateNext, "next", "", "新的交易日 (YYYY-MM-DD)")
	_ = simulateCmd.MarkFlagRequired("previous")
	_ = simulateCmd.MarkFlagRequired("next")
}
